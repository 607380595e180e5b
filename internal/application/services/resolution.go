package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/download"
	"uploadit/internal/domain/filerecord"
	"uploadit/internal/infrastructure/metrics"
	"uploadit/internal/infrastructure/mq"
)

const (
	DefaultSignedURLTTL    = 300 * time.Second
	DefaultTransferTimeout = 2 * time.Minute
)

type ResolutionService struct {
	records         filerecord.Repository
	storage         ports.ObjectStorage
	transfer        ports.FileTransfer
	ledger          ports.Ledger
	events          ports.EventPublisher
	mCounter        *prometheus.CounterVec
	logger          *zap.Logger
	signedURLTTL    time.Duration
	transferTimeout time.Duration
	now             func() time.Time
}

func NewResolutionService(
	records filerecord.Repository,
	storage ports.ObjectStorage,
	transfer ports.FileTransfer,
	ledger ports.Ledger,
	events ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
	signedURLTTL time.Duration,
	transferTimeout time.Duration,
) *ResolutionService {
	if signedURLTTL <= 0 {
		signedURLTTL = DefaultSignedURLTTL
	}
	if transferTimeout <= 0 {
		transferTimeout = DefaultTransferTimeout
	}
	return &ResolutionService{
		records:         records,
		storage:         storage,
		transfer:        transfer,
		ledger:          ledger,
		events:          events,
		mCounter:        mCounter,
		logger:          logger,
		signedURLTTL:    signedURLTTL,
		transferTimeout: transferTimeout,
		now:             time.Now,
	}
}

// Resolve turns a code into a local copy of its file and records it in the ledger.
func (rs *ResolutionService) Resolve(ctx context.Context, code string) (*download.Entry, error) {
	code = NormalizeCode(code)
	if !IsValidCode(code) {
		rs.mCounter.WithLabelValues(metrics.ResolveFailed).Inc()
		return nil, ErrCodeNotFound
	}

	recs, err := rs.records.SelectByCode(ctx, code)
	if err != nil {
		rs.mCounter.WithLabelValues(metrics.ResolveFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrRecordLookup, err)
	}
	if len(recs) != 1 {
		if len(recs) > 1 {
			rs.logger.Error("ambiguous download code", zap.String("code", code), zap.Int("rows", len(recs)))
		}
		rs.mCounter.WithLabelValues(metrics.ResolveFailed).Inc()
		return nil, ErrCodeNotFound
	}
	rec := recs[0]

	url, err := rs.storage.CreateSignedURL(ctx, rec.FilePath, rs.signedURLTTL)
	if err != nil {
		rs.mCounter.WithLabelValues(metrics.ResolveFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrSignedURL, err)
	}

	tctx, cancel := context.WithTimeout(ctx, rs.transferTimeout)
	handle, err := rs.transfer.Download(tctx, url, rec.OriginalName)
	cancel()
	if err != nil {
		rs.mCounter.WithLabelValues(metrics.ResolveFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	entry := download.Entry{
		ID:          id.String(),
		Name:        rec.OriginalName,
		LocalHandle: handle,
		Date:        rs.now().Format(download.DateLayout),
	}
	if err = rs.ledger.Append(ctx, entry); err != nil {
		rs.mCounter.WithLabelValues(metrics.ResolveFailed).Inc()
		rs.discardLocal(ctx, handle)
		return nil, err
	}

	rs.events.Publish(mq.NewEvent(mq.ActionResolved, rec.ID.String(), rec.DownloadCode, rec.OriginalName, ""))
	rs.mCounter.WithLabelValues(metrics.FilesResolved).Inc()

	rs.logger.Info("code resolved", zap.String("code", code), zap.String("handle", handle))

	return &entry, nil
}

// discardLocal drops a downloaded file that never made it into the ledger.
func (rs *ResolutionService) discardLocal(ctx context.Context, handle string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := rs.transfer.DeleteLocal(ctx, handle); err != nil {
		rs.logger.Error("untracked download cleanup failed", zap.String("handle", handle), zap.Error(err))
	}
}
