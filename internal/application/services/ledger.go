package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/download"
	"uploadit/internal/infrastructure/metrics"
)

const LedgerKey = "downloads"

// Ledger is the device-local list of completed downloads. Every mutation
// rewrites the whole list under LedgerKey.
type Ledger struct {
	store    ports.KVStore
	transfer ports.FileTransfer
	mCounter *prometheus.CounterVec
	logger   *zap.Logger

	// serializes read-modify-write cycles
	mu sync.Mutex
}

func NewLedger(
	store ports.KVStore,
	transfer ports.FileTransfer,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		store:    store,
		transfer: transfer,
		mCounter: mCounter,
		logger:   logger,
	}
}

func (l *Ledger) Load(ctx context.Context) (download.Ledger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load(ctx)
}

func (l *Ledger) Append(ctx context.Context, e download.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	next := make(download.Ledger, 0, len(entries)+1)
	next = append(next, e)
	next = append(next, entries...)

	if err = l.persist(ctx, next); err != nil {
		return err
	}

	l.mCounter.WithLabelValues(metrics.LedgerEntriesAdded).Inc()

	return nil
}

// Remove deletes the local file and drops the entry. Unknown ids change nothing.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, e := range entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	if err = l.transfer.DeleteLocal(ctx, entries[idx].LocalHandle); err != nil {
		l.logger.Warn("local file delete failed",
			zap.String("id", id),
			zap.String("handle", entries[idx].LocalHandle),
			zap.Error(err),
		)
	}

	next := make(download.Ledger, 0, len(entries)-1)
	next = append(next, entries[:idx]...)
	next = append(next, entries[idx+1:]...)

	return l.persist(ctx, next)
}

func (l *Ledger) load(ctx context.Context) (download.Ledger, error) {
	raw, ok, err := l.store.Get(ctx, LedgerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalPersistence, err)
	}
	if !ok || raw == "" {
		return download.Ledger{}, nil
	}

	var entries download.Ledger
	if err = json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: decode ledger: %w", ErrLocalPersistence, err)
	}
	if entries == nil {
		entries = download.Ledger{}
	}
	return entries, nil
}

func (l *Ledger) persist(ctx context.Context, entries download.Ledger) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode ledger: %w", ErrLocalPersistence, err)
	}
	if err = l.store.Set(ctx, LedgerKey, string(b)); err != nil {
		return fmt.Errorf("%w: %w", ErrLocalPersistence, err)
	}
	return nil
}
