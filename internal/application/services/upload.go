package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/filerecord"
	"uploadit/internal/infrastructure/metrics"
	"uploadit/internal/infrastructure/mq"
)

const (
	StoragePrefix      = "uploads/"
	DefaultMaxAttempts = 5
	sniffLen           = 3072
	maxDisplayNameLen  = 255
	cleanupTimeout     = 10 * time.Second
	octetStream        = "application/octet-stream"
)

var extRe = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

type UploadService struct {
	storage     ports.ObjectStorage
	records     filerecord.Repository
	codes       ports.CodeGenerator
	qr          ports.QREncoder
	events      ports.EventPublisher
	mCounter    *prometheus.CounterVec
	logger      *zap.Logger
	maxAttempts int
	now         func() time.Time
	// keySuffix separates keys of devices sharing an account within one millisecond
	keySuffix func() string

	// last storage key stamp handed out
	lastStamp atomic.Int64
}

func NewUploadService(
	storage ports.ObjectStorage,
	records filerecord.Repository,
	codes ports.CodeGenerator,
	qr ports.QREncoder,
	events ports.EventPublisher,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
	maxAttempts int,
) *UploadService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &UploadService{
		storage:     storage,
		records:     records,
		codes:       codes,
		qr:          qr,
		events:      events,
		mCounter:    mCounter,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
		keySuffix:   randomSuffix,
	}
}

// Upload stores the bytes first and then issues a code for them. Anything
// that fails after the write removes the object again.
func (us *UploadService) Upload(ctx context.Context, who ports.Identity, in ports.UploadInput) (*filerecord.FileRecord, error) {
	if in.Body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidInput)
	}
	if who.Email == "" || who.UserID == uuid.Nil {
		return nil, ErrAuth
	}

	name := displayName(in.Name)
	body, contentType, ext := sniff(in.Body, in.ContentType)
	if e := fileExt(name); e != "" {
		ext = e
	}
	key := us.storageKey(who.UserID, ext)

	if err := us.storage.Write(ctx, key, body, in.Size, contentType); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	rec, err := us.insertWithFreshCode(ctx, filerecord.FileRecord{
		UploaderIdentity: who.Email,
		FilePath:         key,
		OriginalName:     name,
	})
	if err != nil {
		// the object under a taken key belongs to the record that owns it
		if errors.Is(err, filerecord.ErrDuplicatePath) {
			us.logger.Error("storage key already owned", zap.String("key", key))
		} else {
			us.discard(ctx, key)
		}
		return nil, err
	}

	us.events.Publish(mq.NewEvent(mq.ActionUploaded, rec.ID.String(), rec.DownloadCode, rec.OriginalName, rec.UploaderIdentity))
	us.mCounter.WithLabelValues(metrics.FilesUploaded).Inc()

	us.logger.Info("file uploaded",
		zap.String("key", key),
		zap.String("code", rec.DownloadCode),
		zap.String("content_type", contentType),
	)

	return rec, nil
}

func (us *UploadService) insertWithFreshCode(ctx context.Context, req filerecord.FileRecord) (*filerecord.FileRecord, error) {
	for attempt := 1; attempt <= us.maxAttempts; attempt++ {
		code, err := us.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("%w: generate code: %w", ErrRecordInsert, err)
		}
		req.DownloadCode = code

		rec, err := us.records.Insert(ctx, req)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, filerecord.ErrDuplicateCode) {
			return nil, fmt.Errorf("%w: %w", ErrRecordInsert, err)
		}

		us.mCounter.WithLabelValues(metrics.CodeCollisions).Inc()
		us.logger.Warn("download code collision", zap.Int("attempt", attempt), zap.String("code", code))
	}

	return nil, ErrCodeExhausted
}

func (us *UploadService) discard(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := us.storage.Delete(ctx, key); err != nil {
		us.logger.Error("orphan cleanup failed", zap.String("key", key), zap.Error(err))
	}
}

func (us *UploadService) ListUploads(ctx context.Context, uploader string) (filerecord.FileRecords, error) {
	return us.records.SelectByUploader(ctx, uploader)
}

func (us *UploadService) Rename(ctx context.Context, uploader string, id filerecord.ID, name string) (*filerecord.FileRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	rec, err := us.records.UpdateName(ctx, id, uploader, displayName(name))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	us.events.Publish(mq.NewEvent(mq.ActionRenamed, rec.ID.String(), rec.DownloadCode, rec.OriginalName, uploader))
	us.mCounter.WithLabelValues(metrics.FilesRenamed).Inc()

	return rec, nil
}

// Delete removes the record before the object; a failed object delete
// leaves an orphan for the reconciler.
func (us *UploadService) Delete(ctx context.Context, uploader string, id filerecord.ID) error {
	rec, err := us.records.SelectOwned(ctx, id, uploader)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}

	if err = us.records.Delete(ctx, rec.ID); err != nil {
		return err
	}

	us.events.Publish(mq.NewEvent(mq.ActionDeleted, rec.ID.String(), rec.DownloadCode, rec.OriginalName, uploader))
	us.mCounter.WithLabelValues(metrics.FilesDeleted).Inc()

	if err = us.storage.Delete(ctx, rec.FilePath); err != nil {
		us.logger.Error("object delete failed", zap.String("key", rec.FilePath), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	return nil
}

func (us *UploadService) QRCode(code string) ([]byte, error) {
	code = NormalizeCode(code)
	if !IsValidCode(code) {
		return nil, fmt.Errorf("%w: malformed code", ErrInvalidInput)
	}
	return us.qr.Encode(code)
}

// storageKey: "uploads/<user id>/<unix millis>-<suffix>.<ext>". Stamps never repeat
// within the process, a same-millisecond upload takes the next one.
func (us *UploadService) storageKey(userID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%s/%d-%s%s", StoragePrefix, userID.String(), us.nextStamp(), us.keySuffix(), ext)
}

// randomSuffix is 8 hex chars taken from the random part of a v4 UUID.
func randomSuffix() string {
	return uuid.NewString()[:8]
}

func (us *UploadService) nextStamp() int64 {
	now := us.now().UnixMilli()
	for {
		last := us.lastStamp.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if us.lastStamp.CompareAndSwap(last, next) {
			return next
		}
	}
}

// sniff returns a reader equivalent to body together with the content type
// and an extension guess for it.
func sniff(body io.Reader, declared string) (io.Reader, string, string) {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(body, head)
	head = head[:n]
	body = io.MultiReader(bytes.NewReader(head), body)

	detected := mimetype.Detect(head)

	contentType := strings.TrimSpace(declared)
	if contentType == "" || contentType == octetStream {
		contentType = detected.String()
	}
	if contentType == "" {
		contentType = octetStream
	}

	ext := detected.Extension()
	if ext == "" {
		mt, _, _ := mime.ParseMediaType(contentType)
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			ext = exts[0]
		}
	}
	if !extRe.MatchString(ext) {
		ext = ".bin"
	}

	return body, contentType, ext
}

// fileExt is the lower-cased ASCII extension of name, "" if it has none usable.
func fileExt(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(folded))
	if !extRe.MatchString(ext) {
		return ""
	}
	return ext
}

// displayName keeps what the user sees: the last path element, NFC-normalized, without control runes.
func displayName(original string) string {
	s := strings.ReplaceAll(strings.TrimSpace(original), "\\", "/")
	s = path.Base(s)
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	if s == "" || s == "." || s == ".." || s == "/" {
		return "file"
	}
	if r := []rune(s); len(r) > maxDisplayNameLen {
		s = string(r[:maxDisplayNameLen])
	}
	return s
}
