package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/filerecord"
	"uploadit/internal/infrastructure/metrics"
)

// Reconciler removes stored objects that no FileRecord references, which is
// what a crash between the storage write and the record insert leaves behind.
type Reconciler struct {
	storage  ports.ObjectStorage
	records  filerecord.Repository
	mCounter *prometheus.CounterVec
	logger   *zap.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

func NewReconciler(
	storage ports.ObjectStorage,
	records filerecord.Repository,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
	interval, grace time.Duration,
) *Reconciler {
	return &Reconciler{
		storage:  storage,
		records:  records,
		mCounter: mCounter,
		logger:   logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
	}
}

// Sweep runs one pass. Objects younger than the grace period may belong to an
// upload that is still in flight and are left alone.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	objs, err := r.storage.List(ctx, StoragePrefix)
	if err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-r.grace)
	removed := 0
	for _, obj := range objs {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if obj.LastModified.After(cutoff) {
			continue
		}

		ok, err := r.records.ExistsByPath(ctx, obj.Key)
		if err != nil {
			r.logger.Warn("orphan check failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		if ok {
			continue
		}

		if err = r.storage.Delete(ctx, obj.Key); err != nil {
			r.logger.Warn("orphan delete failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		removed++
		r.mCounter.WithLabelValues(metrics.OrphansRemoved).Inc()
	}

	return removed, nil
}

// Worker sweeps every interval until ctx is done. A non-positive interval disables it.
func (r *Reconciler) Worker(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("orphan reconciler disabled")
		return
	}

	r.logger.Info("starting orphan reconciler", zap.Duration("interval", r.interval))
	defer r.logger.Info("orphan reconciler gracefully stopped")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				r.logger.Error("orphan sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Info("orphans removed", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
