package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

const (
	defaultPendingTTL  = 72 * time.Hour
	defaultExpiryBatch = 100
	maxExpiryBatches   = 50
)

type pendingOrderExpirer interface {
	ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// PendingOrderExpiryJobParams configure the pending order expiry job.
type PendingOrderExpiryJobParams struct {
	Logger     *logger.Logger
	Orders     pendingOrderExpirer
	PendingTTL time.Duration
	BatchSize  int
}

// NewPendingOrderExpiryJob builds the job that cancels PENDING orders older
// than the configured TTL and returns their stock.
func NewPendingOrderExpiryJob(params PendingOrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &pendingOrderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type pendingOrderExpiryJob struct {
	logg   *logger.Logger
	orders pendingOrderExpirer
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *pendingOrderExpiryJob) Name() string { return "pending-order-expiry" }

// Run drains stale orders batch by batch. A short batch ends the run, so
// orders that keep failing are retried next cycle instead of spinning here.
func (j *pendingOrderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	var errs error
	total := 0
	for i := 0; i < maxExpiryBatches; i++ {
		expired, err := j.orders.ExpireStalePending(ctx, cutoff, j.batch)
		total += expired
		errs = multierr.Append(errs, err)
		if expired < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": total,
		"errors":  len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "pending order expiry complete")
	return errs
}
