package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	trialExpiryJobName      = "trial-expiry"
	defaultTrialExpiryBatch = 100
	maxTrialExpiryBatches   = 50
)

type trialRepository interface {
	ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]models.Business, error)
	MarkTrialExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type TrialExpiryJobParams struct {
	Logger     *logger.Logger
	Repository trialRepository
	BatchSize  int
	Clock      func() time.Time
}

// trialExpiryJob moves businesses whose trial has ended to expired.
type trialExpiryJob struct {
	logg      *logger.Logger
	repo      trialRepository
	batchSize int
	now       func() time.Time
}

func NewTrialExpiryJob(params TrialExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("trial repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultTrialExpiryBatch
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &trialExpiryJob{
		logg:      params.Logger,
		repo:      params.Repository,
		batchSize: batch,
		now:       now,
	}, nil
}

func (j *trialExpiryJob) Name() string { return trialExpiryJobName }

func (j *trialExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var (
		expired int
		errs    error
	)
	failed := map[uuid.UUID]struct{}{}

	for batch := 0; batch < maxTrialExpiryBatches; batch++ {
		rows, err := j.repo.ListExpiredTrials(ctx, now, j.batchSize)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list expired trials: %w", err))
		}
		progressed := false
		for _, business := range rows {
			if _, seen := failed[business.ID]; seen {
				continue
			}
			ok, err := j.repo.MarkTrialExpired(ctx, business.ID, now)
			if err != nil {
				failed[business.ID] = struct{}{}
				errs = multierr.Append(errs, fmt.Errorf("expire trial %s: %w", business.ID, err))
				continue
			}
			progressed = true
			if ok {
				expired++
				j.logg.Info(j.logg.WithBusinessID(ctx, business.ID.String()), "trial expired")
			}
		}
		if len(rows) < j.batchSize || !progressed {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired": expired,
		"failed":  len(failed),
	})
	j.logg.Info(logCtx, "trial expiry sweep finished")
	return errs
}
