package services

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/logger"
)

// DefaultWatchInterval is how often the worker looks for overdue jobs
const DefaultWatchInterval = time.Minute

// OverdueJobs returns the taken jobs whose delivery deadline passed without a result or dispute.
// Their creators may now refund or, when an arbitrator is set, either party may dispute.
func (r *JobRegistry) OverdueJobs(ctx context.Context) ([]models.Job, error) {
	now := r.clock.Now()
	state := models.JobStateTaken
	filter := models.JobFilter{State: &state}
	opts := &models.ListOptions{Limit: models.MaxLimit}

	var overdue []models.Job
	for {
		jobs, err := r.jobs.List(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		overdue = append(overdue, lo.Filter(jobs, func(j models.Job, _ int) bool {
			return j.Phase() == models.JobPhaseDeliveryPending && !now.Before(j.Deadline())
		})...)
		if len(jobs) < opts.Limit {
			return overdue, nil
		}
		opts.Offset += opts.Limit
	}
}

// LaunchWorker runs the deadline watcher until ctx is done. Each overdue job is reported once.
func LaunchWorker(ctx context.Context, wg *sync.WaitGroup, registry *JobRegistry, interval time.Duration) {
	defer wg.Done()
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	logger.Info("Worker started")

	reported := make(map[uint]struct{})
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker received shutdown signal, stopping...")
			return
		case <-registry.clock.After(interval):
		}

		jobs, err := registry.OverdueJobs(ctx)
		if err != nil {
			logger.Errorf("Worker error fetching overdue jobs: %v", err)
			continue
		}
		current := make(map[uint]struct{}, len(jobs))
		for _, job := range jobs {
			current[job.ID] = struct{}{}
			if _, ok := reported[job.ID]; ok {
				continue
			}
			logger.WarnWithFields("job passed its delivery deadline", map[string]interface{}{
				"job_id":   job.ID,
				"creator":  job.Creator,
				"worker":   job.Worker,
				"deadline": job.Deadline().Format(time.RFC3339),
			})
		}
		reported = current
		if len(jobs) == 0 {
			logger.Debug("Worker: No overdue jobs")
		}
	}
}
