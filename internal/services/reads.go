package services

import (
	"context"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// GetJob returns the job stored under id
func (r *JobRegistry) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	job, err := r.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "job %d not found", id)
	}
	return job, nil
}

// ListJobs returns a page of jobs matching filter and the total number of matches
func (r *JobRegistry) ListJobs(ctx context.Context, filter models.JobFilter, opts *models.ListOptions) ([]models.Job, int64, error) {
	opts.Normalize()
	for _, field := range []*string{&filter.Creator, &filter.Worker, &filter.Arbitrator} {
		if *field == "" {
			continue
		}
		normalized, err := normalize("filter", *field)
		if err != nil {
			return nil, 0, err
		}
		*field = normalized
	}
	jobs, err := r.jobs.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.jobs.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// Whitelist returns the addresses allowed to take the job. An empty list means anyone may.
func (r *JobRegistry) Whitelist(ctx context.Context, jobID uint) ([]string, error) {
	if _, err := r.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return r.jobs.ListWhitelisted(ctx, jobID)
}
