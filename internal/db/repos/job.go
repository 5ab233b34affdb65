package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// JobRepository provides access to job-related database operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job in the database
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	return db.Conn(ctx, r.db).Create(job).Error
}

// Update writes every field of job, provided the stored revision still equals expectedRevision
func (r *JobRepository) Update(ctx context.Context, job *models.Job, expectedRevision uint64) error {
	result := db.Conn(ctx, r.db).Model(job).
		Where(models.JobRevisionField+" = ?", expectedRevision).
		Select("*").Omit(models.JobCreatedAtField).
		Updates(job)
	if result.Error != nil {
		return fmt.Errorf("failed to update job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %d at revision %d: %w", job.ID, expectedRevision, ErrRevisionConflict)
	}
	return nil
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := db.Conn(ctx, r.db).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// List returns jobs matching filter, newest first
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter, opts *models.ListOptions) ([]models.Job, error) {
	var jobs []models.Job
	err := r.filtered(ctx, filter).
		Limit(opts.Limit).Offset(opts.Offset).
		Order(models.JobCreatedAtField + " DESC").Order("id DESC").
		Find(&jobs).Error
	return jobs, err
}

// Count returns the number of jobs matching filter
func (r *JobRepository) Count(ctx context.Context, filter models.JobFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

// likeEscaper escapes LIKE wildcards so a pattern only matches itself
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *JobRepository) filtered(ctx context.Context, filter models.JobFilter) *gorm.DB {
	qry := db.Conn(ctx, r.db).Model(&models.Job{})
	if filter.State != nil {
		qry = qry.Where("state = ?", *filter.State)
	}
	if filter.Creator != "" {
		qry = qry.Where("creator = ?", filter.Creator)
	}
	if filter.Worker != "" {
		qry = qry.Where("worker = ?", filter.Worker)
	}
	if filter.Arbitrator != "" {
		qry = qry.Where("arbitrator = ?", filter.Arbitrator)
	}
	if filter.Tag != "" {
		qry = qry.Where(`CAST(tags AS TEXT) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(models.QuoteTag(filter.Tag))+"%")
	}
	return qry
}

// AddWhitelisted allows addr to take the job
func (r *JobRepository) AddWhitelisted(ctx context.Context, jobID uint, addr string) error {
	result := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.JobWhitelist{JobID: jobID, Address: addr})
	if result.Error != nil {
		return fmt.Errorf("failed to whitelist worker: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("worker %s on job %d: %w", addr, jobID, ErrAlreadyExists)
	}
	return nil
}

// RemoveWhitelisted revokes addr from the job whitelist
func (r *JobRepository) RemoveWhitelisted(ctx context.Context, jobID uint, addr string) error {
	result := db.Conn(ctx, r.db).
		Where("job_id = ? AND address = ?", jobID, addr).
		Delete(&models.JobWhitelist{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove whitelisted worker: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("whitelisted worker not found: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

// IsWhitelisted reports whether addr is on the job whitelist
func (r *JobRepository) IsWhitelisted(ctx context.Context, jobID uint, addr string) (bool, error) {
	var count int64
	err := db.Conn(ctx, r.db).Model(&models.JobWhitelist{}).
		Where("job_id = ? AND address = ?", jobID, addr).
		Count(&count).Error
	return count > 0, err
}

// CountWhitelisted returns the size of the job whitelist
func (r *JobRepository) CountWhitelisted(ctx context.Context, jobID uint) (int64, error) {
	var count int64
	err := db.Conn(ctx, r.db).Model(&models.JobWhitelist{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return count, err
}

// ListWhitelisted returns the whitelisted addresses of a job in insertion order
func (r *JobRepository) ListWhitelisted(ctx context.Context, jobID uint) ([]string, error) {
	var addrs []string
	err := db.Conn(ctx, r.db).Model(&models.JobWhitelist{}).
		Where("job_id = ?", jobID).
		Order("created_at ASC").Order("address ASC").
		Pluck("address", &addrs).Error
	return addrs, err
}
