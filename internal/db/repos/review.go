package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// ReviewRepository stores job reviews
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository instance
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a review. A reviewer can review a job once.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := db.Conn(ctx, r.db).Create(review).Error; err != nil {
		if db.IsDuplicateKeyError(err) {
			return fmt.Errorf("review of job %d by %s: %w", review.JobID, review.Reviewer, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Exists reports whether reviewer already reviewed the job
func (r *ReviewRepository) Exists(ctx context.Context, jobID uint, reviewer string) (bool, error) {
	var count int64
	err := db.Conn(ctx, r.db).Model(&models.Review{}).
		Where("job_id = ? AND reviewer = ?", jobID, reviewer).
		Count(&count).Error
	return count > 0, err
}

// ListByTarget returns the reviews received by target, newest first
func (r *ReviewRepository) ListByTarget(ctx context.Context, target string, opts *models.ListOptions) ([]models.Review, error) {
	var reviews []models.Review
	err := db.Conn(ctx, r.db).
		Where("target = ?", target).
		Order("id DESC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&reviews).Error
	return reviews, err
}

// ListByJob returns the reviews left on a job
func (r *ReviewRepository) ListByJob(ctx context.Context, jobID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := db.Conn(ctx, r.db).
		Where("job_id = ?", jobID).
		Order("id ASC").
		Find(&reviews).Error
	return reviews, err
}
