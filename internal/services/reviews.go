package services

import (
	"context"
	"errors"
	"strings"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
)

// Reputation thresholds: ratings at or above positiveRating count as positive,
// at or below negativeRating as negative.
const (
	positiveRating = 4
	negativeRating = 2
	// MaxReviewLength bounds the review text
	MaxReviewLength = 2000
)

// Rate records caller's review of the other party of a completed or arbitrated job
func (r *JobRegistry) Rate(ctx context.Context, caller string, jobID uint, rating uint8, text string) (*models.Review, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if len(text) > MaxReviewLength {
		return nil, invalidArgument("review text exceeds %d bytes", MaxReviewLength)
	}
	var review *models.Review
	err = r.mutate(ctx, "rate", func(o *op) error {
		job, err := o.load(jobID)
		if err != nil {
			return err
		}
		if job.State != models.JobStateClosed ||
			(job.Outcome != models.JobOutcomeCompleted && job.Outcome != models.JobOutcomeArbitrated) {
			return invalidState("job %d is %s, only completed or arbitrated jobs can be rated", jobID, job.Phase())
		}
		if !job.IsParty(caller) {
			return unauthorized("only the creator or the worker can rate job %d", jobID)
		}
		if err := o.rate(job, caller, rating, text); err != nil {
			return err
		}
		review = o.review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// rate stores a review by reviewer of the other party and updates their aggregates
func (o *op) rate(job *models.Job, reviewer string, rating uint8, text string) error {
	target := job.Worker
	if reviewer == job.Worker {
		target = job.Creator
	}
	review := &models.Review{
		JobID:     job.ID,
		Reviewer:  reviewer,
		Target:    target,
		Rating:    rating,
		Text:      strings.TrimSpace(text),
		Timestamp: o.now,
	}
	if err := o.r.reviews.Create(o.ctx, review); err != nil {
		if errors.Is(err, repos.ErrAlreadyExists) {
			return invalidState("%s already rated job %d", reviewer, job.ID)
		}
		return err
	}

	if err := o.ensureUser(target); err != nil {
		return err
	}
	user, err := o.r.users.Get(o.ctx, target)
	if err != nil {
		return err
	}
	user.RatingSum += uint64(rating)
	user.ReviewCount++
	switch {
	case rating >= positiveRating:
		user.ReputationUp++
	case rating <= negativeRating:
		user.ReputationDown++
	}
	if err := o.r.users.Save(o.ctx, user); err != nil {
		return err
	}

	o.review = review
	return o.emit(models.JobEventRated, reviewer, models.RatedPayload{Target: target, Rating: rating, Text: review.Text})
}

func validateRating(rating uint8) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return invalidArgument("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return nil
}
