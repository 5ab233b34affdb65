package models

import "time"

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is one party's rating of the other after a job closes.
// Each party may review a job at most once.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobID     uint      `json:"job_id" gorm:"not null;uniqueIndex:idx_reviews_job_reviewer,priority:1"`
	Reviewer  string    `json:"reviewer" gorm:"not null;uniqueIndex:idx_reviews_job_reviewer,priority:2"`
	Target    string    `json:"target" gorm:"not null;index"`
	Rating    uint8     `json:"rating" gorm:"not null"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}
