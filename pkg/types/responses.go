// Package types contains the request and response bodies shared by the API server and client.
package types

import "github.com/effectiveacceleration/marketplace/internal/db/models"

// ListResponse is a page of rows
type ListResponse[T any] struct {
	Rows       []T                `json:"rows"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse describes the page returned in a ListResponse
type PaginationResponse struct {
	Total  int64 `json:"total"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// EventsResponse is a slice of a job's event log
type EventsResponse struct {
	JobID uint `json:"job_id"`
	// Count is the total number of events of the job, not the length of Events
	Count  uint64            `json:"count"`
	Events []models.JobEvent `json:"events"`
}

// RevisionResponse carries the revision a worker signs to take or apply for a job
type RevisionResponse struct {
	JobID    uint   `json:"job_id"`
	Revision uint64 `json:"revision"`
}

// WhitelistResponse lists the addresses allowed to take a job
type WhitelistResponse struct {
	JobID     uint     `json:"job_id"`
	Addresses []string `json:"addresses"`
}

// BalanceResponse is an account balance in one token
type BalanceResponse struct {
	Owner  string `json:"owner"`
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
