package models

const (
	// DefaultLimit is the max number of rows that are retrieved from the DB per listing API call
	DefaultLimit = 50
	// MaxLimit caps the page size a caller may request
	MaxLimit = 500
)

// ListOptions represents pagination options for list operations
type ListOptions struct {
	Limit  int `json:"limit"`  // Number of items to return
	Offset int `json:"offset"` // Number of items to skip
}

// Normalize applies the default and maximum page sizes
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// JobFilter narrows job listings. Empty fields match everything.
type JobFilter struct {
	State      *JobState `json:"state,omitempty"`
	Creator    string    `json:"creator,omitempty"`
	Worker     string    `json:"worker,omitempty"`
	Arbitrator string    `json:"arbitrator,omitempty"`
	Tag        string    `json:"tag,omitempty"`
}
