package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

const (
	// JobCreatedAtField is the database field name for the job creation timestamp
	JobCreatedAtField = "created_at"
	// JobRevisionField is the database field name for the job revision
	JobRevisionField = "revision"
)

// JobState is the coarse lifecycle state of a job
type JobState int

// Job state constants
const (
	// JobStateOpen means the job accepts a worker
	JobStateOpen JobState = iota
	// JobStateTaken means a worker is assigned and escrow is locked
	JobStateTaken
	// JobStateClosed means the job has a final outcome
	JobStateClosed
)

var jobStateNames = []string{
	"open",
	"taken",
	"closed",
}

// ParseJobState converts a string representation of a job state to JobState type
func ParseJobState(str string) (JobState, error) {
	for i, state := range jobStateNames {
		if state == str {
			return JobState(i), nil
		}
	}
	return JobState(0), fmt.Errorf("invalid job state: %s", str)
}

func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStateNames) {
		return "unknown"
	}
	return jobStateNames[s]
}

// MarshalJSON implements the json.Marshaler interface for JobState
func (s JobState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobState
func (s *JobState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	state, err := ParseJobState(str)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// JobOutcome records how a closed job was settled
type JobOutcome int

// Job outcome constants
const (
	// JobOutcomeNone is used while the job is not closed
	JobOutcomeNone JobOutcome = iota
	// JobOutcomeCompleted means the creator accepted the result
	JobOutcomeCompleted
	// JobOutcomeRefunded means the funds went back to the creator
	JobOutcomeRefunded
	// JobOutcomeArbitrated means the arbitrator split the funds
	JobOutcomeArbitrated
)

var jobOutcomeNames = []string{
	"none",
	"completed",
	"refunded",
	"arbitrated",
}

func (o JobOutcome) String() string {
	if int(o) < 0 || int(o) >= len(jobOutcomeNames) {
		return "unknown"
	}
	return jobOutcomeNames[o]
}

// ParseJobOutcome converts a string representation of a job outcome to JobOutcome type
func ParseJobOutcome(str string) (JobOutcome, error) {
	for i, outcome := range jobOutcomeNames {
		if outcome == str {
			return JobOutcome(i), nil
		}
	}
	return JobOutcome(0), fmt.Errorf("invalid job outcome: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for JobOutcome
func (o JobOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobOutcome
func (o *JobOutcome) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	outcome, err := ParseJobOutcome(str)
	if err != nil {
		return err
	}
	*o = outcome
	return nil
}

// JobPhase is the fine grained lifecycle position derived from the job fields
type JobPhase string

// Job phases
const (
	JobPhaseOpen            JobPhase = "open"
	JobPhaseDeliveryPending JobPhase = "delivery-pending"
	JobPhaseResultDelivered JobPhase = "result-delivered"
	JobPhaseDisputePending  JobPhase = "dispute-pending"
	JobPhaseCompleted       JobPhase = "completed"
	JobPhaseRefunded        JobPhase = "refunded"
	JobPhaseArbitrated      JobPhase = "arbitrated"
)

// Tags is a list of free form labels stored as JSON
type Tags []string

// Value implements the driver.Valuer interface
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return encodeJSON([]string(t))
}

// QuoteTag returns tag as it appears inside the stored JSON array
func QuoteTag(tag string) string {
	quoted, _ := encodeJSON(tag)
	return quoted
}

// encodeJSON marshals v without HTML escaping, matching how postgres renders jsonb text
func encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Scan implements the sql.Scanner interface
func (t *Tags) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal tags value: %v", value)
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return err
	}
	*t = tags
	return nil
}

// Job is a unit of paid work posted by a creator
type Job struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	CreatedAt          time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Creator            string         `json:"creator" gorm:"not null;index"`
	Title              string         `json:"title"`
	Tags               Tags           `json:"tags" gorm:"type:jsonb"`
	ContentRef         contentref.Ref `json:"content_ref" gorm:"not null"`
	Token              string         `json:"token" gorm:"not null"`
	Amount             uint64         `json:"amount" gorm:"not null"`
	MaxTime            uint32         `json:"max_time" gorm:"not null"` // seconds
	DeliveryMethod     string         `json:"delivery_method"`
	MultipleApplicants bool           `json:"multiple_applicants" gorm:"not null;default:false"`
	Arbitrator         string         `json:"arbitrator,omitempty" gorm:"index"`
	State              JobState       `json:"state" gorm:"not null;index"`
	Worker             string         `json:"worker,omitempty" gorm:"index"`
	CollateralOwed     uint64         `json:"collateral_owed"`
	ResultRef          contentref.Ref `json:"result_ref,omitempty"`
	Revision           uint64         `json:"revision" gorm:"not null;default:0"` // events recorded after Created
	Disputed           bool           `json:"disputed" gorm:"not null;default:false"`
	Outcome            JobOutcome     `json:"outcome" gorm:"not null;default:0"`
	EscrowRef          string         `json:"escrow_ref,omitempty"`
	OpenedAt           time.Time      `json:"opened_at"`
	TakenAt            *time.Time     `json:"taken_at,omitempty"`
	StateChangedAt     time.Time      `json:"state_changed_at"`
}

// HasResult reports whether the worker delivered a result
func (j *Job) HasResult() bool {
	return !j.ResultRef.IsEmpty()
}

// IsParty reports whether addr is the creator or the assigned worker
func (j *Job) IsParty(addr string) bool {
	return addr != "" && (addr == j.Creator || addr == j.Worker)
}

// Deadline returns the delivery deadline of a taken job
func (j *Job) Deadline() time.Time {
	if j.TakenAt == nil {
		return time.Time{}
	}
	return j.TakenAt.Add(time.Duration(j.MaxTime) * time.Second)
}

// Phase derives the fine grained lifecycle position
func (j *Job) Phase() JobPhase {
	switch j.State {
	case JobStateOpen:
		return JobPhaseOpen
	case JobStateTaken:
		switch {
		case j.Disputed:
			return JobPhaseDisputePending
		case j.HasResult():
			return JobPhaseResultDelivered
		default:
			return JobPhaseDeliveryPending
		}
	default:
		switch j.Outcome {
		case JobOutcomeCompleted:
			return JobPhaseCompleted
		case JobOutcomeArbitrated:
			return JobPhaseArbitrated
		default:
			return JobPhaseRefunded
		}
	}
}

// JobWhitelist marks an address as allowed to take a job
type JobWhitelist struct {
	JobID     uint      `json:"job_id" gorm:"primaryKey;autoIncrement:false"`
	Address   string    `json:"address" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the whitelist table name
func (JobWhitelist) TableName() string {
	return "job_whitelist"
}
