package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// JobIDParams identifies a job
type JobIDParams struct {
	JobID uint `json:"job_id"`
}

// Validate validates the job id
func (p JobIDParams) Validate() error {
	if p.JobID == 0 {
		return errors.New(strings.ToLower(ErrMsgJobIDRequired))
	}
	return nil
}

// JobPostParams defines the parameters for posting a job
type JobPostParams struct {
	Title              string         `json:"title"`
	Tags               []string       `json:"tags,omitempty"`
	ContentRef         contentref.Ref `json:"content_ref"`
	Token              string         `json:"token"`
	Amount             uint64         `json:"amount"`
	MaxTime            uint32         `json:"max_time"`
	DeliveryMethod     string         `json:"delivery_method"`
	MultipleApplicants bool           `json:"multiple_applicants,omitempty"`
	Arbitrator         string         `json:"arbitrator,omitempty"`
	Whitelist          []string       `json:"whitelist,omitempty"`
}

// Validate validates the parameters for posting a job
func (p JobPostParams) Validate() error {
	if p.Amount == 0 {
		return errors.New(strings.ToLower(ErrMsgAmountRequired))
	}
	if strings.TrimSpace(p.Token) == "" {
		return errors.New(strings.ToLower(ErrMsgTokenRequired))
	}
	return nil
}

// JobListParams defines the parameters for listing jobs
type JobListParams struct {
	State      string `json:"state,omitempty"`
	Creator    string `json:"creator,omitempty"`
	Worker     string `json:"worker,omitempty"`
	Arbitrator string `json:"arbitrator,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// Validate validates the parameters for listing jobs
func (p JobListParams) Validate() error {
	if p.Page < 0 {
		return errors.New(strings.ToLower(ErrMsgNegativePagination))
	}
	if p.State != "" {
		if _, err := models.ParseJobState(p.State); err != nil {
			return err
		}
	}
	return nil
}

// Filter converts the params to a job filter
func (p JobListParams) Filter() models.JobFilter {
	filter := models.JobFilter{
		Creator:    p.Creator,
		Worker:     p.Worker,
		Arbitrator: p.Arbitrator,
		Tag:        p.Tag,
	}
	if p.State != "" {
		if state, err := models.ParseJobState(p.State); err == nil {
			filter.State = &state
		}
	}
	return filter
}

// JobUpdateParams defines the parameters for updating an open job
type JobUpdateParams struct {
	JobID uint     `json:"job_id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// Validate validates the parameters for updating a job
func (p JobUpdateParams) Validate() error {
	return JobIDParams{JobID: p.JobID}.Validate()
}

// JobTakeParams defines the parameters for taking or applying for a job
type JobTakeParams struct {
	JobID     uint            `json:"job_id"`
	Revision  uint64          `json:"revision"`
	Signature models.HexBytes `json:"signature"`
}

// Validate validates the parameters for taking a job
func (p JobTakeParams) Validate() error {
	if err := (JobIDParams{JobID: p.JobID}).Validate(); err != nil {
		return err
	}
	if len(p.Signature) == 0 {
		return errors.New(strings.ToLower(ErrMsgSignatureParamNeeded))
	}
	return nil
}

// JobWorkerParams names a worker of a job, for payStart and the whitelist methods
type JobWorkerParams struct {
	JobID  uint   `json:"job_id"`
	Worker string `json:"worker"`
}

// Validate validates the job id and worker address
func (p JobWorkerParams) Validate() error {
	if err := (JobIDParams{JobID: p.JobID}).Validate(); err != nil {
		return err
	}
	if p.Worker == "" {
		return errors.New(strings.ToLower(ErrMsgAddressRequired))
	}
	return nil
}

// JobRefParams carries a content reference for a job, for deliver and dispute
type JobRefParams struct {
	JobID uint           `json:"job_id"`
	Ref   contentref.Ref `json:"ref,omitempty"`
}

// Validate validates the job id
func (p JobRefParams) Validate() error {
	return JobIDParams{JobID: p.JobID}.Validate()
}

// JobCloseParams defines the parameters for closing a job
type JobCloseParams struct {
	JobID  uint   `json:"job_id"`
	Rating uint8  `json:"rating,omitempty"`
	Review string `json:"review,omitempty"`
}

// Validate validates the parameters for closing a job
func (p JobCloseParams) Validate() error {
	return JobIDParams{JobID: p.JobID}.Validate()
}

// JobArbitrateParams defines the arbitrator's verdict
type JobArbitrateParams struct {
	JobID           uint           `json:"job_id"`
	CreatorShareBps uint32         `json:"creator_share_bps"`
	WorkerShareBps  uint32         `json:"worker_share_bps"`
	ReasonRef       contentref.Ref `json:"reason_ref,omitempty"`
}

// Validate validates the parameters for arbitrating a job
func (p JobArbitrateParams) Validate() error {
	if err := (JobIDParams{JobID: p.JobID}).Validate(); err != nil {
		return err
	}
	if uint64(p.CreatorShareBps)+uint64(p.WorkerShareBps) != models.MaxBps {
		return fmt.Errorf("shares must sum to %d bps", models.MaxBps)
	}
	return nil
}

// JobMessageParams defines the parameters for posting a message on a job
type JobMessageParams struct {
	JobID      uint           `json:"job_id"`
	ContentRef contentref.Ref `json:"content_ref"`
	Recipient  string         `json:"recipient,omitempty"`
}

// Validate validates the parameters for posting a message
func (p JobMessageParams) Validate() error {
	return JobIDParams{JobID: p.JobID}.Validate()
}

// JobRateParams defines the parameters for rating the other party of a job
type JobRateParams struct {
	JobID  uint   `json:"job_id"`
	Rating uint8  `json:"rating"`
	Review string `json:"review,omitempty"`
}

// Validate validates the parameters for rating
func (p JobRateParams) Validate() error {
	if err := (JobIDParams{JobID: p.JobID}).Validate(); err != nil {
		return err
	}
	if p.Rating < models.MinRating || p.Rating > models.MaxRating {
		return fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return nil
}

// JobEventsParams selects a range of a job's event log
type JobEventsParams struct {
	JobID uint   `json:"job_id"`
	Start uint64 `json:"start,omitempty"`
	// End is exclusive; zero reads to the end of the log
	End uint64 `json:"end,omitempty"`
}

// Validate validates the event range
func (p JobEventsParams) Validate() error {
	if err := (JobIDParams{JobID: p.JobID}).Validate(); err != nil {
		return err
	}
	if p.End != 0 && p.End < p.Start {
		return errors.New(strings.ToLower(ErrMsgInvalidRange))
	}
	return nil
}
