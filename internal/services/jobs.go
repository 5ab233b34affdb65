package services

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// PostJobRequest holds the attributes of a new job
type PostJobRequest struct {
	Title              string
	Tags               []string
	ContentRef         contentref.Ref
	Token              string
	Amount             uint64
	MaxTime            uint32 // seconds
	DeliveryMethod     string
	MultipleApplicants bool
	Arbitrator         string
	Whitelist          []string
}

// PostJob opens a job and escrows its payment from the creator
func (r *JobRegistry) PostJob(ctx context.Context, creator string, req PostJobRequest) (*models.Job, error) {
	creator, err := normalize("creator", creator)
	if err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, invalidArgument("amount must be greater than zero")
	}
	if req.Amount > models.MaxAmount {
		return nil, invalidArgument("amount must not exceed %d", models.MaxAmount)
	}
	if req.MaxTime == 0 {
		return nil, invalidArgument("max time must be greater than zero")
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, invalidArgument("token is required")
	}
	if req.ContentRef.IsEmpty() {
		return nil, invalidArgument("content reference is required")
	}
	whitelist := make([]string, 0, len(req.Whitelist))
	for _, addr := range req.Whitelist {
		normalized, err := normalize("whitelisted worker", addr)
		if err != nil {
			return nil, err
		}
		whitelist = append(whitelist, normalized)
	}
	whitelist = lo.Uniq(whitelist)

	var job *models.Job
	err = r.mutate(ctx, "postJob", func(o *op) error {
		arbitrator, err := o.validateArbitrator(creator, req.Arbitrator)
		if err != nil {
			return err
		}
		if err := o.ensureUser(creator); err != nil {
			return err
		}

		job = &models.Job{
			Creator:            creator,
			Title:              req.Title,
			Tags:               models.Tags(req.Tags),
			ContentRef:         req.ContentRef,
			Token:              req.Token,
			Amount:             req.Amount,
			MaxTime:            req.MaxTime,
			DeliveryMethod:     req.DeliveryMethod,
			MultipleApplicants: req.MultipleApplicants,
			Arbitrator:         arbitrator,
			State:              models.JobStateOpen,
			OpenedAt:           o.now,
			StateChangedAt:     o.now,
		}
		if err := o.create(job); err != nil {
			return err
		}

		ref, err := o.r.bridge.Escrow(o.ctx, escrow.Request{
			JobID:  job.ID,
			Token:  job.Token,
			Amount: job.Amount,
			Payer:  creator,
		})
		if err != nil {
			return &Error{Kind: KindInvalidArgument, Msg: "amount cannot be escrowed", Err: escrowFailure(err)}
		}
		job.EscrowRef = ref

		if err := o.emit(models.JobEventCreated, creator, models.CreatedPayload{
			Title:              job.Title,
			Tags:               job.Tags,
			ContentRef:         job.ContentRef,
			Token:              job.Token,
			Amount:             job.Amount,
			MaxTime:            job.MaxTime,
			DeliveryMethod:     job.DeliveryMethod,
			MultipleApplicants: job.MultipleApplicants,
			Arbitrator:         job.Arbitrator,
		}); err != nil {
			return err
		}
		for _, addr := range whitelist {
			if err := o.r.jobs.AddWhitelisted(o.ctx, job.ID, addr); err != nil {
				return err
			}
			if err := o.emit(models.JobEventWhitelistedWorkerAdded, creator, models.WhitelistPayload{Address: addr}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithFields("job posted", map[string]interface{}{
		"job_id":  job.ID,
		"creator": creator,
		"amount":  job.Amount,
		"token":   job.Token,
	})
	return job, nil
}

func (o *op) validateArbitrator(creator, addr string) (string, error) {
	if addr == "" {
		return "", nil
	}
	arbitrator, err := normalize("arbitrator", addr)
	if err != nil {
		return "", err
	}
	if arbitrator == creator {
		return "", invalidArgument("creator cannot arbitrate own job")
	}
	if _, err := o.r.arbitrators.Get(o.ctx, arbitrator); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", invalidArgument("arbitrator %s is not registered", arbitrator)
		}
		return "", err
	}
	return arbitrator, nil
}

// UpdateJob changes the title and tags of an open job
func (r *JobRegistry) UpdateJob(ctx context.Context, creator string, jobID uint, title string, tags []string) (*models.Job, error) {
	creator, err := normalize("caller", creator)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "updateJob", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.State != models.JobStateOpen {
			return invalidState("job %d is %s, only open jobs can be updated", jobID, job.State)
		}
		if creator != job.Creator {
			return unauthorized("only the creator can update job %d", jobID)
		}
		job.Title = title
		job.Tags = models.Tags(tags)
		return o.emit(models.JobEventUpdated, creator, models.UpdatedPayload{Title: title, Tags: tags})
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// AddWhitelistedWorker allows worker to take an open job
func (r *JobRegistry) AddWhitelistedWorker(ctx context.Context, creator string, jobID uint, worker string) error {
	return r.changeWhitelist(ctx, creator, jobID, worker, true)
}

// RemoveWhitelistedWorker revokes worker from an open job's whitelist
func (r *JobRegistry) RemoveWhitelistedWorker(ctx context.Context, creator string, jobID uint, worker string) error {
	return r.changeWhitelist(ctx, creator, jobID, worker, false)
}

func (r *JobRegistry) changeWhitelist(ctx context.Context, creator string, jobID uint, worker string, add bool) error {
	creator, err := normalize("caller", creator)
	if err != nil {
		return err
	}
	worker, err = normalize("worker", worker)
	if err != nil {
		return err
	}
	name := "removeWhitelistedWorker"
	if add {
		name = "addWhitelistedWorker"
	}
	return r.mutate(ctx, name, func(o *op) error {
		job, err := o.load(jobID)
		if err != nil {
			return err
		}
		if job.State != models.JobStateOpen {
			return invalidState("job %d is %s, the whitelist can only change while open", jobID, job.State)
		}
		if creator != job.Creator {
			return unauthorized("only the creator can change the whitelist of job %d", jobID)
		}

		if add {
			if err := o.r.jobs.AddWhitelisted(o.ctx, jobID, worker); err != nil {
				if errors.Is(err, repos.ErrAlreadyExists) {
					return invalidArgument("%s is already whitelisted on job %d", worker, jobID)
				}
				return err
			}
			return o.emit(models.JobEventWhitelistedWorkerAdded, creator, models.WhitelistPayload{Address: worker})
		}

		if err := o.r.jobs.RemoveWhitelisted(o.ctx, jobID, worker); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidArgument("%s is not whitelisted on job %d", worker, jobID)
			}
			return err
		}
		return o.emit(models.JobEventWhitelistedWorkerRemoved, creator, models.WhitelistPayload{Address: worker})
	})
}

// PostMessage records a message on the job's event log.
// The creator may message anyone; the worker, and applicants of an open job, may message the creator.
func (r *JobRegistry) PostMessage(ctx context.Context, caller string, jobID uint, content contentref.Ref, recipient string) error {
	caller, err := normalize("caller", caller)
	if err != nil {
		return err
	}
	if content.IsEmpty() {
		return invalidArgument("message content is required")
	}
	if recipient != "" {
		if recipient, err = normalize("recipient", recipient); err != nil {
			return err
		}
	}
	return r.mutate(ctx, "postMessage", func(o *op) error {
		job, err := o.load(jobID)
		if err != nil {
			return err
		}
		payload := models.MessagePayload{ContentRef: content, Recipient: recipient}

		if caller == job.Creator {
			return o.emit(models.JobEventOwnerMessage, caller, payload)
		}
		if caller == job.Worker {
			payload.Recipient = job.Creator
			return o.emit(models.JobEventWorkerMessage, caller, payload)
		}
		if job.State == models.JobStateOpen {
			allowed, err := o.mayApply(job, caller)
			if err != nil {
				return err
			}
			if allowed {
				if err := o.ensureUser(caller); err != nil {
					return err
				}
				payload.Recipient = job.Creator
				return o.emit(models.JobEventWorkerMessage, caller, payload)
			}
		}
		return unauthorized("%s cannot message on job %d", caller, jobID)
	})
}

// mayApply reports whether caller passes the job's whitelist
func (o *op) mayApply(job *models.Job, caller string) (bool, error) {
	if caller == job.Creator {
		return false, nil
	}
	count, err := o.r.jobs.CountWhitelisted(o.ctx, job.ID)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}
	return o.r.jobs.IsWhitelisted(o.ctx, job.ID, caller)
}
