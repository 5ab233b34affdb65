package services

import (
	"context"
	"time"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// ReviewInput is an optional review left together with another operation
type ReviewInput struct {
	Rating uint8
	Text   string
}

// DeliverResult stores the worker's result on a taken job
func (r *JobRegistry) DeliverResult(ctx context.Context, worker string, jobID uint, result contentref.Ref) (*models.Job, error) {
	worker, err := normalize("caller", worker)
	if err != nil {
		return nil, err
	}
	if result.IsEmpty() {
		return nil, invalidArgument("result reference is required")
	}
	var job *models.Job
	err = r.mutate(ctx, "deliverResult", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.State != models.JobStateTaken {
			return invalidState("job %d is %s, results are delivered on taken jobs", jobID, job.State)
		}
		if worker != job.Worker {
			return unauthorized("only the assigned worker can deliver job %d", jobID)
		}
		if job.Disputed {
			return invalidState("job %d is disputed", jobID)
		}
		if job.HasResult() {
			return invalidState("job %d already has a result", jobID)
		}
		job.ResultRef = result
		return o.emit(models.JobEventDelivered, worker, models.DeliveredPayload{ResultRef: result})
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CloseJob accepts the work and pays the worker net of the marketplace fee.
// review, when set, is the creator's review of the worker.
func (r *JobRegistry) CloseJob(ctx context.Context, creator string, jobID uint, review *ReviewInput) (*models.Job, error) {
	creator, err := normalize("caller", creator)
	if err != nil {
		return nil, err
	}
	if review != nil {
		if err := validateRating(review.Rating); err != nil {
			return nil, err
		}
	}
	var job *models.Job
	var split CloseSplit
	err = r.mutate(ctx, "closeJob", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.State != models.JobStateTaken {
			return invalidState("job %d is %s, only taken jobs can be closed", jobID, job.State)
		}
		if creator != job.Creator {
			return unauthorized("only the creator can close job %d", jobID)
		}
		if job.Disputed {
			return invalidState("job %d is disputed", jobID)
		}

		split = SplitClose(job.Amount, o.r.cfg.FeeBps)
		err := o.r.bridge.Release(o.ctx, job.EscrowRef, verdict(
			escrow.Payout{To: job.Worker, Amount: split.Worker},
			escrow.Payout{To: o.r.cfg.Treasury, Amount: split.Fee},
		))
		if err != nil {
			return escrowFailure(err)
		}
		job.EscrowRef = ""
		job.Outcome = models.JobOutcomeCompleted
		o.setState(models.JobStateClosed)
		if err := o.emit(models.JobEventCompleted, creator, models.CompletedPayload{
			WorkerPayout: split.Worker,
			Fee:          split.Fee,
		}); err != nil {
			return err
		}
		if review != nil {
			return o.rate(job, creator, review.Rating, review.Text)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithFields("job completed", map[string]interface{}{
		"job_id":        jobID,
		"worker":        job.Worker,
		"worker_payout": split.Worker,
		"fee":           split.Fee,
	})
	return job, nil
}

// Refund closes a job and returns its payment to the creator.
//
// The creator may refund an open job; funds posted less than the collateral lock
// period ago stay held as collateral until WithdrawCollateral. On a taken job without
// a result the worker may back out at any time, and the creator may refund once the
// delivery deadline has passed.
func (r *JobRegistry) Refund(ctx context.Context, caller string, jobID uint) (*models.Job, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "refund", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		payload := models.RefundedPayload{By: caller, Amount: job.Amount}

		switch job.State {
		case models.JobStateOpen:
			if caller != job.Creator {
				return unauthorized("only the creator can refund open job %d", jobID)
			}
			if o.now.Before(job.OpenedAt.Add(o.r.cfg.CollateralLockPeriod)) {
				job.CollateralOwed = job.Amount
				payload.CollateralOwed = job.Amount
			} else if err := o.refundEscrow(job); err != nil {
				return err
			}

		case models.JobStateTaken:
			if job.Disputed {
				return invalidState("job %d is disputed", jobID)
			}
			if job.HasResult() {
				return invalidState("job %d already has a result", jobID)
			}
			switch caller {
			case job.Worker:
			case job.Creator:
				if o.now.Before(job.Deadline()) {
					return invalidState("job %d can be refunded after %s", jobID, job.Deadline().Format(time.RFC3339))
				}
			default:
				return unauthorized("%s cannot refund job %d", caller, jobID)
			}
			if err := o.refundEscrow(job); err != nil {
				return err
			}

		default:
			return invalidState("job %d is already closed", jobID)
		}

		job.Outcome = models.JobOutcomeRefunded
		o.setState(models.JobStateClosed)
		return o.emit(models.JobEventRefunded, caller, payload)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (o *op) refundEscrow(job *models.Job) error {
	if err := o.r.bridge.Refund(o.ctx, job.EscrowRef); err != nil {
		return escrowFailure(err)
	}
	job.EscrowRef = ""
	job.CollateralOwed = 0
	return nil
}

// ReopenJob returns a refunded job to Open with its worker cleared.
// Funds still held as collateral are reused, otherwise the amount is escrowed again.
func (r *JobRegistry) ReopenJob(ctx context.Context, creator string, jobID uint) (*models.Job, error) {
	creator, err := normalize("caller", creator)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "reopenJob", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.State != models.JobStateClosed || job.Outcome != models.JobOutcomeRefunded {
			return invalidState("job %d is %s, only refunded jobs can be reopened", jobID, job.Phase())
		}
		if creator != job.Creator {
			return unauthorized("only the creator can reopen job %d", jobID)
		}

		if job.EscrowRef == "" {
			ref, err := o.r.bridge.Escrow(o.ctx, escrow.Request{
				JobID:  job.ID,
				Token:  job.Token,
				Amount: job.Amount,
				Payer:  creator,
			})
			if err != nil {
				return escrowFailure(err)
			}
			job.EscrowRef = ref
		}
		job.CollateralOwed = 0
		job.Worker = ""
		job.ResultRef = nil
		job.Disputed = false
		job.TakenAt = nil
		job.Outcome = models.JobOutcomeNone
		job.OpenedAt = o.now
		o.setState(models.JobStateOpen)
		return o.emit(models.JobEventReopened, creator, nil)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// WithdrawCollateral returns collateral held after an early refund, once the lock period is over
func (r *JobRegistry) WithdrawCollateral(ctx context.Context, creator string, jobID uint) (*models.Job, error) {
	creator, err := normalize("caller", creator)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "withdrawCollateral", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if creator != job.Creator {
			return unauthorized("only the creator can withdraw collateral of job %d", jobID)
		}
		if job.CollateralOwed == 0 {
			return invalidState("job %d owes no collateral", jobID)
		}
		unlock := job.OpenedAt.Add(o.r.cfg.CollateralLockPeriod)
		if o.now.Before(unlock) {
			return invalidState("collateral of job %d is locked until %s", jobID, unlock.Format(time.RFC3339))
		}
		amount := job.CollateralOwed
		if err := o.refundEscrow(job); err != nil {
			return err
		}
		return o.emit(models.JobEventCollateralWithdrawn, creator, models.CollateralPayload{Amount: amount})
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
