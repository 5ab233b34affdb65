package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// Dispute freezes a taken job until its arbitrator settles or refuses it.
// A dispute is possible once a result is delivered or the delivery deadline has passed.
func (r *JobRegistry) Dispute(ctx context.Context, caller string, jobID uint, reason contentref.Ref) (*models.Job, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "dispute", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.State != models.JobStateTaken {
			return invalidState("job %d is %s, only taken jobs can be disputed", jobID, job.State)
		}
		if !job.IsParty(caller) {
			return unauthorized("only the creator or the worker can dispute job %d", jobID)
		}
		if job.Arbitrator == "" {
			return invalidState("job %d has no arbitrator", jobID)
		}
		if job.Disputed {
			return invalidState("job %d is already disputed", jobID)
		}
		if !job.HasResult() && o.now.Before(job.Deadline()) {
			return invalidState("job %d has no result and its deadline has not passed", jobID)
		}
		job.Disputed = true
		return o.emit(models.JobEventDisputed, caller, models.DisputedPayload{ReasonRef: reason})
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ArbitrateRequest is the arbitrator's verdict on a disputed job
type ArbitrateRequest struct {
	CreatorShareBps uint32
	WorkerShareBps  uint32
	ReasonRef       contentref.Ref
}

// Arbitrate settles a disputed job. The arbitrator fee comes off the top and the rest
// is split between creator and worker by the given shares, which must sum to 10000.
func (r *JobRegistry) Arbitrate(ctx context.Context, arbitrator string, jobID uint, req ArbitrateRequest) (*models.Job, error) {
	arbitrator, err := normalize("caller", arbitrator)
	if err != nil {
		return nil, err
	}
	if uint64(req.CreatorShareBps)+uint64(req.WorkerShareBps) != models.MaxBps {
		return nil, invalidArgument("creator and worker shares must sum to %d bps", models.MaxBps)
	}
	var job *models.Job
	var split ArbitrationSplit
	err = r.mutate(ctx, "arbitrate", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.Phase() != models.JobPhaseDisputePending {
			return invalidState("job %d is %s, not disputed", jobID, job.Phase())
		}
		if arbitrator != job.Arbitrator {
			return unauthorized("only the designated arbitrator can settle job %d", jobID)
		}
		arb, err := o.r.arbitrators.Get(o.ctx, arbitrator)
		if err != nil {
			return err
		}

		split = SplitArbitration(job.Amount, arb.FeeBps, req.WorkerShareBps)
		err = o.r.bridge.Release(o.ctx, job.EscrowRef, verdict(
			escrow.Payout{To: job.Creator, Amount: split.Creator},
			escrow.Payout{To: job.Worker, Amount: split.Worker},
			escrow.Payout{To: arbitrator, Amount: split.Arbitrator},
		))
		if err != nil {
			return escrowFailure(err)
		}

		arb.SettledCount++
		if err := o.r.arbitrators.Save(o.ctx, arb); err != nil {
			return err
		}
		job.EscrowRef = ""
		job.Outcome = models.JobOutcomeArbitrated
		o.setState(models.JobStateClosed)
		return o.emit(models.JobEventArbitrated, arbitrator, models.ArbitratedPayload{
			CreatorShareBps: req.CreatorShareBps,
			WorkerShareBps:  req.WorkerShareBps,
			CreatorAmount:   split.Creator,
			WorkerAmount:    split.Worker,
			ArbitratorFee:   split.Arbitrator,
			ReasonRef:       req.ReasonRef,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithFields("job arbitrated", map[string]interface{}{
		"job_id":         jobID,
		"arbitrator":     arbitrator,
		"creator_amount": split.Creator,
		"worker_amount":  split.Worker,
		"arbitrator_fee": split.Arbitrator,
	})
	return job, nil
}

// RefuseArbitration lets the arbitrator step down from a disputed job.
// The job loses its arbitrator and returns to its pre-dispute phase; the parties settle
// it themselves through CloseJob or Refund.
func (r *JobRegistry) RefuseArbitration(ctx context.Context, arbitrator string, jobID uint) (*models.Job, error) {
	arbitrator, err := normalize("caller", arbitrator)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "refuseArbitration", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if job.Phase() != models.JobPhaseDisputePending {
			return invalidState("job %d is %s, not disputed", jobID, job.Phase())
		}
		if arbitrator != job.Arbitrator {
			return unauthorized("only the designated arbitrator can refuse job %d", jobID)
		}

		arb, err := o.r.arbitrators.Get(o.ctx, arbitrator)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if arb != nil {
			arb.RefusedCount++
			if err := o.r.arbitrators.Save(o.ctx, arb); err != nil {
				return err
			}
		}

		job.Arbitrator = ""
		job.Disputed = false
		return o.emit(models.JobEventArbitrationRefused, arbitrator, models.ArbitrationRefusedPayload{Arbitrator: arbitrator})
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
