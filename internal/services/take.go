package services

import (
	"context"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// TakeJob assigns an open single-applicant job to caller, first come first served.
//
// signature must be the caller's signature over signing.TakeDigest(revision, jobID),
// and revision must still equal the job's revision, the number of events recorded after Created.
func (r *JobRegistry) TakeJob(ctx context.Context, caller string, jobID uint, revision uint64, signature []byte) (*models.Job, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "takeJob", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if err := requireOpen(job); err != nil {
			return err
		}
		if job.MultipleApplicants {
			return invalidState("job %d accepts applications, apply instead", jobID)
		}
		if err := o.checkApplicant(job, caller, revision, signature); err != nil {
			return err
		}
		if err := o.ensureUser(caller); err != nil {
			return err
		}

		taken := o.now
		job.Worker = caller
		job.TakenAt = &taken
		o.setState(models.JobStateTaken)
		return o.emit(models.JobEventTaken, caller, models.SignaturePayload{Revision: revision, Signature: signature})
	})
	if err != nil {
		return nil, err
	}

	logger.InfoWithFields("job taken", map[string]interface{}{
		"job_id": jobID,
		"worker": caller,
	})
	return job, nil
}

// ApplyForJob records caller as an applicant of an open multiple-applicant job
func (r *JobRegistry) ApplyForJob(ctx context.Context, caller string, jobID uint, revision uint64, signature []byte) error {
	caller, err := normalize("caller", caller)
	if err != nil {
		return err
	}
	return r.mutate(ctx, "applyForJob", func(o *op) error {
		job, err := o.load(jobID)
		if err != nil {
			return err
		}
		if err := requireOpen(job); err != nil {
			return err
		}
		if !job.MultipleApplicants {
			return invalidState("job %d does not take applications, take it instead", jobID)
		}
		applied, err := o.r.events.Exists(o.ctx, jobID, models.JobEventSigned, caller)
		if err != nil {
			return err
		}
		if applied {
			return invalidArgument("%s already applied to job %d", caller, jobID)
		}
		if err := o.checkApplicant(job, caller, revision, signature); err != nil {
			return err
		}
		if err := o.ensureUser(caller); err != nil {
			return err
		}
		return o.emit(models.JobEventSigned, caller, models.SignaturePayload{Revision: revision, Signature: signature})
	})
}

// PayStartJob assigns a multiple-applicant job to one of its applicants
func (r *JobRegistry) PayStartJob(ctx context.Context, creator string, jobID uint, worker string) (*models.Job, error) {
	creator, err := normalize("caller", creator)
	if err != nil {
		return nil, err
	}
	worker, err = normalize("worker", worker)
	if err != nil {
		return nil, err
	}
	var job *models.Job
	err = r.mutate(ctx, "payStartJob", func(o *op) error {
		if job, err = o.load(jobID); err != nil {
			return err
		}
		if err := requireOpen(job); err != nil {
			return err
		}
		if creator != job.Creator {
			return unauthorized("only the creator can start job %d", jobID)
		}
		if !job.MultipleApplicants {
			return invalidState("job %d does not take applications", jobID)
		}
		applied, err := o.r.events.Exists(o.ctx, jobID, models.JobEventSigned, worker)
		if err != nil {
			return err
		}
		if !applied {
			return invalidArgument("%s has not applied to job %d", worker, jobID)
		}
		allowed, err := o.mayApply(job, worker)
		if err != nil {
			return err
		}
		if !allowed {
			return invalidArgument("%s is not whitelisted on job %d", worker, jobID)
		}

		taken := o.now
		job.Worker = worker
		job.TakenAt = &taken
		o.setState(models.JobStateTaken)
		return o.emit(models.JobEventPaid, creator, models.WorkerPayload{Worker: worker})
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// requireOpen fails with AlreadyTaken for taken jobs and InvalidState for closed ones
func requireOpen(job *models.Job) error {
	switch job.State {
	case models.JobStateOpen:
		return nil
	case models.JobStateTaken:
		return &Error{Kind: KindAlreadyTaken, Msg: "job already taken"}
	default:
		return invalidState("job %d is %s", job.ID, job.State)
	}
}

// checkApplicant verifies role, whitelist, signature and revision of a take or apply.
// It runs under the registry lock, so the revision it reads cannot move before the write.
func (o *op) checkApplicant(job *models.Job, caller string, revision uint64, signature []byte) error {
	if caller == job.Creator {
		return unauthorized("creator cannot take own job %d", job.ID)
	}
	allowed, err := o.mayApply(job, caller)
	if err != nil {
		return err
	}
	if !allowed {
		return unauthorized("%s is not whitelisted on job %d", caller, job.ID)
	}

	signer, err := signing.Recover(signing.TakeDigest(revision, uint64(job.ID)), signature)
	if err != nil || signer != caller {
		return unauthorized("signature does not belong to %s", caller)
	}

	count, err := o.r.events.Count(o.ctx, job.ID)
	if err != nil {
		return err
	}
	if revision != revisionAt(count) {
		return &Error{Kind: KindStaleSignature, Msg: "signed revision is stale"}
	}
	return nil
}
