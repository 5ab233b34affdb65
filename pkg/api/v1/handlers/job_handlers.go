package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/services"
	"github.com/effectiveacceleration/marketplace/pkg/types"
)

// JobHandlers contains all job related RPC handlers
type JobHandlers struct {
	*APIHandler
}

func (h *JobHandlers) handle(c *fiber.Ctx, caller string, req RPCRequest) error {
	switch req.Method {
	case JobPost:
		return h.Post(c, caller, req)
	case JobGet:
		return h.Get(c, req)
	case JobList:
		return h.List(c, req)
	case JobUpdate:
		return h.Update(c, caller, req)
	case JobTake:
		return h.Take(c, caller, req)
	case JobApply:
		return h.Apply(c, caller, req)
	case JobPayStart:
		return h.PayStart(c, caller, req)
	case JobDeliver:
		return h.Deliver(c, caller, req)
	case JobClose:
		return h.Close(c, caller, req)
	case JobRefund:
		return withJob(c, req, func(id uint) (*models.Job, error) {
			return h.registry.Refund(c.Context(), caller, id)
		})
	case JobReopen:
		return withJob(c, req, func(id uint) (*models.Job, error) {
			return h.registry.ReopenJob(c.Context(), caller, id)
		})
	case JobDispute:
		return h.Dispute(c, caller, req)
	case JobArbitrate:
		return h.Arbitrate(c, caller, req)
	case JobRefuseArbitration:
		return withJob(c, req, func(id uint) (*models.Job, error) {
			return h.registry.RefuseArbitration(c.Context(), caller, id)
		})
	case JobWithdrawCollateral:
		return withJob(c, req, func(id uint) (*models.Job, error) {
			return h.registry.WithdrawCollateral(c.Context(), caller, id)
		})
	case JobWhitelistAdd, JobWhitelistRemove:
		return h.ChangeWhitelist(c, caller, req)
	case JobWhitelist:
		return h.Whitelist(c, req)
	case JobMessage:
		return h.Message(c, caller, req)
	case JobRate:
		return h.Rate(c, caller, req)
	case JobEvents:
		return h.Events(c, req)
	case JobRevision:
		return h.Revision(c, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownMethod, nil, req.ID)
	}
}

// withJob runs fn on the job named by the params and responds with the resulting job
func withJob(c *fiber.Ctx, req RPCRequest, fn func(id uint) (*models.Job, error)) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := fn(params.JobID)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Post handles posting a new job. The caller becomes its creator.
func (h *JobHandlers) Post(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobPostParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}

	job, err := h.registry.PostJob(c.Context(), caller, services.PostJobRequest{
		Title:              params.Title,
		Tags:               params.Tags,
		ContentRef:         params.ContentRef,
		Token:              params.Token,
		Amount:             params.Amount,
		MaxTime:            params.MaxTime,
		DeliveryMethod:     params.DeliveryMethod,
		MultipleApplicants: params.MultipleApplicants,
		Arbitrator:         params.Arbitrator,
		Whitelist:          params.Whitelist,
	})
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Get handles retrieving a job by id
func (h *JobHandlers) Get(c *fiber.Ctx, req RPCRequest) error {
	return withJob(c, req, func(id uint) (*models.Job, error) {
		return h.registry.GetJob(c.Context(), id)
	})
}

// List handles listing jobs with filters and pagination
func (h *JobHandlers) List(c *fiber.Ctx, req RPCRequest) error {
	var params JobListParams
	if len(req.Params) > 0 {
		var err error
		if params, err = parseParams[JobListParams](req); err != nil {
			return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
		}
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	listOpts := getPaginationOptions(page, params.Limit)
	jobs, total, err := h.registry.ListJobs(c.Context(), params.Filter(), listOpts)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}

	return respond(c, types.ListResponse[models.Job]{
		Rows: jobs,
		Pagination: types.PaginationResponse{
			Total:  total,
			Page:   page,
			Limit:  listOpts.Limit,
			Offset: listOpts.Offset,
		},
	}, req.ID)
}

// Update handles changing the title and tags of an open job
func (h *JobHandlers) Update(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobUpdateParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := h.registry.UpdateJob(c.Context(), caller, params.JobID, params.Title, params.Tags)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Take godoc
// @Summary Take a job
// @Description Assigns an open job to the caller. The signature covers the job revision and id.
// @Tags jobs,rpc
// @Accept json
// @Produce json
// @Param request body RPCRequest true "RPC request with JobTakeParams"
// @Success 200 {object} RPCResponse{data=models.Job} "Taken job"
// @Failure 409 {object} RPCResponse "Job already taken"
// @Failure 412 {object} RPCResponse "Signed revision is stale"
// @OperationId takeJob
func (h *JobHandlers) Take(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobTakeParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := h.registry.TakeJob(c.Context(), caller, params.JobID, params.Revision, params.Signature)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Apply handles applying for a multiple-applicant job
func (h *JobHandlers) Apply(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobTakeParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	if err := h.registry.ApplyForJob(c.Context(), caller, params.JobID, params.Revision, params.Signature); err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, nil, req.ID)
}

// PayStart handles starting a multiple-applicant job with one of its applicants
func (h *JobHandlers) PayStart(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobWorkerParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := h.registry.PayStartJob(c.Context(), caller, params.JobID, params.Worker)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Deliver handles the worker delivering a result
func (h *JobHandlers) Deliver(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobRefParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := h.registry.DeliverResult(c.Context(), caller, params.JobID, params.Ref)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Close handles the creator accepting the work, with an optional review of the worker
func (h *JobHandlers) Close(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobCloseParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	var review *services.ReviewInput
	if params.Rating != 0 {
		review = &services.ReviewInput{Rating: params.Rating, Text: params.Review}
	}
	job, err := h.registry.CloseJob(c.Context(), caller, params.JobID, review)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Dispute handles a party raising a dispute
func (h *JobHandlers) Dispute(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobRefParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := h.registry.Dispute(c.Context(), caller, params.JobID, params.Ref)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// Arbitrate handles the arbitrator settling a dispute
func (h *JobHandlers) Arbitrate(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobArbitrateParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	job, err := h.registry.Arbitrate(c.Context(), caller, params.JobID, services.ArbitrateRequest{
		CreatorShareBps: params.CreatorShareBps,
		WorkerShareBps:  params.WorkerShareBps,
		ReasonRef:       params.ReasonRef,
	})
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, job, req.ID)
}

// ChangeWhitelist handles adding and removing whitelisted workers
func (h *JobHandlers) ChangeWhitelist(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobWorkerParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	if req.Method == JobWhitelistAdd {
		err = h.registry.AddWhitelistedWorker(c.Context(), caller, params.JobID, params.Worker)
	} else {
		err = h.registry.RemoveWhitelistedWorker(c.Context(), caller, params.JobID, params.Worker)
	}
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return h.Whitelist(c, req)
}

// Whitelist handles listing the whitelisted workers of a job
func (h *JobHandlers) Whitelist(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	addrs, err := h.registry.Whitelist(c.Context(), params.JobID)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, types.WhitelistResponse{JobID: params.JobID, Addresses: addrs}, req.ID)
}

// Message handles posting a message on a job
func (h *JobHandlers) Message(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobMessageParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	if err := h.registry.PostMessage(c.Context(), caller, params.JobID, params.ContentRef, params.Recipient); err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, nil, req.ID)
}

// Rate handles a party reviewing the other party of a finished job
func (h *JobHandlers) Rate(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[JobRateParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	review, err := h.registry.Rate(c.Context(), caller, params.JobID, params.Rating, params.Review)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, review, req.ID)
}

// Events handles reading a range of a job's event log
func (h *JobHandlers) Events(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[JobEventsParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	resp, err := readEvents(c, h.registry, params.JobID, params.Start, params.End)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, resp, req.ID)
}

// Revision handles reading the current revision of a job
func (h *JobHandlers) Revision(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[JobIDParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	revision, err := h.registry.EventLog().Revision(c.Context(), params.JobID)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, types.RevisionResponse{JobID: params.JobID, Revision: revision}, req.ID)
}

// readEvents reads [start, end) of the log; end 0 means up to the current count
func readEvents(c *fiber.Ctx, registry *services.JobRegistry, jobID uint, start, end uint64) (types.EventsResponse, error) {
	log := registry.EventLog()
	count, err := log.Count(c.Context(), jobID)
	if err != nil {
		return types.EventsResponse{}, err
	}
	if end == 0 {
		end = count
	}
	events, err := log.EventsInRange(c.Context(), jobID, start, end)
	if err != nil {
		return types.EventsResponse{}, err
	}
	return types.EventsResponse{JobID: jobID, Count: count, Events: events}, nil
}
