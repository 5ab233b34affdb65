package handlers

import (
	"strconv"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/pkg/types"
)

// ReadHandler serves the REST read endpoints
type ReadHandler struct {
	*APIHandler
}

// NewReadHandler creates a new ReadHandler instance
func NewReadHandler(api *APIHandler) *ReadHandler {
	return &ReadHandler{APIHandler: api}
}

func jobIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GetJob godoc
// @Summary Get a job
// @Description Returns the current state of a job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} models.Job
// @Failure 400 {object} RPCResponse "Invalid job id"
// @Failure 404 {object} RPCResponse "Job not found"
// @Router /jobs/{id} [get]
func (h *ReadHandler) GetJob(c *fiber.Ctx) error {
	id, ok := jobIDParam(c)
	if !ok {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidJobID, nil, "")
	}
	job, err := h.registry.GetJob(c.Context(), id)
	if err != nil {
		return respondWithError(c, err, "")
	}
	return c.JSON(job)
}

// GetJobEvents godoc
// @Summary Get job events
// @Description Returns the events of a job with start <= index < end, ordered by index
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Param start query int false "First index"
// @Param end query int false "Index after the last one; defaults to the event count"
// @Success 200 {object} types.EventsResponse
// @Failure 400 {object} RPCResponse "Invalid range"
// @Failure 404 {object} RPCResponse "Job not found"
// @Router /jobs/{id}/events [get]
func (h *ReadHandler) GetJobEvents(c *fiber.Ctx) error {
	id, ok := jobIDParam(c)
	if !ok {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidJobID, nil, "")
	}
	start, err := strconv.ParseUint(c.Query("start", "0"), 10, 64)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidRange, err.Error(), "")
	}
	end, err := strconv.ParseUint(c.Query("end", "0"), 10, 64)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidRange, err.Error(), "")
	}

	resp, err := readEvents(c, h.registry, id, start, end)
	if err != nil {
		return respondWithError(c, err, "")
	}
	return c.JSON(resp)
}

// GetUser godoc
// @Summary Get a user
// @Description Returns a user's profile and reputation
// @Tags users
// @Produce json
// @Param address path string true "User address"
// @Success 200 {object} models.User
// @Failure 400 {object} RPCResponse "Invalid address"
// @Failure 404 {object} RPCResponse "User not found"
// @Router /users/{address} [get]
func (h *ReadHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.registry.GetUser(c.Context(), c.Params("address"))
	if err != nil {
		return respondWithError(c, err, "")
	}
	return c.JSON(user)
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Router /health [get]
func (h *ReadHandler) Health(c *fiber.Ctx) error {
	return c.JSON(types.HealthResponse{Status: "healthy"})
}
