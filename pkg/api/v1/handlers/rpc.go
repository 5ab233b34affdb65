// Package handlers provides HTTP request handling
package handlers

import (
	"encoding/json"
	"errors"

	fiber "github.com/gofiber/fiber/v2"
)

// RPCRequest defines the structure for RPC-style API requests
type RPCRequest struct {
	// Method is the operation to perform (e.g., "job.post", "user.get")
	Method string `json:"method"`

	// Params contains the operation parameters
	Params json.RawMessage `json:"params,omitempty" swaggertype:"object"`

	// ID is an optional request identifier that will be echoed back in the response
	ID string `json:"id,omitempty"`

	// Timestamp is the unix time the request was signed at. Required for signed methods.
	Timestamp int64 `json:"timestamp,omitempty"`

	// Nonce makes otherwise identical signed requests distinct. A signed body is accepted once.
	Nonce string `json:"nonce,omitempty"`
}

// RPCResponse defines the structure for RPC-style API responses
type RPCResponse struct {
	// Data contains the operation result
	Data interface{} `json:"data,omitempty"`

	// Error contains error information if the operation failed
	Error *RPCError `json:"error,omitempty"`

	// ID echoes back the request ID if provided
	ID string `json:"id,omitempty"`

	// Success indicates if the operation was successful
	Success bool `json:"success"`
}

// RPCError defines the structure for RPC errors
type RPCError struct {
	// Code is the HTTP status of the failure
	Code int `json:"code"`

	// Kind is the registry error kind, e.g. "already_taken"
	Kind string `json:"kind,omitempty"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Data contains additional error details (optional)
	Data interface{} `json:"data,omitempty"`
}

// RPCHandler handles RPC-style API requests
type RPCHandler struct {
	JobHandlers        *JobHandlers
	UserHandlers       *UserHandlers
	ArbitratorHandlers *ArbitratorHandlers
	BalanceHandlers    *BalanceHandlers
	Auth               *Authenticator
}

// HandleRPC godoc
// @Summary RPC endpoint
// @Description Single entry point for every marketplace operation. Mutating methods need an X-Signature header.
// @Tags rpc
// @Accept json
// @Produce json
// @Param X-Signature header string false "hex signature over the request body"
// @Param request body RPCRequest true "RPC request"
// @Success 200 {object} RPCResponse
// @Failure 400 {object} RPCResponse "Invalid parameters"
// @Failure 401 {object} RPCResponse "Missing or invalid signature"
// @Failure 403 {object} RPCResponse "Caller not allowed"
// @Failure 404 {object} RPCResponse "Unknown job, user or arbitrator"
// @Failure 409 {object} RPCResponse "Job in the wrong state"
// @Failure 412 {object} RPCResponse "Stale signature"
// @Router / [post]
func (h *RPCHandler) HandleRPC(c *fiber.Ctx) error {
	var req RPCRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidReqFormat, err.Error(), req.ID)
	}

	// Check if method is provided
	if req.Method == "" {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgMethodRequired, nil, req.ID)
	}

	caller := ""
	if !IsReadMethod(req.Method) {
		if h.Auth == nil {
			return respondWithRPCError(c, fiber.StatusInternalServerError, ErrMsgHandlersNotSet, nil, req.ID)
		}
		var err error
		if caller, err = h.Auth.Authenticate(c, req); err != nil {
			if errors.Is(err, errAuthUnavailable) {
				return respondWithError(c, err, req.ID)
			}
			return respondWithRPCError(c, fiber.StatusUnauthorized, err.Error(), nil, req.ID)
		}
	}

	// Route to appropriate handler based on method prefix
	switch {
	case IsJobMethod(req.Method):
		if h.JobHandlers == nil {
			break
		}
		return h.JobHandlers.handle(c, caller, req)
	case IsUserMethod(req.Method):
		if h.UserHandlers == nil {
			break
		}
		return h.UserHandlers.handle(c, caller, req)
	case IsArbitratorMethod(req.Method):
		if h.ArbitratorHandlers == nil {
			break
		}
		return h.ArbitratorHandlers.handle(c, caller, req)
	case IsBalanceMethod(req.Method):
		if h.BalanceHandlers == nil {
			break
		}
		return h.BalanceHandlers.handle(c, caller, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownMethod, nil, req.ID)
	}
	return respondWithRPCError(c, fiber.StatusInternalServerError, ErrMsgHandlersNotSet, nil, req.ID)
}

// validator is implemented by every params struct
type validator interface {
	Validate() error
}

// parseParams decodes and validates the RPC parameters
func parseParams[T validator](req RPCRequest) (T, error) {
	var params T
	if len(req.Params) == 0 {
		return params, errors.New("params are required")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return params, err
	}
	return params, params.Validate()
}

// respond writes a successful RPC response
func respond(c *fiber.Ctx, data interface{}, id string) error {
	return c.JSON(RPCResponse{
		Data:    data,
		Success: true,
		ID:      id,
	})
}

// Helper to create a standardized RPC error response
func respondWithRPCError(c *fiber.Ctx, httpCode int, message string, data interface{}, id string) error {
	return c.Status(httpCode).JSON(RPCResponse{
		Error: &RPCError{
			Code:    httpCode,
			Message: message,
			Data:    data,
		},
		Success: false,
		ID:      id,
	})
}
