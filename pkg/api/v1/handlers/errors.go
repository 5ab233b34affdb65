// Package handlers provides HTTP request handling
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/internal/services"
)

// Common error messages
const (
	ErrMsgInvalidParams        = "Invalid parameters"
	ErrMsgInvalidReqFormat     = "Invalid request format"
	ErrMsgMethodRequired       = "Method is required"
	ErrMsgUnknownMethod        = "Unknown method"
	ErrMsgHandlersNotSet       = "Handlers not configured"
	ErrMsgInternal             = "Internal server error"
	ErrMsgSignatureRequired    = "Request signature is required"
	ErrMsgInvalidSignature     = "Invalid request signature"
	ErrMsgRequestExpired       = "Request timestamp outside the accepted window"
	ErrMsgRequestReplayed      = "Request was already submitted"
	ErrMsgFaucetDisabled       = "Deposits are disabled"
	ErrMsgInvalidJobID         = "Invalid job id"
	ErrMsgInvalidAddress       = "Invalid address"
	ErrMsgInvalidRange         = "Invalid event range"
	ErrMsgNegativePagination   = "Page must be a positive number from 1"
	ErrMsgAmountRequired       = "Amount must be greater than zero"
	ErrMsgTokenRequired        = "Token is required"
	ErrMsgJobIDRequired        = "Job id is required"
	ErrMsgAddressRequired      = "Address is required"
	ErrMsgSignatureParamNeeded = "Signature is required"
)

// statusForKind maps registry error kinds to HTTP status codes
var statusForKind = map[services.ErrorKind]int{
	services.KindInvalidArgument:   fiber.StatusBadRequest,
	services.KindUnauthorized:      fiber.StatusForbidden,
	services.KindInvalidState:      fiber.StatusConflict,
	services.KindAlreadyTaken:      fiber.StatusConflict,
	services.KindAlreadyRegistered: fiber.StatusConflict,
	services.KindStaleSignature:    fiber.StatusPreconditionFailed,
	services.KindEscrowFailure:     fiber.StatusBadGateway,
	services.KindNotFound:          fiber.StatusNotFound,
}

// StatusForError returns the HTTP status and error kind reported for err
func StatusForError(err error) (int, services.ErrorKind) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := statusForKind[svcErr.Kind]; ok {
			return status, svcErr.Kind
		}
	}
	return fiber.StatusInternalServerError, ""
}

// respondWithError writes err as an RPC error. Unclassified errors are logged and hidden.
func respondWithError(c *fiber.Ctx, err error, id string) error {
	status, kind := StatusForError(err)
	if kind == "" {
		logger.ErrorWithFields("request failed", map[string]interface{}{
			"path":  c.Path(),
			"error": err.Error(),
		})
		return respondWithRPCError(c, status, ErrMsgInternal, nil, id)
	}
	return c.Status(status).JSON(RPCResponse{
		Error: &RPCError{
			Code:    status,
			Kind:    string(kind),
			Message: err.Error(),
		},
		Success: false,
		ID:      id,
	})
}
