package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
	"github.com/effectiveacceleration/marketplace/pkg/types"
)

// BalanceHandlers contains the ledger balance RPC handlers
type BalanceHandlers struct {
	*APIHandler
}

func (h *BalanceHandlers) handle(c *fiber.Ctx, caller string, req RPCRequest) error {
	switch req.Method {
	case BalanceGet:
		return h.Get(c, req)
	case BalanceDeposit:
		return h.Deposit(c, caller, req)
	case BalanceWithdraw:
		return h.Withdraw(c, caller, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownMethod, nil, req.ID)
	}
}

// Get handles reading a balance
func (h *BalanceHandlers) Get(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[BalanceParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	owner, err := signing.NormalizeAddress(params.Owner)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidAddress, err.Error(), req.ID)
	}
	return h.respondBalance(c, owner, params.Token, req.ID)
}

// Deposit credits the caller. Only available when the faucet is enabled.
func (h *BalanceHandlers) Deposit(c *fiber.Ctx, caller string, req RPCRequest) error {
	if !h.faucetEnabled {
		return respondWithRPCError(c, fiber.StatusForbidden, ErrMsgFaucetDisabled, nil, req.ID)
	}
	params, err := parseParams[BalanceTransferParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	if err := h.ledger.Deposit(c.Context(), caller, params.Token, params.Amount); err != nil {
		if errors.Is(err, repos.ErrAmountOverflow) {
			return respondWithRPCError(c, fiber.StatusBadRequest, err.Error(), nil, req.ID)
		}
		return respondWithError(c, err, req.ID)
	}
	return h.respondBalance(c, caller, params.Token, req.ID)
}

// Withdraw debits the caller's free balance
func (h *BalanceHandlers) Withdraw(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[BalanceTransferParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	if err := h.ledger.Withdraw(c.Context(), caller, params.Token, params.Amount); err != nil {
		if errors.Is(err, repos.ErrInsufficientFunds) {
			return respondWithRPCError(c, fiber.StatusBadRequest, err.Error(), nil, req.ID)
		}
		return respondWithError(c, err, req.ID)
	}
	return h.respondBalance(c, caller, params.Token, req.ID)
}

func (h *BalanceHandlers) respondBalance(c *fiber.Ctx, owner, token, id string) error {
	amount, err := h.ledger.Balance(c.Context(), owner, token)
	if err != nil {
		return respondWithError(c, err, id)
	}
	return respond(c, types.BalanceResponse{Owner: owner, Token: token, Amount: amount}, id)
}
