package handlers

import (
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/services"
)

// APIHandler holds the services shared by every handler group
type APIHandler struct {
	registry      *services.JobRegistry
	ledger        *escrow.Ledger
	faucetEnabled bool
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(registry *services.JobRegistry, ledger *escrow.Ledger, faucetEnabled bool) *APIHandler {
	return &APIHandler{
		registry:      registry,
		ledger:        ledger,
		faucetEnabled: faucetEnabled,
	}
}

// NewRPCHandler wires every handler group of api behind auth
func NewRPCHandler(api *APIHandler, auth *Authenticator) *RPCHandler {
	return &RPCHandler{
		JobHandlers:        &JobHandlers{APIHandler: api},
		UserHandlers:       &UserHandlers{APIHandler: api},
		ArbitratorHandlers: &ArbitratorHandlers{APIHandler: api},
		BalanceHandlers:    &BalanceHandlers{APIHandler: api},
		Auth:               auth,
	}
}
