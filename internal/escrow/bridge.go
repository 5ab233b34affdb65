// Package escrow moves job funds between participants.
//
// The registry only talks to a Bridge. Ledger is the database backed implementation;
// another Bridge could forward the same calls to an external settlement system.
package escrow

import (
	"context"
	"errors"
)

var (
	// ErrEscrowFailed is returned when funds could not be moved
	ErrEscrowFailed = errors.New("escrow failure")
	// ErrUnknownEscrow is returned for references the bridge never issued or already settled
	ErrUnknownEscrow = errors.New("unknown escrow")
)

// Request describes funds to withhold from a payer for a job
type Request struct {
	JobID  uint
	Token  string
	Amount uint64
	Payer  string
}

// Payout is one transfer out of an escrow
type Payout struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Verdict is the full distribution of an escrow. Payout amounts sum to the escrowed amount.
type Verdict struct {
	Payouts []Payout `json:"payouts"`
}

// Total sums the payout amounts
func (v Verdict) Total() uint64 {
	var total uint64
	for _, p := range v.Payouts {
		total += p.Amount
	}
	return total
}

// Bridge holds, releases and refunds job funds
type Bridge interface {
	// Escrow withholds the requested amount and returns a reference to it
	Escrow(ctx context.Context, req Request) (string, error)
	// Release distributes held funds according to verdict
	Release(ctx context.Context, ref string, verdict Verdict) error
	// Refund returns held funds to the payer
	Refund(ctx context.Context, ref string) error
}
