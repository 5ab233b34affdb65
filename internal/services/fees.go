package services

import (
	"math/bits"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
)

// ApplyBps returns floor(amount * bps / 10000) without overflowing
func ApplyBps(amount uint64, bps uint32) uint64 {
	if bps >= models.MaxBps {
		return amount
	}
	hi, lo := bits.Mul64(amount, uint64(bps))
	q, _ := bits.Div64(hi, lo, models.MaxBps)
	return q
}

// CloseSplit is the distribution of an accepted job's escrow
type CloseSplit struct {
	Worker uint64
	Fee    uint64
}

// SplitClose deducts the marketplace fee from amount; the worker gets the rest
func SplitClose(amount uint64, feeBps uint32) CloseSplit {
	fee := ApplyBps(amount, feeBps)
	return CloseSplit{Worker: amount - fee, Fee: fee}
}

// ArbitrationSplit is the distribution of a disputed job's escrow
type ArbitrationSplit struct {
	Creator    uint64
	Worker     uint64
	Arbitrator uint64
}

// SplitArbitration takes the arbitrator fee first, then divides the rest by workerShareBps.
// The creator receives the remainder, so the three parts always sum to amount.
func SplitArbitration(amount uint64, arbitratorFeeBps, workerShareBps uint32) ArbitrationSplit {
	fee := ApplyBps(amount, arbitratorFeeBps)
	rest := amount - fee
	worker := ApplyBps(rest, workerShareBps)
	return ArbitrationSplit{Creator: rest - worker, Worker: worker, Arbitrator: fee}
}

// verdict turns non-zero shares into escrow payouts
func verdict(payouts ...escrow.Payout) escrow.Verdict {
	v := escrow.Verdict{}
	for _, p := range payouts {
		if p.Amount > 0 {
			v.Payouts = append(v.Payouts, p)
		}
	}
	return v
}
