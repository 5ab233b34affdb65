package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectiveacceleration/marketplace/internal/db/dbtest"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
)

const (
	token   = "0xtoken"
	payer   = "0x00000000000000000000000000000000000000aa"
	worker  = "0x00000000000000000000000000000000000000bb"
	service = "0x00000000000000000000000000000000000000cc"
)

func newLedger(t *testing.T) *Ledger {
	l := NewLedger(dbtest.New(t))
	require.NoError(t, l.Deposit(context.Background(), payer, token, 1000))
	return l
}

func balance(t *testing.T, l *Ledger, owner string) uint64 {
	bal, err := l.Balance(context.Background(), owner, token)
	require.NoError(t, err)
	return bal
}

func TestEscrowAndRelease(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	ref, err := l.Escrow(ctx, Request{JobID: 1, Token: token, Amount: 600, Payer: payer})
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
	assert.Equal(t, uint64(400), balance(t, l, payer))

	err = l.Release(ctx, ref, Verdict{Payouts: []Payout{{To: worker, Amount: 500}}})
	assert.ErrorIs(t, err, ErrEscrowFailed, "payouts must cover the escrow exactly")

	err = l.Release(ctx, ref, Verdict{Payouts: []Payout{
		{To: worker, Amount: 500},
		{To: service, Amount: 100},
	}})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance(t, l, worker))
	assert.Equal(t, uint64(100), balance(t, l, service))

	escrow, err := l.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, escrow.Status)

	assert.ErrorIs(t, l.Refund(ctx, ref), ErrUnknownEscrow)
}

func TestEscrowInsufficientFunds(t *testing.T) {
	l := newLedger(t)
	_, err := l.Escrow(context.Background(), Request{JobID: 1, Token: token, Amount: 1001, Payer: payer})
	assert.ErrorIs(t, err, ErrEscrowFailed)
	assert.ErrorIs(t, err, repos.ErrInsufficientFunds)
	assert.Equal(t, uint64(1000), balance(t, l, payer))
}

func TestEscrowRejectsMalformed(t *testing.T) {
	l := newLedger(t)
	_, err := l.Escrow(context.Background(), Request{JobID: 1, Token: token, Payer: payer})
	assert.ErrorIs(t, err, ErrEscrowFailed)
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	ref, err := l.Escrow(ctx, Request{JobID: 7, Token: token, Amount: 250, Payer: payer})
	require.NoError(t, err)
	require.NoError(t, l.Refund(ctx, ref))
	assert.Equal(t, uint64(1000), balance(t, l, payer))

	assert.ErrorIs(t, l.Refund(ctx, ref), ErrUnknownEscrow)
	assert.ErrorIs(t, l.Refund(ctx, "missing"), ErrUnknownEscrow)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	require.NoError(t, l.Withdraw(ctx, payer, token, 300))
	assert.Equal(t, uint64(700), balance(t, l, payer))
	assert.ErrorIs(t, l.Withdraw(ctx, payer, token, 701), repos.ErrInsufficientFunds)

	bals, err := l.Balances(ctx, payer)
	require.NoError(t, err)
	require.Len(t, bals, 1)
	assert.Equal(t, uint64(700), bals[0].Amount)
}

func TestDepositOverflow(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	assert.ErrorIs(t, l.Deposit(ctx, payer, token, models.MaxAmount), repos.ErrAmountOverflow)
	assert.ErrorIs(t, l.Deposit(ctx, worker, token, 1<<63), repos.ErrAmountOverflow)
	assert.Equal(t, uint64(1000), balance(t, l, payer))

	require.NoError(t, l.Deposit(ctx, worker, token, models.MaxAmount))
	assert.Equal(t, models.MaxAmount, balance(t, l, worker))
}
