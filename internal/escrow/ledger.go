package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/internal/logger"
)

// Ledger is a Bridge backed by the balances and escrows tables.
// Calls join the transaction carried by ctx, so a failed job update rolls the transfer back.
type Ledger struct {
	db   *gorm.DB
	repo *repos.LedgerRepository
}

var _ Bridge = (*Ledger)(nil)

// NewLedger creates a ledger bridge on gdb
func NewLedger(gdb *gorm.DB) *Ledger {
	return &Ledger{db: gdb, repo: repos.NewLedgerRepository(gdb)}
}

// Escrow debits the payer and records the held funds
func (l *Ledger) Escrow(ctx context.Context, req Request) (string, error) {
	if req.Amount == 0 || req.Token == "" || req.Payer == "" {
		return "", fmt.Errorf("%w: malformed request", ErrEscrowFailed)
	}
	ref := uuid.NewString()
	err := db.RunInTx(ctx, l.db, func(ctx context.Context) error {
		if err := l.repo.Debit(ctx, req.Payer, req.Token, req.Amount); err != nil {
			return err
		}
		return l.repo.CreateEscrow(ctx, &models.Escrow{
			Ref:    ref,
			JobID:  req.JobID,
			Token:  req.Token,
			Amount: req.Amount,
			Payer:  req.Payer,
			Status: models.EscrowStatusHeld,
		})
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEscrowFailed, err)
	}
	logger.DebugWithFields("escrowed funds", map[string]interface{}{
		"job_id": req.JobID,
		"ref":    ref,
		"amount": req.Amount,
		"token":  req.Token,
	})
	return ref, nil
}

// Release pays out held funds according to verdict
func (l *Ledger) Release(ctx context.Context, ref string, verdict Verdict) error {
	return db.RunInTx(ctx, l.db, func(ctx context.Context) error {
		escrow, err := l.held(ctx, ref)
		if err != nil {
			return err
		}
		if verdict.Total() != escrow.Amount {
			return fmt.Errorf("%w: payouts total %d, escrow holds %d", ErrEscrowFailed, verdict.Total(), escrow.Amount)
		}
		if err := l.repo.SettleEscrow(ctx, ref, models.EscrowStatusReleased); err != nil {
			return fmt.Errorf("%w: %w", ErrEscrowFailed, err)
		}
		for _, p := range verdict.Payouts {
			if err := l.repo.Credit(ctx, p.To, escrow.Token, p.Amount); err != nil {
				return fmt.Errorf("%w: %w", ErrEscrowFailed, err)
			}
		}
		return nil
	})
}

// Refund returns held funds to the payer
func (l *Ledger) Refund(ctx context.Context, ref string) error {
	return db.RunInTx(ctx, l.db, func(ctx context.Context) error {
		escrow, err := l.held(ctx, ref)
		if err != nil {
			return err
		}
		if err := l.repo.SettleEscrow(ctx, ref, models.EscrowStatusRefunded); err != nil {
			return fmt.Errorf("%w: %w", ErrEscrowFailed, err)
		}
		if err := l.repo.Credit(ctx, escrow.Payer, escrow.Token, escrow.Amount); err != nil {
			return fmt.Errorf("%w: %w", ErrEscrowFailed, err)
		}
		return nil
	})
}

func (l *Ledger) held(ctx context.Context, ref string) (*models.Escrow, error) {
	escrow, err := l.repo.GetEscrow(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEscrow, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEscrowFailed, err)
	}
	if escrow.Status != models.EscrowStatusHeld {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnknownEscrow, ref, escrow.Status)
	}
	return escrow, nil
}

// Deposit credits owner with amount of token
func (l *Ledger) Deposit(ctx context.Context, owner, token string, amount uint64) error {
	return l.repo.Credit(ctx, owner, token, amount)
}

// Withdraw debits owner by amount of token
func (l *Ledger) Withdraw(ctx context.Context, owner, token string, amount uint64) error {
	return l.repo.Debit(ctx, owner, token, amount)
}

// Balance returns the spendable balance of owner
func (l *Ledger) Balance(ctx context.Context, owner, token string) (uint64, error) {
	return l.repo.Balance(ctx, owner, token)
}

// Balances returns every balance of owner
func (l *Ledger) Balances(ctx context.Context, owner string) ([]models.Balance, error) {
	return l.repo.Balances(ctx, owner)
}

// Get returns the escrow stored under ref
func (l *Ledger) Get(ctx context.Context, ref string) (*models.Escrow, error) {
	return l.repo.GetEscrow(ctx, ref)
}
