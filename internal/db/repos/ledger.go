package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// LedgerRepository stores token balances and escrowed funds
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Balance returns the spendable amount of token held by owner
func (r *LedgerRepository) Balance(ctx context.Context, owner, token string) (uint64, error) {
	var bal models.Balance
	err := db.Conn(ctx, r.db).Where("owner = ? AND token = ?", owner, token).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return bal.Amount, nil
}

// Balances returns every balance held by owner
func (r *LedgerRepository) Balances(ctx context.Context, owner string) ([]models.Balance, error) {
	var bals []models.Balance
	err := db.Conn(ctx, r.db).Where("owner = ?", owner).Order("token ASC").Find(&bals).Error
	return bals, err
}

// Credit adds amount to the owner's balance. The balance never exceeds models.MaxAmount.
func (r *LedgerRepository) Credit(ctx context.Context, owner, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if amount > models.MaxAmount {
		return fmt.Errorf("credit of %d %s: %w", amount, token, ErrAmountOverflow)
	}
	return db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.db)
		result := conn.Model(&models.Balance{}).
			Where("owner = ? AND token = ? AND amount <= ?", owner, token, models.MaxAmount-amount).
			Update("amount", gorm.Expr("amount + ?", amount))
		if result.Error != nil {
			return fmt.Errorf("failed to credit balance: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := conn.Model(&models.Balance{}).Where("owner = ? AND token = ?", owner, token).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("credit of %d %s to %s: %w", amount, token, owner, ErrAmountOverflow)
		}
		if err := conn.Create(&models.Balance{Owner: owner, Token: token, Amount: amount}).Error; err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}
		return nil
	})
}

// Debit subtracts amount from the owner's balance, failing when it would go negative
func (r *LedgerRepository) Debit(ctx context.Context, owner, token string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if amount > models.MaxAmount {
		return fmt.Errorf("%s needs %d %s: %w", owner, amount, token, ErrInsufficientFunds)
	}
	result := db.Conn(ctx, r.db).Model(&models.Balance{}).
		Where("owner = ? AND token = ? AND amount >= ?", owner, token, amount).
		Update("amount", gorm.Expr("amount - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to debit balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s needs %d %s: %w", owner, amount, token, ErrInsufficientFunds)
	}
	return nil
}

// CreateEscrow records held funds
func (r *LedgerRepository) CreateEscrow(ctx context.Context, escrow *models.Escrow) error {
	return db.Conn(ctx, r.db).Create(escrow).Error
}

// GetEscrow retrieves an escrow by reference
func (r *LedgerRepository) GetEscrow(ctx context.Context, ref string) (*models.Escrow, error) {
	var escrow models.Escrow
	err := db.Conn(ctx, r.db).Where("ref = ?", ref).First(&escrow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("escrow not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}
	return &escrow, nil
}

// SettleEscrow moves a held escrow to status. It fails if the escrow is no longer held.
func (r *LedgerRepository) SettleEscrow(ctx context.Context, ref string, status models.EscrowStatus) error {
	result := db.Conn(ctx, r.db).Model(&models.Escrow{}).
		Where("ref = ? AND status = ?", ref, models.EscrowStatusHeld).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to settle escrow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("escrow %s is not held: %w", ref, gorm.ErrRecordNotFound)
	}
	return nil
}
