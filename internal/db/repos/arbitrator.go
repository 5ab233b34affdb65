package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// ArbitratorRepository handles database operations for arbitrators
type ArbitratorRepository struct {
	db *gorm.DB
}

// NewArbitratorRepository creates a new arbitrator repository instance
func NewArbitratorRepository(db *gorm.DB) *ArbitratorRepository {
	return &ArbitratorRepository{db: db}
}

// Create registers a new arbitrator
func (r *ArbitratorRepository) Create(ctx context.Context, arb *models.Arbitrator) error {
	if err := db.Conn(ctx, r.db).Create(arb).Error; err != nil {
		if db.IsDuplicateKeyError(err) {
			return fmt.Errorf("arbitrator %s: %w", arb.Address, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create arbitrator: %w", err)
	}
	return nil
}

// Get retrieves an arbitrator by address
func (r *ArbitratorRepository) Get(ctx context.Context, addr string) (*models.Arbitrator, error) {
	var arb models.Arbitrator
	err := db.Conn(ctx, r.db).Where("address = ?", addr).First(&arb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("arbitrator not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get arbitrator: %w", err)
	}
	return &arb, nil
}

// Save writes every field of arb
func (r *ArbitratorRepository) Save(ctx context.Context, arb *models.Arbitrator) error {
	return db.Conn(ctx, r.db).Save(arb).Error
}

// List retrieves arbitrators ordered by address
func (r *ArbitratorRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Arbitrator, error) {
	var arbs []models.Arbitrator
	err := db.Conn(ctx, r.db).Model(&models.Arbitrator{}).
		Order("address ASC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&arbs).Error
	return arbs, err
}
