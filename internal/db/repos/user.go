package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// UserRepository handles database operations for user entities
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository handles database operations for user entities
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure creates an unregistered user row for addr if none exists
func (r *UserRepository) Ensure(ctx context.Context, addr string) error {
	return db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.User{Address: addr}).Error
}

// Get retrieves a user by address
// Returns ErrRecordNotFound if the user doesn't exist
func (r *UserRepository) Get(ctx context.Context, addr string) (*models.User, error) {
	var user models.User
	err := db.Conn(ctx, r.db).Where("address = ?", addr).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Save writes every field of user
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	return db.Conn(ctx, r.db).Save(user).Error
}

// List retrieves users ordered by address
func (r *UserRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.User, error) {
	var users []models.User
	err := db.Conn(ctx, r.db).Model(&models.User{}).
		Order("address ASC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&users).Error
	return users, err
}
