package repos

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// SignatureRepository remembers accepted request signatures
type SignatureRepository struct {
	db *gorm.DB
}

// NewSignatureRepository creates a new signature repository instance
func NewSignatureRepository(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// Consume records digest as used by signer until expiresAt.
// It fails with ErrAlreadyExists when the signer already used digest and the record has not expired.
func (r *SignatureRepository) Consume(ctx context.Context, signer, digest string, now, expiresAt time.Time) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.db)
		if err := conn.Where("expires_at < ?", now.UTC()).Delete(&models.UsedSignature{}).Error; err != nil {
			return fmt.Errorf("failed to prune signatures: %w", err)
		}
		err := conn.Create(&models.UsedSignature{Signer: signer, Digest: digest, ExpiresAt: expiresAt.UTC()}).Error
		if db.IsDuplicateKeyError(err) {
			return fmt.Errorf("signature %s of %s: %w", digest, signer, ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("failed to record signature: %w", err)
		}
		return nil
	})
}
