package models

import (
	"time"

	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// MaxBps is 100% expressed in basis points
const MaxBps = 10000

// Arbitrator is a registered dispute resolver with a fee in basis points
type Arbitrator struct {
	Address      string         `json:"address" gorm:"primaryKey"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	PublicKey    HexBytes       `json:"public_key"`
	Name         string         `json:"name"`
	Bio          string         `json:"bio"`
	Avatar       contentref.Ref `json:"avatar,omitempty"`
	FeeBps       uint32         `json:"fee_bps" gorm:"not null"`
	SettledCount uint64         `json:"settled_count" gorm:"not null;default:0"`
	RefusedCount uint64         `json:"refused_count" gorm:"not null;default:0"`
}
