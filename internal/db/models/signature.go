package models

import "time"

// UsedSignature records a signed request that was accepted. A signer cannot submit the same
// request body again until ExpiresAt, after which its timestamp is rejected anyway.
type UsedSignature struct {
	Signer    string    `json:"signer" gorm:"primaryKey"`
	Digest    string    `json:"digest" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}
