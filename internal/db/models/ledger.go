package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MaxAmount is the largest amount a balance, escrow or job can hold. Amounts live in BIGINT columns.
const MaxAmount uint64 = math.MaxInt64

// Balance is the spendable amount of a token held by an owner
type Balance struct {
	Owner     string    `json:"owner" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"primaryKey"`
	Amount    uint64    `json:"amount" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EscrowStatus is the lifecycle state of held funds
type EscrowStatus int

// Escrow status constants
const (
	EscrowStatusHeld EscrowStatus = iota
	EscrowStatusReleased
	EscrowStatusRefunded
)

var escrowStatusNames = []string{
	"held",
	"released",
	"refunded",
}

func (s EscrowStatus) String() string {
	if int(s) < 0 || int(s) >= len(escrowStatusNames) {
		return "unknown"
	}
	return escrowStatusNames[s]
}

// ParseEscrowStatus converts a string representation of an escrow status to EscrowStatus type
func ParseEscrowStatus(str string) (EscrowStatus, error) {
	for i, name := range escrowStatusNames {
		if name == str {
			return EscrowStatus(i), nil
		}
	}
	return EscrowStatus(0), fmt.Errorf("invalid escrow status: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for EscrowStatus
func (s EscrowStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Escrow is an amount withheld from a payer until released or refunded
type Escrow struct {
	Ref       string       `json:"ref" gorm:"primaryKey"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	JobID     uint         `json:"job_id" gorm:"not null;index"`
	Token     string       `json:"token" gorm:"not null"`
	Amount    uint64       `json:"amount" gorm:"not null"`
	Payer     string       `json:"payer" gorm:"not null;index"`
	Status    EscrowStatus `json:"status" gorm:"not null;index"`
}
