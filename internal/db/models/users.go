package models

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/effectiveacceleration/marketplace/pkg/contentref"
)

// HexBytes is a byte slice rendered as 0x-hex in JSON
type HexBytes []byte

// MarshalJSON implements the json.Marshaler interface for HexBytes
func (h HexBytes) MarshalJSON() ([]byte, error) {
	if len(h) == 0 {
		return json.Marshal("")
	}
	return json.Marshal("0x" + hex.EncodeToString(h))
}

// UnmarshalJSON implements the json.Unmarshaler interface for HexBytes
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex value: %w", err)
	}
	*h = raw
	return nil
}

// Value implements the driver.Valuer interface
func (h HexBytes) Value() (driver.Value, error) {
	if h == nil {
		return []byte{}, nil
	}
	return []byte(h), nil
}

// Scan implements the sql.Scanner interface
func (h *HexBytes) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*h = nil
	case []byte:
		*h = append(HexBytes(nil), v...)
	case string:
		*h = HexBytes(v)
	default:
		return fmt.Errorf("cannot scan %T into HexBytes", value)
	}
	return nil
}

// GormDataType maps HexBytes to a binary column
func (HexBytes) GormDataType() string {
	return "bytes"
}

// User is a marketplace participant keyed by address.
// A user row exists from the first interaction; it is registered once a public key is set.
type User struct {
	Address        string         `json:"address" gorm:"primaryKey"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	PublicKey      HexBytes       `json:"public_key,omitempty"`
	Name           string         `json:"name"`
	Bio            string         `json:"bio"`
	Avatar         contentref.Ref `json:"avatar,omitempty"`
	ReputationUp   uint64         `json:"reputation_up" gorm:"not null;default:0"`
	ReputationDown uint64         `json:"reputation_down" gorm:"not null;default:0"`
	RatingSum      uint64         `json:"rating_sum" gorm:"not null;default:0"`
	ReviewCount    uint64         `json:"review_count" gorm:"not null;default:0"`
}

// Registered reports whether the user has registered a public key
func (u *User) Registered() bool {
	return len(u.PublicKey) > 0
}

// AverageRating returns rating_sum / review_count, or 0 with no reviews
func (u *User) AverageRating() float64 {
	if u.ReviewCount == 0 {
		return 0
	}
	return float64(u.RatingSum) / float64(u.ReviewCount)
}

// MarshalJSON adds the derived average rating
func (u User) MarshalJSON() ([]byte, error) {
	type Alias User // Create an alias to avoid infinite recursion
	return json.Marshal(struct {
		Alias
		AverageRating float64 `json:"average_rating"`
	}{Alias: Alias(u), AverageRating: u.AverageRating()})
}
