package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// ProfileParams holds the editable profile fields of users and arbitrators
type ProfileParams struct {
	Name   string         `json:"name,omitempty"`
	Bio    string         `json:"bio,omitempty"`
	Avatar contentref.Ref `json:"avatar,omitempty"`
}

// UserRegisterParams defines the parameters for registering the caller
type UserRegisterParams struct {
	PublicKey models.HexBytes `json:"public_key"`
	ProfileParams
}

// Validate validates the parameters for registering a user
func (p UserRegisterParams) Validate() error {
	if len(p.PublicKey) == 0 {
		return errors.New("public key is required")
	}
	return nil
}

// UserUpdateParams defines the parameters for editing the caller's profile
type UserUpdateParams struct {
	ProfileParams
}

// Validate validates the parameters for updating a user
func (p UserUpdateParams) Validate() error {
	return nil
}

// AddressParams identifies a user or arbitrator
type AddressParams struct {
	Address string `json:"address"`
}

// Validate validates the address
func (p AddressParams) Validate() error {
	if p.Address == "" {
		return errors.New(strings.ToLower(ErrMsgAddressRequired))
	}
	if _, err := signing.NormalizeAddress(p.Address); err != nil {
		return err
	}
	return nil
}

// ListParams defines plain pagination parameters
type ListParams struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Validate validates the pagination parameters
func (p ListParams) Validate() error {
	if p.Page < 0 {
		return errors.New(strings.ToLower(ErrMsgNegativePagination))
	}
	return nil
}

// UserReviewsParams defines the parameters for listing the reviews a user received
type UserReviewsParams struct {
	Address string `json:"address"`
	ListParams
}

// Validate validates the parameters for listing reviews
func (p UserReviewsParams) Validate() error {
	if err := (AddressParams{Address: p.Address}).Validate(); err != nil {
		return err
	}
	return p.ListParams.Validate()
}

// ArbitratorRegisterParams defines the parameters for registering the caller as an arbitrator
type ArbitratorRegisterParams struct {
	PublicKey models.HexBytes `json:"public_key"`
	FeeBps    uint32          `json:"fee_bps"`
	ProfileParams
}

// Validate validates the parameters for registering an arbitrator
func (p ArbitratorRegisterParams) Validate() error {
	if len(p.PublicKey) == 0 {
		return errors.New("public key is required")
	}
	if p.FeeBps > models.MaxBps {
		return fmt.Errorf("fee must be at most %d bps", models.MaxBps)
	}
	return nil
}

// BalanceParams identifies the balance of owner in token
type BalanceParams struct {
	Owner string `json:"owner,omitempty"`
	Token string `json:"token"`
}

// Validate validates the balance lookup
func (p BalanceParams) Validate() error {
	if strings.TrimSpace(p.Token) == "" {
		return errors.New(strings.ToLower(ErrMsgTokenRequired))
	}
	return nil
}

// BalanceTransferParams defines a deposit to or withdrawal from the caller's balance
type BalanceTransferParams struct {
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

// Validate validates the transfer
func (p BalanceTransferParams) Validate() error {
	if strings.TrimSpace(p.Token) == "" {
		return errors.New(strings.ToLower(ErrMsgTokenRequired))
	}
	if p.Amount == 0 {
		return errors.New(strings.ToLower(ErrMsgAmountRequired))
	}
	return nil
}
