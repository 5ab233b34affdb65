package repos

import "errors"

var (
	// ErrRevisionConflict is returned when a job changed since it was read
	ErrRevisionConflict = errors.New("job revision conflict")
	// ErrInsufficientFunds is returned when a balance cannot cover a debit
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAmountOverflow is returned when an amount or a resulting balance exceeds models.MaxAmount
	ErrAmountOverflow = errors.New("amount overflows balance")
	// ErrAlreadyExists is returned when a unique row already exists
	ErrAlreadyExists = errors.New("already exists")
)
