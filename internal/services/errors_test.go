package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := invalidState("job %d is %s", 3, "closed")
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "job 3 is closed", err.Error())
	assert.Equal(t, KindInvalidState, KindOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestEscrowFailureUnwraps(t *testing.T) {
	cause := errors.New("insufficient funds")
	err := escrowFailure(cause)
	assert.ErrorIs(t, err, ErrEscrowFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "escrow failure: insufficient funds", err.Error())
}

func TestPostJobEscrowErrorMatchesBothKinds(t *testing.T) {
	err := &Error{Kind: KindInvalidArgument, Msg: "amount cannot be escrowed", Err: escrowFailure(errors.New("boom"))}
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrEscrowFailure)
}
