package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// SignatureHeader carries the caller's signature over the raw request body
const SignatureHeader = "X-Signature"

// DefaultSignatureWindow is how far a request timestamp may drift from the server clock
const DefaultSignatureWindow = 5 * time.Minute

var errAuthUnavailable = errors.New("signature store unavailable")

// SignatureStore remembers accepted requests. Consume fails with repos.ErrAlreadyExists
// when signer already used digest before expiresAt.
type SignatureStore interface {
	Consume(ctx context.Context, signer, digest string, now, expiresAt time.Time) error
}

// Authenticator recovers the caller of a signed RPC request and rejects replays
type Authenticator struct {
	clock  clock.Clock
	window time.Duration
	store  SignatureStore
}

// NewAuthenticator creates an authenticator accepting timestamps within window of c.
// Each signed body is accepted once per signer.
func NewAuthenticator(c clock.Clock, window time.Duration, store SignatureStore) *Authenticator {
	if c == nil {
		c = clock.New()
	}
	if window <= 0 {
		window = DefaultSignatureWindow
	}
	return &Authenticator{clock: c, window: window, store: store}
}

// Authenticate returns the address that signed the request body
func (a *Authenticator) Authenticate(c *fiber.Ctx, req RPCRequest) (string, error) {
	header := c.Get(SignatureHeader)
	if header == "" {
		return "", errors.New(ErrMsgSignatureRequired)
	}
	sig, err := signing.DecodeHex(header)
	if err != nil {
		return "", errors.New(ErrMsgInvalidSignature)
	}
	digest := signing.RequestDigest(c.Body())
	caller, err := signing.Recover(digest, sig)
	if err != nil {
		return "", errors.New(ErrMsgInvalidSignature)
	}

	now := a.clock.Now()
	signedAt := time.Unix(req.Timestamp, 0)
	drift := now.Sub(signedAt)
	if req.Timestamp == 0 || drift > a.window || drift < -a.window {
		return "", errors.New(ErrMsgRequestExpired)
	}

	// The timestamp check rejects the body once signedAt+window passes
	err = a.store.Consume(c.Context(), caller, hex.EncodeToString(digest), now, signedAt.Add(a.window))
	if errors.Is(err, repos.ErrAlreadyExists) {
		return "", errors.New(ErrMsgRequestReplayed)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", errAuthUnavailable, err)
	}
	return caller, nil
}
