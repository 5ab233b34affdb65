package test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/dbtest"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/events"
	"github.com/effectiveacceleration/marketplace/internal/services"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// Token is the token every suite account is funded with
const Token = "0x00000000000000000000000000000000000000ee"

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - In-memory database
//   - Real registry, ledger and event bus
//   - Real API server
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	// Server components
	App    *fiber.App
	Server *httptest.Server

	// Marketplace components
	DB       *gorm.DB
	Ledger   *escrow.Ledger
	Registry *services.JobRegistry
	Bus      *events.Bus
	Treasury string

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// NewSuite creates a new test suite.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T) *Suite {
	t.Helper()

	// Create suite with default timeout
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	suite := &Suite{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
	}
	suite.cleanup = func() {
		if suite.cancelFunc != nil {
			suite.cancelFunc()
		}
	}

	suite.DB = dbtest.New(t)
	suite.Ledger = escrow.NewLedger(suite.DB)
	suite.Bus = events.NewBus(0)
	suite.Bus.SubscribeAll(events.LogHandler)
	suite.Bus.Start(ctx)

	treasury, err := signing.GenerateKey()
	suite.Require().NoError(err, "Failed to create treasury key")
	suite.Treasury = signing.AddressFromPubKey(treasury.PubKey())

	suite.Registry = services.NewJobRegistry(suite.DB, suite.Ledger, services.Config{
		FeeBps:   services.DefaultFeeBps,
		Treasury: suite.Treasury,
	}, services.WithBus(suite.Bus))

	// Setup server by default
	SetupServer(suite)

	return suite
}

// Cleanup tears down the test suite, releasing all resources.
// This should be deferred immediately after creating the suite.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// Require returns a require.Assertions instance for this suite.
// This is a convenience method to avoid passing t around.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// Balance returns the free balance of addr in Token
func (s *Suite) Balance(addr string) uint64 {
	bal, err := s.Ledger.Balance(s.ctx, addr, Token)
	s.Require().NoError(err)
	return bal
}

// Retry retries a function until it succeeds or the number of retries is reached.
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(interval)
	}
	return err
}
