package test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/effectiveacceleration/marketplace/internal/app"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/client"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// SetupServer configures the test suite with a real API server.
// Deposits are enabled so accounts can fund themselves.
func SetupServer(suite *Suite) {
	suite.App = app.NewApp(app.Options{
		DB:            suite.DB,
		Registry:      suite.Registry,
		Ledger:        suite.Ledger,
		FaucetEnabled: true,
		Swagger:       true,
	})

	// Create test server using adaptor to convert Fiber app to http.Handler
	suite.Server = httptest.NewServer(adaptor.FiberApp(suite.App))

	// Update cleanup to close server
	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		if suite.Server != nil {
			suite.Server.Close()
		}
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}

// NewClient returns an API client for the suite server. A nil key gives a read-only client.
func (s *Suite) NewClient(opts *client.Options) client.Client {
	if opts == nil {
		opts = &client.Options{}
	}
	opts.BaseURL = s.Server.URL
	opts.Timeout = testClientTimeout
	c, err := client.NewClient(opts)
	s.Require().NoError(err, "Failed to create API client")
	return c
}

// NewAccount creates a key, a signing client for it and funds it with amount of Token
func (s *Suite) NewAccount(amount uint64) client.Client {
	key, err := signing.GenerateKey()
	s.Require().NoError(err, "Failed to create account key")
	c := s.NewClient(&client.Options{PrivateKey: key})
	if amount > 0 {
		s.Require().NoError(s.Ledger.Deposit(s.ctx, c.Address(), Token, amount))
	}
	return c
}
