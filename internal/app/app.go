// Package app assembles the marketplace HTTP application
package app

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/logger"
	"github.com/effectiveacceleration/marketplace/internal/services"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/handlers"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/routes"
)

// Options configures the application
type Options struct {
	// DB stores accepted request signatures
	DB       *gorm.DB
	Registry *services.JobRegistry
	Ledger   *escrow.Ledger
	// FaucetEnabled exposes balance.deposit. Development only.
	FaucetEnabled bool
	// SignatureWindow bounds the age of signed requests, defaults to handlers.DefaultSignatureWindow
	SignatureWindow time.Duration
	// Clock checks request timestamps, defaults to the wall clock
	Clock clock.Clock
	// Swagger serves the API documentation
	Swagger bool
}

// NewApp creates the fiber application with every v1 route registered
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(logger.APILogger())

	api := handlers.NewAPIHandler(opts.Registry, opts.Ledger, opts.FaucetEnabled)
	auth := handlers.NewAuthenticator(opts.Clock, opts.SignatureWindow, repos.NewSignatureRepository(opts.DB))

	// Register versioned routes
	routes.RegisterRoutes(app, handlers.NewReadHandler(api), handlers.NewRPCHandler(api, auth))
	if opts.Swagger {
		routes.RegisterSwaggerRoutes(app)
	}

	return app
}
