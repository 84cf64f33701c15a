// Package main provides the TalentPivot API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/services"
	"github.com/talentpivot/talentpivot/pkg/web"
	"github.com/talentpivot/talentpivot/pkg/workflow"
)

// bodyLimit admits a campaign with several job descriptions of the maximum file size.
const bodyLimit = 64 << 20

type API struct {
	logger    *slog.Logger
	engine    *workflow.Engine
	accounts  *services.Accounts
	artifacts web.ArtifactReader
	issuer    *identity.TokenIssuer
	limiter   web.Limiter
	validate  *validator.Validate
	config    Config
	app       *fiber.App
}

func NewAPI(
	logger *slog.Logger,
	engine *workflow.Engine,
	accounts *services.Accounts,
	artifacts web.ArtifactReader,
	issuer *identity.TokenIssuer,
	limiter web.Limiter,
	validate *validator.Validate,
	config Config,
) *API {
	return &API{
		logger:    logger,
		engine:    engine,
		accounts:  accounts,
		artifacts: artifacts,
		issuer:    issuer,
		limiter:   limiter,
		validate:  validate,
		config:    config,
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine, a.accounts, a.artifacts, a.validate, a.limiter, a.logger, a.config.SignedURLTTL)

	app := fiber.New(fiber.Config{
		AppName:   "TalentPivot API",
		BodyLimit: bodyLimit,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			_, ok := a.engine.HealthCheck(c.Context())

			return ok
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("TalentPivot API")
	})

	app.Get("/health", handlers.HealthCheck)

	handlers.Mount(app.Group("/api/v1"), web.RequireIdentity(a.issuer))

	return app
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	a.app = a.App()

	errCh := make(chan error, 1)

	go func() {
		errCh <- a.app.Listen(":" + strconv.Itoa(port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down TalentPivot API")

		return a.app.Shutdown()
	}
}
