package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/talentpivot/talentpivot/pkg/artifacts"
	"github.com/talentpivot/talentpivot/pkg/authz"
	"github.com/talentpivot/talentpivot/pkg/cmd"
	"github.com/talentpivot/talentpivot/pkg/eventbus"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/log"
	"github.com/talentpivot/talentpivot/pkg/otelhelper"
	"github.com/talentpivot/talentpivot/pkg/reminder"
	"github.com/talentpivot/talentpivot/pkg/services"
	"github.com/talentpivot/talentpivot/pkg/web"
	"github.com/talentpivot/talentpivot/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

// Config carries the HTTP-facing settings of the API.
type Config struct {
	Port         int
	PublicURL    string
	SignedURLTTL time.Duration
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	command := &cli.Command{
		Name:                  "talentpivot-api",
		Usage:                 "Run recruitment campaigns and candidate reviews",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://path or postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "artifacts-path",
				Usage:   "Directory where resumes and job descriptions are stored",
				Value:   "./data/artifacts",
				Sources: cli.EnvVars("ARTIFACTS_PATH"),
			},
			&cli.StringFlag{
				Name:    "public-url",
				Usage:   "Externally reachable API base URL used in signed download links (defaults to http://localhost:<port>/api/v1)",
				Sources: cli.EnvVars("PUBLIC_URL"),
			},
			&cli.StringFlag{
				Name:     "jwt-secret",
				Usage:    "Secret used to sign bearer tokens and download links",
				Required: true,
				Sources:  cli.EnvVars("JWT_SECRET"),
			},
			&cli.DurationFlag{
				Name:    "token-ttl",
				Usage:   "Lifetime of issued bearer tokens",
				Value:   identity.DefaultTokenTTL,
				Sources: cli.EnvVars("TOKEN_TTL"),
			},
			&cli.DurationFlag{
				Name:    "signed-url-ttl",
				Usage:   "Lifetime of signed document download links",
				Value:   artifacts.DefaultURLTTL,
				Sources: cli.EnvVars("SIGNED_URL_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for shared login rate limiting; empty uses an in-process limiter",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "reminder-schedule",
				Usage:   "Cron schedule of the overdue campaign scan; empty disables it",
				Value:   reminder.DefaultSchedule,
				Sources: cli.EnvVars("REMINDER_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.FloatFlag{
				Name:    "otel-sample-ratio",
				Usage:   "Fraction of root traces to sample",
				Value:   1,
				Sources: cli.EnvVars("OTEL_SAMPLE_RATIO"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := command.Run(ctx, os.Args)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing TalentPivot API")

	if command.Bool("otel-enabled") {
		tracerProvider, err := otelhelper.Setup(ctx, "talentpivot-api", command.Float("otel-sample-ratio"))
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := tracerProvider.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), log.WithModule("eventbus"))
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if err := eventbus.RegisterAuditLog(eventBus, log.WithModule("audit")); err != nil {
		return fmt.Errorf("failed to register audit log: %w", err)
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	config := Config{
		Port:         int(command.Int("port")),
		PublicURL:    command.String("public-url"),
		SignedURLTTL: command.Duration("signed-url-ttl"),
	}
	if config.PublicURL == "" {
		config.PublicURL = "http://localhost:" + strconv.Itoa(config.Port) + "/api/v1"
	}

	secret := command.String("jwt-secret")

	signer, err := artifacts.NewURLSigner(secret, config.PublicURL)
	if err != nil {
		return err
	}

	store, err := artifacts.NewFileStore(command.String("artifacts-path"), signer)
	if err != nil {
		return err
	}

	issuer, err := identity.NewTokenIssuer(secret, command.Duration("token-ttl"))
	if err != nil {
		return err
	}

	authorizer, err := authz.NewDefault()
	if err != nil {
		return err
	}

	limiterLogger := log.WithModule("ratelimit")
	limiter := web.NewMemoryLimiter(limiterLogger)

	if redisURL := command.String("redis-url"); redisURL != "" {
		client, err := cmd.NewRedisClient(ctx, redisURL)
		if err != nil {
			return err
		}

		defer func() { _ = client.Close() }()

		limiter, err = web.NewRedisLimiter(client, limiterLogger)
		if err != nil {
			return err
		}
	}

	engine := workflow.NewEngine(persistence, authorizer, store, log.WithModule("workflow"),
		workflow.WithPublisher(eventBus))

	reminders, err := reminder.New(command.String("reminder-schedule"), engine, eventBus, logger)
	if err != nil {
		return err
	}

	if err := reminders.Start(ctx); err != nil {
		return err
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := reminders.Stop(stopCtx); err != nil {
			logger.ErrorContext(ctx, "Failed to stop reminders", "error", err)
		}
	}()

	validate := validator.New(validator.WithRequiredStructEnabled())
	accounts := services.NewAccounts(persistence.UserRepository(), identity.NewHasher(), issuer, validate, log.WithModule("accounts"))

	api := NewAPI(logger, engine, accounts, store, issuer, limiter, validate, config)

	if err := api.Start(ctx, config.Port); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "API server stopped", "error", err)

		return err
	}

	return nil
}
