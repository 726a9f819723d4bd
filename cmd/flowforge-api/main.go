package main

import (
	"context"
	"errors"
	"os"

	"github.com/dukex/flowforge/pkg/channels/kafka"
	"github.com/dukex/flowforge/pkg/cmd"
	"github.com/dukex/flowforge/pkg/eventbus"
	"github.com/dukex/flowforge/pkg/log"
	"github.com/dukex/flowforge/pkg/otelhelper"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/schedule"
	"github.com/dukex/flowforge/pkg/versions"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort = 9091
	serviceName = "flowforge-api"
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Create, publish and manage flow definitions",
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
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for routine schedule registration; disabled when empty",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowforge API")

			var tracer trace.Tracer

			if command.Bool("tracing") {
				t, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return err
				}

				defer func() {
					if err := shutdown(context.Background()); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", log.Error(err))
					}
				}()

				tracer = t
			}

			registry := cmd.NewRegistry(logger)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", log.Error(err))
				}
			}()

			eventBus, err := cmd.NewEventBus(
				command.String("event-bus"),
				kafka.ParseBrokers(command.String("kafka-brokers")),
				logger,
			)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", log.Error(err))
				}
			}()

			if redisURL := command.String("redis-url"); redisURL != "" {
				store, err := startScheduleRegistrar(ctx, redisURL, persistence, eventBus)
				if err != nil {
					return err
				}

				defer func() {
					if err := store.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close schedule store", log.Error(err))
					}
				}()
			}

			api := NewAPI(logger, persistence, registry, eventBus, tracer)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", log.Error(err))
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

// startScheduleRegistrar keeps routine trigger schedules in Redis in step with
// published flows.
func startScheduleRegistrar(
	ctx context.Context,
	redisURL string,
	p persistence.Persistence,
	bus eventbus.EventBus,
) (*schedule.RedisStore, error) {
	store, err := schedule.NewRedisStore(ctx, redisURL)
	if err != nil {
		return nil, err
	}

	registrar := schedule.NewRegistrar(store, versions.NewStore(p.Versions()), log.WithModule("schedule"))

	if err := registrar.Subscribe(bus); err != nil {
		return nil, errors.Join(err, store.Close())
	}

	if err := bus.Subscribe(ctx); err != nil {
		return nil, errors.Join(err, store.Close())
	}

	return store, nil
}
