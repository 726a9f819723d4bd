// Package main provides the Flowforge API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowforge/pkg/eventbus"
	"github.com/dukex/flowforge/pkg/lifecycle"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/registry"
	"github.com/dukex/flowforge/pkg/services"
	"github.com/dukex/flowforge/pkg/validation"
	"github.com/dukex/flowforge/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	validate    *validator.Validate
}

// NewAPI wires the HTTP API. publisher and tracer may be nil.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		publisher:   publisher,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) flowService() *services.Flow {
	var opts []services.Option
	if a.publisher != nil {
		opts = append(opts, services.WithEventPublisher(a.publisher))
	}

	if a.tracer != nil {
		opts = append(opts, services.WithTracer(a.tracer))
	}

	controller := lifecycle.New(validation.New(a.registry))

	return services.NewFlow(a.persistence, a.registry, controller, a.logger, opts...)
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.flowService(), a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowforge API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
