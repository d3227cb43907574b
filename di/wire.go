//go:build wireinject
// +build wireinject

package di

import (
	"slotbook/config"
	"slotbook/infras/kafka"
	"slotbook/infras/otel"
	"slotbook/infras/postgres"
	"slotbook/infras/redis"
	"slotbook/internal/jobs"
	"slotbook/shared/cache"
	"slotbook/transport/http"
	"slotbook/transport/http/middleware"
	"slotbook/transport/http/router"

	appointmentEvents "slotbook/internal/domains/appointment/events"
	appointmentRepository "slotbook/internal/domains/appointment/repository"
	appointmentService "slotbook/internal/domains/appointment/service"
	appointmentHandler "slotbook/internal/handlers/appointment"
	healthHandler "slotbook/internal/handlers/health"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var appointmentDomain = wire.NewSet(
	appointmentRepository.New,
	appointmentEvents.New,
	appointmentService.New,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	appointmentHandler.New,
	healthHandler.New,
	router.New,
)

var background = wire.NewSet(
	jobs.NewRetention,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		appointmentDomain,
		routing,
		background,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
