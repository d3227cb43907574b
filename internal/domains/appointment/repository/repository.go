package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"time"

	"slotbook/config"
	"slotbook/infras/otel"
	"slotbook/infras/postgres"
	"slotbook/internal/domains/appointment/model"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
)

// Appointment is the appointment store. ReserveIfAvailable is the only write
// path for new records and is linearized per slot key: of any number of
// concurrent calls for the same (date, start_time), exactly one inserts.
// ListByDate returns active records only; cancelled ones stay reachable
// through Get and through ListByDateRange with activeOnly false.
type Appointment interface {
	Get(ctx context.Context, id string) (model.Appointment, bool, error)
	ListByDate(ctx context.Context, date string) ([]model.Appointment, error)
	ListByDateRange(ctx context.Context, startDate, endDate string, activeOnly bool) ([]model.Appointment, error)
	ReserveIfAvailable(ctx context.Context, candidate model.Appointment) (model.Appointment, bool, error)
	Cancel(ctx context.Context, id, reason string, at time.Time) (bool, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// New selects the store backend from configuration. The memory store is the
// default and needs no external services; the postgres store shares the
// application's connection pair.
func New(cfg *config.Config, db *postgres.Connection, ot otel.Otel) Appointment {
	if cfg.Store.Driver == driverPostgres {
		return NewPostgres(db, ot)
	}

	return NewMemory(ot)
}
