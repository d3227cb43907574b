package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/infras/otel"
	"slotbook/infras/postgres"
	"slotbook/internal/domains/appointment/model"
	"slotbook/shared/constant"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	queryInsertAppointment = `
		INSERT INTO appointments (
			id, customer_name, customer_email, date, start_time, end_time,
			start_at, status, notes, created_at, updated_at
		)
		SELECT
			:id, :customer_name, :customer_email, :date, :start_time, :end_time,
			:start_at, :status, :notes, :created_at, :updated_at
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE date = :date AND start_time = :start_time AND status = 'active'
		)`

	querySelectAppointment = `
		SELECT id, customer_name, customer_email, date, start_time, end_time,
			start_at, status, notes, cancelled_at, cancellation_reason,
			created_at, updated_at
		FROM appointments`

	queryCancelAppointment = `
		UPDATE appointments
		SET status = 'cancelled', cancellation_reason = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'active'`

	queryPurgeAppointments = `DELETE FROM appointments WHERE created_at < $1`
)

// postgresImpl relies on the partial unique index on (date, start_time)
// WHERE status = 'active' to linearize reservations: the conditional insert
// loses cleanly when a committed holder exists, and the index rejects the
// racing insert that slipped past the NOT EXISTS check.
type postgresImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func NewPostgres(db *postgres.Connection, ot otel.Otel) Appointment {
	return &postgresImpl{
		db:   db,
		otel: ot,
	}
}

func (r *postgresImpl) Get(ctx context.Context, id string) (res model.Appointment, found bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = r.db.Read.GetContext(ctx, &res, querySelectAppointment+" WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Appointment{}, false, nil
	}

	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get appointment")

		return model.Appointment{}, false, fmt.Errorf("failed to get appointment: %w", err)
	}

	return res, true, nil
}

func (r *postgresImpl) ListByDate(ctx context.Context, date string) (res []model.Appointment, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".ListByDate")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = r.db.Read.SelectContext(ctx, &res, querySelectAppointment+" WHERE date = $1 AND status = 'active' ORDER BY start_time", date)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("failed to list appointments by date")

		return nil, fmt.Errorf("failed to list appointments by date: %w", err)
	}

	return res, nil
}

func (r *postgresImpl) ListByDateRange(ctx context.Context, startDate, endDate string, activeOnly bool) (res []model.Appointment, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".ListByDateRange")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := querySelectAppointment + " WHERE date >= $1 AND date <= $2"
	if activeOnly {
		query += " AND status = 'active'"
	}
	query += " ORDER BY date, start_time"

	err = r.db.Read.SelectContext(ctx, &res, query, startDate, endDate)
	if err != nil {
		log.Error().Err(err).Str("startDate", startDate).Str("endDate", endDate).Msg("failed to list appointments by date range")

		return nil, fmt.Errorf("failed to list appointments by date range: %w", err)
	}

	return res, nil
}

func (r *postgresImpl) ReserveIfAvailable(ctx context.Context, candidate model.Appointment) (res model.Appointment, reserved bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".ReserveIfAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	result, err := r.db.Write.NamedExecContext(ctx, queryInsertAppointment, candidate)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation {
			return model.Appointment{}, false, nil
		}

		log.Error().Err(err).Str("slot", candidate.SlotKey()).Msg("failed to reserve slot")

		return model.Appointment{}, false, fmt.Errorf("failed to reserve slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return model.Appointment{}, false, fmt.Errorf("failed to read reservation result: %w", err)
	}

	if affected == 0 {
		return model.Appointment{}, false, nil
	}

	return candidate, true, nil
}

func (r *postgresImpl) Cancel(ctx context.Context, id, reason string, at time.Time) (cancelled bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	result, err := r.db.Write.ExecContext(ctx, queryCancelAppointment, id, reason, at)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to cancel appointment")

		return false, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read cancellation result: %w", err)
	}

	return affected > 0, nil
}

func (r *postgresImpl) PurgeOlderThan(ctx context.Context, cutoff time.Time) (purged int, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".PurgeOlderThan")
	defer scope.End()
	defer scope.TraceIfError(err)

	result, err := r.db.Write.ExecContext(ctx, queryPurgeAppointments, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to purge appointments")

		return 0, fmt.Errorf("failed to purge appointments: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}

	return int(affected), nil
}
