package jobs

import (
	"context"
	"time"

	"slotbook/config"
	"slotbook/internal/domains/appointment/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const purgeTimeout = time.Minute

// Retention runs the age-based purge of old appointment records on the
// configured cron schedule. Purging is the only path that physically removes
// records; cancellations are soft deletes until the horizon passes.
type Retention struct {
	cfg     *config.Config
	service service.Appointment
	cron    *cron.Cron
}

func NewRetention(cfg *config.Config, svc service.Appointment) *Retention {
	return &Retention{
		cfg:     cfg,
		service: svc,
		cron:    cron.New(),
	}
}

func (r *Retention) Start() error {
	_, err := r.cron.AddFunc(r.cfg.Booking.RetentionSchedule, r.run)
	if err != nil {
		return err
	}

	r.cron.Start()

	log.Info().
		Str("schedule", r.cfg.Booking.RetentionSchedule).
		Int("retentionDays", r.cfg.Booking.RetentionDays).
		Msg("Retention purge scheduled")

	return nil
}

func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Retention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	purged, err := r.service.PurgeExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("retention purge failed")

		return
	}

	log.Info().Int("purged", purged).Msg("retention purge completed")
}
