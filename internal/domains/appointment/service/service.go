package service

import (
	"context"
	"fmt"
	"time"

	"slotbook/config"
	"slotbook/infras/otel"
	"slotbook/internal/domains/appointment/events"
	"slotbook/internal/domains/appointment/model"
	"slotbook/internal/domains/appointment/model/dto"
	"slotbook/internal/domains/appointment/repository"
	"slotbook/shared"
	"slotbook/shared/cache"
	"slotbook/shared/constant"
	"slotbook/shared/failure"
	"slotbook/shared/timeslot"

	"github.com/rs/zerolog/log"
)

const (
	cacheDaySchedule = "appointment:schedule"
	cacheMetrics     = "appointment:metrics"

	defaultCancelReason = "Customer cancellation"
)

type Appointment interface {
	Create(ctx context.Context, req dto.CreateAppointmentRequest) (dto.CreateAppointmentResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelAppointmentRequest) (dto.CancelAppointmentResponse, error)
	DaySchedule(ctx context.Context, date string) (dto.DayScheduleResponse, error)
	Metrics(ctx context.Context, date string) (dto.MetricsResponse, error)
	PurgeExpired(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo   repository.Appointment
	cfg    *config.Config
	cache  cache.RedisCache
	events events.Publisher
	otel   otel.Otel
	window timeslot.Window
	now    func() time.Time
}

func New(repo repository.Appointment, cfg *config.Config, cache cache.RedisCache, publisher events.Publisher, ot otel.Otel) Appointment {
	return NewWithClock(repo, cfg, cache, publisher, ot, time.Now)
}

// NewWithClock injects the reference clock so temporal rules are testable
// against a fixed instant.
func NewWithClock(repo repository.Appointment, cfg *config.Config, cache cache.RedisCache, publisher events.Publisher, ot otel.Otel, now func() time.Time) Appointment {
	return &serviceImpl{
		repo:   repo,
		cfg:    cfg,
		cache:  cache,
		events: publisher,
		otel:   ot,
		window: timeslot.Window{
			OpenHour:    cfg.Booking.OpenHour,
			CloseHour:   cfg.Booking.CloseHour,
			SlotMinutes: cfg.Booking.SlotMinutes,
		},
		now: now,
	}
}

// Create books one slot. Validation runs cheapest first: format, business
// window, past check, then the overlap pre-check against the day's bookings.
// The reservation itself is re-checked atomically by the store, so a request
// that passes the pre-check can still lose the race and is told so with a
// failure kind distinct from the overlap one.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAppointmentRequest) (res dto.CreateAppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	loc, err := req.Location()
	if err != nil {
		return res, failure.BadRequestFromString(err.Error()) // nolint:wrapcheck
	}

	startTime := timeslot.Normalize(req.StartTime)

	if !s.window.ContainsSlot(startTime) {
		return res, failure.BusinessRule(fmt.Sprintf( // nolint:wrapcheck
			"Appointments are only available between %02d:00 and %02d:00",
			s.cfg.Booking.OpenHour, s.cfg.Booking.CloseHour,
		))
	}

	if !s.window.OnSlotBoundary(startTime) {
		return res, failure.BusinessRule(fmt.Sprintf( // nolint:wrapcheck
			"Appointments must start on a %d-minute boundary", s.cfg.Booking.SlotMinutes,
		))
	}

	past, err := timeslot.IsInPast(req.Date, startTime, loc, s.now())
	if err != nil {
		return res, failure.BadRequestFromString(err.Error()) // nolint:wrapcheck
	}

	if past {
		return res, failure.BusinessRule("Cannot book appointments in the past") // nolint:wrapcheck
	}

	sameDay, err := s.repo.ListByDate(ctx, req.Date)
	if err != nil {
		log.Error().Err(err).Str("date", req.Date).Msg("failed to list appointments for overlap check")

		return res, fmt.Errorf("failed to list appointments for overlap check: %w", err)
	}

	if timeslot.HasOverlap(startTime, s.cfg.Booking.SlotMinutes, bookedRanges(sameDay)) {
		return res, failure.Overlap("This time slot overlaps with an existing appointment") // nolint:wrapcheck
	}

	startAt, err := timeslot.ToInstant(req.Date, startTime, loc)
	if err != nil {
		return res, failure.BadRequestFromString(err.Error()) // nolint:wrapcheck
	}

	now := s.now().UTC()

	candidate := req.ToModel()
	candidate.EndTime = timeslot.CalculateEndTime(startTime, s.cfg.Booking.SlotMinutes)
	candidate.StartAt = startAt
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	created, reserved, err := s.repo.ReserveIfAvailable(ctx, candidate)
	if err != nil {
		log.Error().Err(err).Str("slot", candidate.SlotKey()).Msg("failed to reserve appointment slot")

		return res, fmt.Errorf("failed to reserve appointment slot: %w", err)
	}

	if !reserved {
		return res, failure.SlotTaken("This time slot is no longer available. Please select a different time.") // nolint:wrapcheck
	}

	s.events.Created(ctx, created)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheDaySchedule, created.Date))
		shared.InvalidateCaches(c, s.cache, cacheMetrics)
	}()

	res.FromModel(created)

	return res, nil
}

// Cancel soft-deletes an appointment. It refuses inside the lead-time
// buffer, measured against the stored UTC start instant so the caller's
// timezone cannot widen or shrink the window.
func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelAppointmentRequest) (res dto.CancelAppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	appointment, found, err := s.repo.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get appointment")

		return res, fmt.Errorf("failed to get appointment: %w", err)
	}

	if !found {
		return res, failure.NotFound("Appointment not found") // nolint:wrapcheck
	}

	if !appointment.IsActive() {
		return res, failure.AlreadyCancelled("Appointment is already cancelled") // nolint:wrapcheck
	}

	now := s.now().UTC()
	buffer := time.Duration(s.cfg.Booking.CancelBufferMinutes) * time.Minute

	if appointment.StartAt.Sub(now) < buffer {
		return res, failure.CancellationWindow(fmt.Sprintf( // nolint:wrapcheck
			"Appointments can only be cancelled at least %d minutes in advance",
			s.cfg.Booking.CancelBufferMinutes,
		))
	}

	reason := dto.Sanitize(req.Reason)
	if reason == constant.Empty {
		reason = defaultCancelReason
	}

	cancelled, err := s.repo.Cancel(ctx, id, reason, now)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to cancel appointment")

		return res, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	if !cancelled {
		return res, failure.AlreadyCancelled("Appointment is already cancelled") // nolint:wrapcheck
	}

	appointment.Status = model.StatusCancelled
	appointment.CancellationReason = reason
	s.events.Cancelled(ctx, appointment)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheDaySchedule, appointment.Date))
		shared.InvalidateCaches(c, s.cache, cacheMetrics)
	}()

	res.Confirmed = true
	res.Message = "Appointment cancelled successfully"

	return res, nil
}

// DaySchedule projects one day onto the fixed slot grid. The grid is
// recomputed on every cache miss; slots carry an anonymized holder name so
// the schedule can be shown publicly.
func (s *serviceImpl) DaySchedule(ctx context.Context, date string) (res dto.DayScheduleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DaySchedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !timeslot.IsValidDateFormat(date) {
		return res, failure.BadRequestFromString("date must be a valid YYYY-MM-DD date") // nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheDaySchedule, date)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for day schedule")

		return res, nil
	}

	appointments, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("failed to list appointments")

		return res, fmt.Errorf("failed to list appointments: %w", err)
	}

	activeBySlot := make(map[string]model.Appointment)

	res.Date = date
	res.Appointments = make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		res.Appointments[i].FromModel(appointment)

		if appointment.IsActive() {
			activeBySlot[appointment.StartTime] = appointment
		}
	}

	times := s.window.Times()
	res.Slots = make([]dto.TimeSlot, len(times))
	res.TotalSlots = len(times)

	for i, slotTime := range times {
		slot := dto.TimeSlot{
			SlotID:    i,
			Time:      slotTime,
			Available: true,
		}

		if holder, booked := activeBySlot[slotTime]; booked {
			slot.Available = false
			slot.BookedBy = dto.AnonymizeName(holder.CustomerName)
			slot.AppointmentID = holder.ID
		} else {
			res.AvailableSlots++
		}

		res.Slots[i] = slot
	}

	res.BusinessHours = dto.BusinessHours{
		OpenHour:    s.cfg.Booking.OpenHour,
		CloseHour:   s.cfg.Booking.CloseHour,
		SlotMinutes: s.cfg.Booking.SlotMinutes,
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save day schedule to cache")
		}
	}()

	return res, nil
}

// Metrics aggregates booking counts for a date and its Monday-start week.
// An empty date means today in UTC.
func (s *serviceImpl) Metrics(ctx context.Context, date string) (res dto.MetricsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Metrics")
	defer scope.End()
	defer scope.TraceIfError(err)

	if date == constant.Empty {
		date = s.now().UTC().Format(constant.DateFormat)
	}

	if !timeslot.IsValidDateFormat(date) {
		return res, failure.BadRequestFromString("date must be a valid YYYY-MM-DD date") // nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheMetrics, date)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for metrics")

		return res, nil
	}

	today, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("failed to list appointments for metrics")

		return res, fmt.Errorf("failed to list appointments for metrics: %w", err)
	}

	weekStart, weekEnd := weekBounds(date)

	week, err := s.repo.ListByDateRange(ctx, weekStart, weekEnd, false)
	if err != nil {
		log.Error().Err(err).Str("weekStart", weekStart).Msg("failed to list week appointments for metrics")

		return res, fmt.Errorf("failed to list week appointments for metrics: %w", err)
	}

	res.Date = date

	for _, appointment := range today {
		if appointment.IsActive() {
			res.AppointmentsToday++
		}
	}
	res.SlotsRemainingToday = s.window.TotalSlots() - res.AppointmentsToday

	for _, appointment := range week {
		if appointment.IsActive() {
			res.AppointmentsThisWeek++
		} else {
			res.CancellationsThisWeek++
		}
	}

	if denominator := res.AppointmentsThisWeek + res.CancellationsThisWeek; denominator > 0 {
		res.CancellationRate = float64(res.CancellationsThisWeek) / float64(denominator) * 100
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save metrics to cache")
		}
	}()

	return res, nil
}

// PurgeExpired removes records created before the configured retention
// horizon. Cancelled records survive until then for audit and metrics.
func (s *serviceImpl) PurgeExpired(ctx context.Context) (purged int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".PurgeExpired")
	defer scope.End()
	defer scope.TraceIfError(err)

	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.Booking.RetentionDays)

	purged, err = s.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to purge expired appointments")

		return 0, fmt.Errorf("failed to purge expired appointments: %w", err)
	}

	if purged > 0 {
		log.Info().Int("purged", purged).Time("cutoff", cutoff).Msg("purged expired appointments")

		go func() {
			c := context.WithoutCancel(ctx)

			shared.InvalidateCaches(c, s.cache, cacheDaySchedule)
			shared.InvalidateCaches(c, s.cache, cacheMetrics)
		}()
	}

	return purged, nil
}

func bookedRanges(appointments []model.Appointment) []timeslot.BookedRange {
	ranges := make([]timeslot.BookedRange, len(appointments))
	for i, appointment := range appointments {
		ranges[i] = timeslot.BookedRange{
			StartTime: appointment.StartTime,
			EndTime:   appointment.EndTime,
			Active:    appointment.IsActive(),
		}
	}

	return ranges
}

// weekBounds returns the Monday and Sunday of the week containing date.
// The date has been validated, so the parse cannot fail.
func weekBounds(date string) (string, string) {
	day, _ := time.Parse(constant.DateFormat, date)

	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)

	return monday.Format(constant.DateFormat), sunday.Format(constant.DateFormat)
}
