package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"slotbook/config"
	otelMocks "slotbook/infras/otel/mocks"
	"slotbook/internal/domains/appointment/events"
	"slotbook/internal/domains/appointment/mocks"
	"slotbook/internal/domains/appointment/model"
	"slotbook/internal/domains/appointment/model/dto"
	"slotbook/internal/domains/appointment/service"
	"slotbook/shared/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeCache struct {
	mu     sync.Mutex
	saved  map[string]any
	clears []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{saved: make(map[string]any)}
}

func (f *fakeCache) Save(_ context.Context, key string, value any, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved[key] = value

	return nil
}

func (f *fakeCache) Get(_ context.Context, _ string, _ any) error {
	return errors.New("cache miss")
}

func (f *fakeCache) Delete(_ context.Context, _ string) error {
	return nil
}

func (f *fakeCache) Clear(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clears = append(f.clears, prefix)

	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	created   []model.Appointment
	cancelled []model.Appointment
}

func (f *fakePublisher) Created(_ context.Context, appointment model.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, appointment)
}

func (f *fakePublisher) Cancelled(_ context.Context, appointment model.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelled = append(f.cancelled, appointment)
}

var _ events.Publisher = (*fakePublisher)(nil)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Booking.OpenHour = 7
	cfg.Booking.CloseHour = 19
	cfg.Booking.SlotMinutes = 30
	cfg.Booking.CancelBufferMinutes = 30
	cfg.Booking.RetentionDays = 90
	cfg.Cache.TTL = 60

	return cfg
}

func newTestService(t *testing.T, now time.Time) (service.Appointment, *mocks.MockAppointment, *fakePublisher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAppointment(ctrl)
	publisher := &fakePublisher{}

	svc := service.NewWithClock(repo, testConfig(), newFakeCache(), publisher, otelMocks.NewOtel(), func() time.Time {
		return now
	})

	return svc, repo, publisher
}

func intPtr(v int) *int {
	return &v
}

func TestCreateSuccess(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, repo, publisher := newTestService(t, now)

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return(nil, nil)
	repo.EXPECT().
		ReserveIfAvailable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, candidate model.Appointment) (model.Appointment, bool, error) {
			assert.Equal(t, "07:30", candidate.StartTime)
			assert.Equal(t, "08:00", candidate.EndTime)
			assert.Equal(t, model.StatusActive, candidate.Status)
			assert.Equal(t, time.Date(2025, 9, 25, 7, 30, 0, 0, time.UTC), candidate.StartAt)
			assert.NotEmpty(t, candidate.ID)

			return candidate, true, nil
		})

	res, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:  "Ana Pramudita",
		CustomerEmail: "ana@example.com",
		Date:          "2025-09-25",
		StartTime:     "7:30",
		Timezone:      "UTC",
	})

	require.NoError(t, err)
	assert.Equal(t, "APT-20250925-0730", res.ConfirmationCode)
	assert.Equal(t, "active", res.Appointment.Status)
	assert.Equal(t, "08:00", res.Appointment.EndTime)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Len(t, publisher.created, 1)
}

func TestCreatePastSameDayRejected(t *testing.T) {
	// 15:00 local in UTC+7 is 08:00 UTC; a 07:00 local slot that day has passed.
	now := time.Date(2025, 9, 25, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:   "Ana Pramudita",
		CustomerEmail:  "ana@example.com",
		Date:           "2025-09-25",
		StartTime:      "07:00",
		TimezoneOffset: intPtr(-420),
	})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindBusinessRule))
	assert.Equal(t, "Cannot book appointments in the past", err.Error())
}

func TestCreateMidnightBoundary(t *testing.T) {
	// 00:30 local in UTC+7 is 17:30 UTC the previous calendar day; a 07:00
	// local slot that morning is still in the future and must be accepted.
	now := time.Date(2025, 9, 24, 17, 30, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return(nil, nil)
	repo.EXPECT().
		ReserveIfAvailable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, candidate model.Appointment) (model.Appointment, bool, error) {
			assert.Equal(t, time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC), candidate.StartAt)

			return candidate, true, nil
		})

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:   "Ana Pramudita",
		CustomerEmail:  "ana@example.com",
		Date:           "2025-09-25",
		StartTime:      "07:00",
		TimezoneOffset: intPtr(-420),
	})

	require.NoError(t, err)
}

func TestCreateOutsideBusinessHours(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	for _, startTime := range []string{"06:30", "19:00", "23:45"} {
		_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
			CustomerName:  "Ana Pramudita",
			CustomerEmail: "ana@example.com",
			Date:          "2025-09-25",
			StartTime:     startTime,
			Timezone:      "UTC",
		})

		require.Error(t, err, startTime)
		assert.True(t, failure.IsKind(err, failure.KindBusinessRule), startTime)
	}
}

func TestCreateOffSlotBoundary(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:  "Ana Pramudita",
		CustomerEmail: "ana@example.com",
		Date:          "2025-09-25",
		StartTime:     "07:45",
		Timezone:      "UTC",
	})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindBusinessRule))
}

func TestCreateOverlapRejected(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return([]model.Appointment{
		{
			ID:        "existing",
			Date:      "2025-09-25",
			StartTime: "07:30",
			EndTime:   "08:00",
			Status:    model.StatusActive,
		},
	}, nil)

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:  "Ana Pramudita",
		CustomerEmail: "ana@example.com",
		Date:          "2025-09-25",
		StartTime:     "07:30",
		Timezone:      "UTC",
	})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindOverlap))
	assert.Equal(t, "This time slot overlaps with an existing appointment", err.Error())
}

func TestCreateCancelledDoesNotBlock(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	// A cancelled holder is invisible to the active-only day listing, so the
	// overlap pre-check sees a free slot and the reservation goes through.
	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return(nil, nil)
	repo.EXPECT().
		ReserveIfAvailable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, candidate model.Appointment) (model.Appointment, bool, error) {
			return candidate, true, nil
		})

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:  "Ana Pramudita",
		CustomerEmail: "ana@example.com",
		Date:          "2025-09-25",
		StartTime:     "07:30",
		Timezone:      "UTC",
	})

	require.NoError(t, err)
}

func TestCreateRaceLost(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, repo, publisher := newTestService(t, now)

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return(nil, nil)
	repo.EXPECT().ReserveIfAvailable(gomock.Any(), gomock.Any()).Return(model.Appointment{}, false, nil)

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:  "Ana Pramudita",
		CustomerEmail: "ana@example.com",
		Date:          "2025-09-25",
		StartTime:     "07:30",
		Timezone:      "UTC",
	})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindSlotTaken))
	assert.False(t, failure.IsKind(err, failure.KindOverlap), "race loss must be distinct from the overlap pre-check")

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Empty(t, publisher.created)
}

func TestCreateUnknownTimezone(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	_, err := svc.Create(context.Background(), dto.CreateAppointmentRequest{
		CustomerName:  "Ana Pramudita",
		CustomerEmail: "ana@example.com",
		Date:          "2025-09-25",
		StartTime:     "07:30",
		Timezone:      "Mars/Olympus",
	})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindValidation))
}

func TestCancelSuccess(t *testing.T) {
	now := time.Date(2025, 9, 25, 6, 45, 0, 0, time.UTC)
	svc, repo, publisher := newTestService(t, now)

	appointment := model.Appointment{
		ID:        "apt-1",
		Date:      "2025-09-25",
		StartTime: "07:30",
		StartAt:   time.Date(2025, 9, 25, 7, 30, 0, 0, time.UTC),
		Status:    model.StatusActive,
	}

	repo.EXPECT().Get(gomock.Any(), "apt-1").Return(appointment, true, nil)
	repo.EXPECT().Cancel(gomock.Any(), "apt-1", "changed plans", now).Return(true, nil)

	res, err := svc.Cancel(context.Background(), "apt-1", dto.CancelAppointmentRequest{Reason: "changed plans"})

	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, "Appointment cancelled successfully", res.Message)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Len(t, publisher.cancelled, 1)
}

func TestCancelDefaultReason(t *testing.T) {
	now := time.Date(2025, 9, 25, 6, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	appointment := model.Appointment{
		ID:      "apt-1",
		Date:    "2025-09-25",
		StartAt: time.Date(2025, 9, 25, 7, 30, 0, 0, time.UTC),
		Status:  model.StatusActive,
	}

	repo.EXPECT().Get(gomock.Any(), "apt-1").Return(appointment, true, nil)
	repo.EXPECT().Cancel(gomock.Any(), "apt-1", "Customer cancellation", now).Return(true, nil)

	_, err := svc.Cancel(context.Background(), "apt-1", dto.CancelAppointmentRequest{})
	require.NoError(t, err)
}

func TestCancelInsideLeadTime(t *testing.T) {
	// The appointment starts in 10 minutes; the 30-minute buffer forbids it.
	now := time.Date(2025, 9, 25, 7, 20, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	appointment := model.Appointment{
		ID:      "apt-1",
		StartAt: time.Date(2025, 9, 25, 7, 30, 0, 0, time.UTC),
		Status:  model.StatusActive,
	}

	repo.EXPECT().Get(gomock.Any(), "apt-1").Return(appointment, true, nil)

	_, err := svc.Cancel(context.Background(), "apt-1", dto.CancelAppointmentRequest{})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindCancelWindow))
}

func TestCancelOutsideLeadTime(t *testing.T) {
	// 45 minutes ahead clears the 30-minute buffer.
	now := time.Date(2025, 9, 25, 6, 45, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	appointment := model.Appointment{
		ID:      "apt-1",
		StartAt: time.Date(2025, 9, 25, 7, 30, 0, 0, time.UTC),
		Status:  model.StatusActive,
	}

	repo.EXPECT().Get(gomock.Any(), "apt-1").Return(appointment, true, nil)
	repo.EXPECT().Cancel(gomock.Any(), "apt-1", "Customer cancellation", now).Return(true, nil)

	_, err := svc.Cancel(context.Background(), "apt-1", dto.CancelAppointmentRequest{})
	require.NoError(t, err)
}

func TestCancelNotFound(t *testing.T) {
	now := time.Date(2025, 9, 25, 6, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	repo.EXPECT().Get(gomock.Any(), "missing").Return(model.Appointment{}, false, nil)

	_, err := svc.Cancel(context.Background(), "missing", dto.CancelAppointmentRequest{})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindNotFound))
}

func TestCancelAlreadyCancelled(t *testing.T) {
	now := time.Date(2025, 9, 25, 6, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	appointment := model.Appointment{
		ID:      "apt-1",
		StartAt: time.Date(2025, 9, 25, 7, 30, 0, 0, time.UTC),
		Status:  model.StatusCancelled,
	}

	repo.EXPECT().Get(gomock.Any(), "apt-1").Return(appointment, true, nil)

	_, err := svc.Cancel(context.Background(), "apt-1", dto.CancelAppointmentRequest{})

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindAlreadyCancelled))
}

func TestDayScheduleEmptyDay(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return(nil, nil)

	res, err := svc.DaySchedule(context.Background(), "2025-09-25")

	require.NoError(t, err)
	assert.Equal(t, 24, res.TotalSlots)
	assert.Equal(t, 24, res.AvailableSlots)
	assert.Len(t, res.Slots, 24)
	assert.Equal(t, "07:00", res.Slots[0].Time)
	assert.Equal(t, "18:30", res.Slots[23].Time)

	for _, slot := range res.Slots {
		assert.True(t, slot.Available)
	}
}

func TestDayScheduleWithBooking(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	// The store hands back active records only; cancelled ones never reach
	// the schedule.
	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return([]model.Appointment{
		{
			ID:           "apt-1",
			CustomerName: "Ana Pramudita",
			Date:         "2025-09-25",
			StartTime:    "07:30",
			EndTime:      "08:00",
			Status:       model.StatusActive,
		},
		{
			ID:           "apt-2",
			CustomerName: "Budi Santoso",
			Date:         "2025-09-25",
			StartTime:    "09:00",
			EndTime:      "09:30",
			Status:       model.StatusActive,
		},
	}, nil)

	res, err := svc.DaySchedule(context.Background(), "2025-09-25")

	require.NoError(t, err)
	assert.Equal(t, 22, res.AvailableSlots)
	assert.Len(t, res.Appointments, 2)

	booked := res.Slots[1]
	assert.Equal(t, "07:30", booked.Time)
	assert.False(t, booked.Available)
	assert.Equal(t, "Ana P.", booked.BookedBy)
	assert.Equal(t, "apt-1", booked.AppointmentID)

	second := res.Slots[4]
	assert.Equal(t, "09:00", second.Time)
	assert.False(t, second.Available)
	assert.Equal(t, "Budi S.", second.BookedBy)
}

func TestDayScheduleBadDate(t *testing.T) {
	now := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	_, err := svc.DaySchedule(context.Background(), "25-09-2025")

	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindValidation))
}

func TestMetrics(t *testing.T) {
	now := time.Date(2025, 9, 25, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	active := func(id, date, startTime string) model.Appointment {
		return model.Appointment{ID: id, Date: date, StartTime: startTime, Status: model.StatusActive}
	}

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return([]model.Appointment{
		active("a", "2025-09-25", "07:30"),
		active("b", "2025-09-25", "09:00"),
	}, nil)

	// 2025-09-25 is a Thursday; its Monday-start week runs Sep 22 through 28.
	repo.EXPECT().ListByDateRange(gomock.Any(), "2025-09-22", "2025-09-28", false).Return([]model.Appointment{
		active("a", "2025-09-25", "07:30"),
		active("b", "2025-09-25", "09:00"),
		active("c", "2025-09-22", "10:00"),
		{ID: "d", Date: "2025-09-24", StartTime: "11:00", Status: model.StatusCancelled},
	}, nil)

	res, err := svc.Metrics(context.Background(), "2025-09-25")

	require.NoError(t, err)
	assert.Equal(t, 2, res.AppointmentsToday)
	assert.Equal(t, 22, res.SlotsRemainingToday)
	assert.Equal(t, 3, res.AppointmentsThisWeek)
	assert.Equal(t, 1, res.CancellationsThisWeek)
	assert.InDelta(t, 25.0, res.CancellationRate, 0.001)
}

func TestMetricsDefaultsToToday(t *testing.T) {
	now := time.Date(2025, 9, 25, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	repo.EXPECT().ListByDate(gomock.Any(), "2025-09-25").Return(nil, nil)
	repo.EXPECT().ListByDateRange(gomock.Any(), "2025-09-22", "2025-09-28", false).Return(nil, nil)

	res, err := svc.Metrics(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "2025-09-25", res.Date)
	assert.Equal(t, 0, res.AppointmentsToday)
	assert.Equal(t, 24, res.SlotsRemainingToday)
	assert.Zero(t, res.CancellationRate)
}

func TestPurgeExpired(t *testing.T) {
	now := time.Date(2025, 9, 25, 3, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	cutoff := now.AddDate(0, 0, -90)
	repo.EXPECT().PurgeOlderThan(gomock.Any(), cutoff).Return(4, nil)

	purged, err := svc.PurgeExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, purged)
}
