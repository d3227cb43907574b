package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"slotbook/infras/otel"
	"slotbook/internal/domains/appointment/model"
	"slotbook/shared/constant"
)

// memoryImpl keeps appointments in process memory. byID owns the records;
// bySlot indexes the id of the active appointment per slot key. Reads take
// the read lock and copy, so callers never observe a half-written record.
type memoryImpl struct {
	mu     sync.RWMutex
	byID   map[string]model.Appointment
	bySlot map[string]string
	slots  *slotLocks
	otel   otel.Otel
}

func NewMemory(ot otel.Otel) Appointment {
	return &memoryImpl{
		byID:   make(map[string]model.Appointment),
		bySlot: make(map[string]string),
		slots:  newSlotLocks(),
		otel:   ot,
	}
}

func (r *memoryImpl) Get(ctx context.Context, id string) (res model.Appointment, found bool, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".Get")
	defer scope.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	res, found = r.byID[id]

	return res, found, nil
}

func (r *memoryImpl) ListByDate(ctx context.Context, date string) (res []model.Appointment, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".ListByDate")
	defer scope.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, appointment := range r.byID {
		if appointment.Date == date && appointment.IsActive() {
			res = append(res, appointment)
		}
	}

	sortByStart(res)

	return res, nil
}

func (r *memoryImpl) ListByDateRange(ctx context.Context, startDate, endDate string, activeOnly bool) (res []model.Appointment, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".ListByDateRange")
	defer scope.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, appointment := range r.byID {
		if appointment.Date < startDate || appointment.Date > endDate {
			continue
		}

		if activeOnly && !appointment.IsActive() {
			continue
		}

		res = append(res, appointment)
	}

	sortByStart(res)

	return res, nil
}

// ReserveIfAvailable serializes per slot key. The slot lock covers the
// availability check and the insert, so two racers for the same slot cannot
// both observe it free; the loser gets reserved=false.
func (r *memoryImpl) ReserveIfAvailable(ctx context.Context, candidate model.Appointment) (res model.Appointment, reserved bool, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".ReserveIfAvailable")
	defer scope.End()

	key := candidate.SlotKey()

	release := r.slots.Acquire(key)
	defer release()

	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, taken := r.bySlot[key]; taken {
		if r.byID[holder].IsActive() {
			return model.Appointment{}, false, nil
		}
	}

	r.byID[candidate.ID] = candidate
	r.bySlot[key] = candidate.ID

	return candidate, true, nil
}

func (r *memoryImpl) Cancel(ctx context.Context, id, reason string, at time.Time) (cancelled bool, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".Cancel")
	defer scope.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, found := r.byID[id]
	if !found || !appointment.IsActive() {
		return false, nil
	}

	cancelledAt := at
	appointment.Status = model.StatusCancelled
	appointment.CancelledAt = &cancelledAt
	appointment.CancellationReason = reason
	appointment.UpdatedAt = at

	r.byID[id] = appointment
	delete(r.bySlot, appointment.SlotKey())

	return true, nil
}

func (r *memoryImpl) PurgeOlderThan(ctx context.Context, cutoff time.Time) (purged int, err error) {
	_, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".PurgeOlderThan")
	defer scope.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, appointment := range r.byID {
		if !appointment.CreatedAt.Before(cutoff) {
			continue
		}

		delete(r.byID, id)

		// A cancelled record's slot may have been rebooked; only drop the
		// index entry when it still points at the purged record.
		if r.bySlot[appointment.SlotKey()] == id {
			delete(r.bySlot, appointment.SlotKey())
		}

		purged++
	}

	return purged, nil
}

func sortByStart(appointments []model.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}

		return appointments[i].StartTime < appointments[j].StartTime
	})
}
