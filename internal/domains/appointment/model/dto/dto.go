package dto

import (
	"fmt"
	"strings"
	"time"

	"slotbook/internal/domains/appointment/model"
	"slotbook/shared/timeslot"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips any markup from customer-supplied free text.
func Sanitize(s string) string {
	return strings.TrimSpace(sanitizer.Sanitize(s))
}

// AnonymizeName reduces a customer name to "First L." for the public slot
// grid, so other visitors see who holds a slot without the full identity.
func AnonymizeName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	if len(fields) == 1 {
		return fields[0]
	}

	return fmt.Sprintf("%s %s.", fields[0], strings.ToUpper(fields[len(fields)-1][:1]))
}

type CreateAppointmentRequest struct {
	CustomerName   string `json:"customer_name"   validate:"required,max=100"`
	CustomerEmail  string `json:"customer_email"  validate:"required,email,max=100"`
	Date           string `json:"date"            validate:"required,dateformat"`
	StartTime      string `json:"start_time"      validate:"required,timeformat"`
	Notes          string `json:"notes"           validate:"omitempty,max=500"`
	Timezone       string `json:"timezone"        validate:"omitempty"`
	TimezoneOffset *int   `json:"timezone_offset" validate:"omitempty,gte=-840,lte=840"`
}

// Location resolves the request's timezone reference. The named zone wins
// over the numeric offset; with neither, UTC.
func (c *CreateAppointmentRequest) Location() (*time.Location, error) {
	return timeslot.ResolveLocation(c.Timezone, c.TimezoneOffset)
}

// ToModel builds the candidate appointment. EndTime, StartAt and the
// timestamps are filled by the caller once the slot duration and reference
// clock are known.
func (c *CreateAppointmentRequest) ToModel() model.Appointment {
	return model.Appointment{
		ID:            uuid.NewString(),
		CustomerName:  Sanitize(c.CustomerName),
		CustomerEmail: strings.ToLower(Sanitize(c.CustomerEmail)),
		Date:          c.Date,
		StartTime:     timeslot.Normalize(c.StartTime),
		Notes:         Sanitize(c.Notes),
		Status:        model.StatusActive,
	}
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type AppointmentResponse struct {
	ID                 string     `json:"id"`
	CustomerName       string     `json:"customer_name"`
	CustomerEmail      string     `json:"customer_email"`
	Date               string     `json:"date"`
	StartTime          string     `json:"start_time"`
	EndTime            string     `json:"end_time"`
	StartAt            time.Time  `json:"start_at"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r *AppointmentResponse) FromModel(mod model.Appointment) {
	r.ID = mod.ID
	r.CustomerName = mod.CustomerName
	r.CustomerEmail = mod.CustomerEmail
	r.Date = mod.Date
	r.StartTime = mod.StartTime
	r.EndTime = mod.EndTime
	r.StartAt = mod.StartAt
	r.Status = mod.Status
	r.Notes = mod.Notes
	r.CancelledAt = mod.CancelledAt
	r.CancellationReason = mod.CancellationReason
	r.CreatedAt = mod.CreatedAt
	r.UpdatedAt = mod.UpdatedAt
}

type CreateAppointmentResponse struct {
	Appointment      AppointmentResponse `json:"appointment"`
	ConfirmationCode string              `json:"confirmation_code"`
}

func (r *CreateAppointmentResponse) FromModel(mod model.Appointment) {
	r.Appointment.FromModel(mod)
	r.ConfirmationCode = ConfirmationCode(mod.Date, mod.StartTime)
}

// ConfirmationCode derives the booking reference from the slot identity.
// It is deterministic so re-sending a confirmation carries the same code.
func ConfirmationCode(date, startTime string) string {
	compactDate := strings.ReplaceAll(date, "-", "")
	compactTime := strings.ReplaceAll(timeslot.Normalize(startTime), ":", "")

	return fmt.Sprintf("APT-%s-%s", compactDate, compactTime)
}

type CancelAppointmentResponse struct {
	Confirmed bool   `json:"confirmed"`
	Message   string `json:"message"`
}

// TimeSlot is one grid position of a day schedule, recomputed on every
// query and never persisted.
type TimeSlot struct {
	SlotID        int    `json:"slot_id"`
	Time          string `json:"time"`
	Available     bool   `json:"available"`
	BookedBy      string `json:"booked_by,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`
}

type BusinessHours struct {
	OpenHour    int `json:"open_hour"`
	CloseHour   int `json:"close_hour"`
	SlotMinutes int `json:"slot_minutes"`
}

type DayScheduleResponse struct {
	Date           string                `json:"date"`
	Appointments   []AppointmentResponse `json:"appointments"`
	Slots          []TimeSlot            `json:"slots"`
	TotalSlots     int                   `json:"total_slots"`
	AvailableSlots int                   `json:"available_slots"`
	BusinessHours  BusinessHours         `json:"business_hours"`
}

type MetricsResponse struct {
	Date                  string  `json:"date"`
	AppointmentsToday     int     `json:"appointments_today"`
	SlotsRemainingToday   int     `json:"slots_remaining_today"`
	AppointmentsThisWeek  int     `json:"appointments_this_week"`
	CancellationsThisWeek int     `json:"cancellations_this_week"`
	CancellationRate      float64 `json:"cancellation_rate"`
}
