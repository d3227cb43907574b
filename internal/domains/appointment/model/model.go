package model

import (
	"time"
)

const (
	TableName  = "appointments"
	EntityName = "appointment"

	FieldID                 = "id"
	FieldCustomerName       = "customer_name"
	FieldCustomerEmail      = "customer_email"
	FieldDate               = "date"
	FieldStartTime          = "start_time"
	FieldEndTime            = "end_time"
	FieldStartAt            = "start_at"
	FieldStatus             = "status"
	FieldNotes              = "notes"
	FieldCancelledAt        = "cancelled_at"
	FieldCancellationReason = "cancellation_reason"
	FieldCreatedAt          = "created_at"
	FieldUpdatedAt          = "updated_at"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Appointment is one booked slot of the shared calendar. Date and StartTime
// are the wall-clock slot labels of the grid; StartAt is the UTC instant the
// slot begins, computed once from the client's timezone reference when the
// appointment is created. Temporal decisions made after creation (such as the
// cancellation lead-time check) use StartAt, never the wall-clock strings.
type Appointment struct {
	ID                 string     `db:"id"                  json:"id"`
	CustomerName       string     `db:"customer_name"       json:"customer_name"`
	CustomerEmail      string     `db:"customer_email"      json:"customer_email"`
	Date               string     `db:"date"                json:"date"`
	StartTime          string     `db:"start_time"          json:"start_time"`
	EndTime            string     `db:"end_time"            json:"end_time"`
	StartAt            time.Time  `db:"start_at"            json:"start_at"`
	Status             string     `db:"status"              json:"status"`
	Notes              string     `db:"notes"               json:"notes"`
	CancelledAt        *time.Time `db:"cancelled_at"        json:"cancelled_at,omitempty"`
	CancellationReason string     `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at"          json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"          json:"updated_at"`
}

// IsActive reports whether the appointment still occupies its slot.
func (a Appointment) IsActive() bool {
	return a.Status == StatusActive
}

// SlotKey identifies the slot an appointment occupies.
func (a Appointment) SlotKey() string {
	return SlotKey(a.Date, a.StartTime)
}

// SlotKey builds the slot identity used for reservation serialization.
func SlotKey(date, startTime string) string {
	return date + "-" + startTime
}
