package failure

import (
	"errors"
	"net/http"
)

// Kind discriminates failure categories beyond the HTTP status code. Clients
// use it to tell apart cases that share a status, e.g. an overlap detected by
// the pre-check versus a reservation lost to a concurrent booking.
const (
	KindValidation       = "validation"
	KindBusinessRule     = "business_rule"
	KindOverlap          = "overlap"
	KindSlotTaken        = "slot_taken"
	KindNotFound         = "not_found"
	KindAlreadyCancelled = "already_cancelled"
	KindCancelWindow     = "cancellation_window"
	KindInternal         = "internal"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
type Failure struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusBadRequest,
			Kind:    KindValidation,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: msg,
	}
}

// BusinessRule returns a new Failure for a violated scheduling rule, e.g. a
// slot outside business hours or a start time already in the past.
func BusinessRule(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Kind:    KindBusinessRule,
		Message: msg,
	}
}

// Overlap returns a new Failure for a candidate slot conflicting with an
// existing active appointment, detected by the availability pre-check.
func Overlap(msg string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindOverlap,
		Message: msg,
	}
}

// SlotTaken returns a new Failure for a reservation lost to a concurrent
// booking: the pre-check passed but the atomic reserve found the slot taken.
func SlotTaken(msg string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Kind:    KindSlotTaken,
		Message: msg,
	}
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(msg string) error {
	return &Failure{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: msg,
	}
}

// AlreadyCancelled returns a new Failure for cancelling a non-active appointment.
func AlreadyCancelled(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Kind:    KindAlreadyCancelled,
		Message: msg,
	}
}

// CancellationWindow returns a new Failure for a cancellation attempted inside
// the lead-time buffer before the appointment starts.
func CancellationWindow(msg string) error {
	return &Failure{
		Code:    http.StatusBadRequest,
		Kind:    KindCancelWindow,
		Message: msg,
	}
}

// Conflict returns a new Failure with code for conflict situations.
func Conflict(message string) error {
	return &Failure{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{
			Code:    http.StatusInternalServerError,
			Kind:    KindInternal,
			Message: err.Error(),
		}
	}

	return nil
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetKind returns the failure kind of an error interface, or KindInternal for
// errors that are not Failures.
func GetKind(err error) string {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Kind
	}

	return KindInternal
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind string) bool {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Kind == kind
	}

	return false
}
