// Package client is the Go client for the appointment API. It can
// pre-validate a candidate slot locally before making a request, as a UX
// optimism layer only: the server re-runs every check and stays the sole
// authority on availability.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"slotbook/internal/domains/appointment/model/dto"
	"slotbook/shared/constant"
	"slotbook/shared/failure"
	"slotbook/shared/timeslot"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	window  timeslot.Window
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithWindow overrides the business window used for local pre-validation.
// It must match the server's configuration to be a useful mirror.
func WithWindow(window timeslot.Window) Option {
	return func(c *Client) {
		c.window = window
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		window: timeslot.Window{
			OpenHour:    7,
			CloseHour:   19,
			SlotMinutes: 30,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckSlot runs the same slot rules the server applies, against locally
// known bookings. A nil result means the booking is worth attempting, not
// that it will succeed; a concurrent booking can still win the slot.
func (c *Client) CheckSlot(date, startTime string, loc *time.Location, now time.Time, existing []timeslot.BookedRange) error {
	if !timeslot.IsValidDateFormat(date) {
		return failure.BadRequestFromString("date must be a valid YYYY-MM-DD date")
	}

	if !timeslot.IsValidTimeFormat(startTime) {
		return failure.BadRequestFromString("start time must be a valid HH:MM time")
	}

	startTime = timeslot.Normalize(startTime)

	if !c.window.ContainsSlot(startTime) {
		return failure.BusinessRule(fmt.Sprintf(
			"Appointments are only available between %02d:00 and %02d:00",
			c.window.OpenHour, c.window.CloseHour,
		))
	}

	if !c.window.OnSlotBoundary(startTime) {
		return failure.BusinessRule(fmt.Sprintf(
			"Appointments must start on a %d-minute boundary", c.window.SlotMinutes,
		))
	}

	past, err := timeslot.IsInPast(date, startTime, loc, now)
	if err != nil {
		return failure.BadRequestFromString(err.Error())
	}

	if past {
		return failure.BusinessRule("Cannot book appointments in the past")
	}

	if timeslot.HasOverlap(startTime, c.window.SlotMinutes, existing) {
		return failure.Overlap("This time slot overlaps with an existing appointment")
	}

	return nil
}

func (c *Client) CreateAppointment(ctx context.Context, req dto.CreateAppointmentRequest) (dto.CreateAppointmentResponse, error) {
	var res dto.CreateAppointmentResponse

	err := c.do(ctx, http.MethodPost, "/v1/appointments", req, &res)

	return res, err
}

func (c *Client) CancelAppointment(ctx context.Context, id, reason string) (dto.CancelAppointmentResponse, error) {
	var res dto.CancelAppointmentResponse

	err := c.do(ctx, http.MethodDelete, "/v1/appointments/"+id, dto.CancelAppointmentRequest{Reason: reason}, &res)

	return res, err
}

func (c *Client) DaySchedule(ctx context.Context, date string) (dto.DayScheduleResponse, error) {
	var res dto.DayScheduleResponse

	err := c.do(ctx, http.MethodGet, "/v1/appointments?date="+date, nil, &res)

	return res, err
}

func (c *Client) Metrics(ctx context.Context, date string) (dto.MetricsResponse, error) {
	var res dto.MetricsResponse

	path := "/v1/metrics"
	if date != constant.Empty {
		path += "?date=" + date
	}

	err := c.do(ctx, http.MethodGet, path, nil, &res)

	return res, err
}

// BookedRangesFromSchedule projects a day schedule onto the ranges CheckSlot
// consumes, so a freshly fetched schedule can feed local pre-validation.
func BookedRangesFromSchedule(schedule dto.DayScheduleResponse) []timeslot.BookedRange {
	ranges := make([]timeslot.BookedRange, 0, len(schedule.Appointments))
	for _, appointment := range schedule.Appointments {
		ranges = append(ranges, timeslot.BookedRange{
			StartTime: appointment.StartTime,
			EndTime:   appointment.EndTime,
			Active:    appointment.Status == "active",
		})
	}

	return ranges
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		payload = bytes.NewReader(encoded)
	} else {
		payload = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	request.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	resp, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var failed errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&failed); err != nil {
			return &failure.Failure{Code: resp.StatusCode, Message: resp.Status}
		}

		return &failure.Failure{
			Code:    resp.StatusCode,
			Kind:    failed.Kind,
			Message: failed.Error,
		}
	}

	if out == nil {
		return nil
	}

	var envelope dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}

	return nil
}
