package dto_test

import (
	"testing"
	"time"

	"slotbook/internal/domains/appointment/model"
	"slotbook/internal/domains/appointment/model/dto"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Ana Pramudita", dto.Sanitize("  Ana Pramudita  "))
	assert.Equal(t, "alert(1)", dto.Sanitize("<script>alert(1)</script>"))
	assert.Equal(t, "bold", dto.Sanitize("<b>bold</b>"))
}

func TestAnonymizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "first and last", in: "Ana Pramudita", want: "Ana P."},
		{name: "three parts keeps last initial", in: "Ana Maria Pramudita", want: "Ana P."},
		{name: "single name unchanged", in: "Ana", want: "Ana"},
		{name: "empty", in: "", want: ""},
		{name: "lowercase last initial uppercased", in: "ana pramudita", want: "ana P."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dto.AnonymizeName(tt.in))
		})
	}
}

func TestConfirmationCode(t *testing.T) {
	assert.Equal(t, "APT-20250925-0730", dto.ConfirmationCode("2025-09-25", "07:30"))
	assert.Equal(t, "APT-20250925-0730", dto.ConfirmationCode("2025-09-25", "7:30"))
	assert.Equal(t, "APT-20251231-1830", dto.ConfirmationCode("2025-12-31", "18:30"))
}

func TestCreateAppointmentRequestToModel(t *testing.T) {
	req := dto.CreateAppointmentRequest{
		CustomerName:  "<b>Ana</b> Pramudita",
		CustomerEmail: "  Ana@Example.COM ",
		Date:          "2025-09-25",
		StartTime:     "7:30",
		Notes:         "<i>first visit</i>",
	}

	mod := req.ToModel()

	assert.NotEmpty(t, mod.ID)
	assert.Equal(t, "Ana Pramudita", mod.CustomerName)
	assert.Equal(t, "ana@example.com", mod.CustomerEmail)
	assert.Equal(t, "2025-09-25", mod.Date)
	assert.Equal(t, "07:30", mod.StartTime)
	assert.Equal(t, "first visit", mod.Notes)
	assert.Equal(t, model.StatusActive, mod.Status)
}

func TestCreateAppointmentRequestLocation(t *testing.T) {
	offset := -420

	named := dto.CreateAppointmentRequest{Timezone: "Asia/Jakarta", TimezoneOffset: &offset}
	loc, err := named.Location()
	assert.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())

	numeric := dto.CreateAppointmentRequest{TimezoneOffset: &offset}
	loc, err = numeric.Location()
	assert.NoError(t, err)
	_, secs := mustZone(loc)
	assert.Equal(t, 7*3600, secs)

	neither := dto.CreateAppointmentRequest{}
	loc, err = neither.Location()
	assert.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	bad := dto.CreateAppointmentRequest{Timezone: "Mars/Olympus"}
	_, err = bad.Location()
	assert.Error(t, err)
}

func mustZone(loc *time.Location) (string, int) {
	return time.Date(2025, 9, 25, 12, 0, 0, 0, loc).Zone()
}
