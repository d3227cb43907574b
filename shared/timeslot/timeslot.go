package timeslot

import (
	"fmt"
	"regexp"
	"time"
)

const (
	minutesPerDay  = 24 * 60
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var (
	timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Window is the daily business window of the calendar. Slots start every
// SlotMinutes from OpenHour:00; the last slot ends exactly at CloseHour:00.
type Window struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

// TotalSlots returns the number of slots the window holds per day.
func (w Window) TotalSlots() int {
	if w.SlotMinutes <= 0 || w.CloseHour <= w.OpenHour {
		return 0
	}

	return (w.CloseHour - w.OpenHour) * 60 / w.SlotMinutes
}

// Times returns every slot start time of the window, in grid order.
func (w Window) Times() []string {
	times := make([]string, 0, w.TotalSlots())

	openMinutes := w.OpenHour * 60
	closeMinutes := w.CloseHour * 60

	for m := openMinutes; m+w.SlotMinutes <= closeMinutes; m += w.SlotMinutes {
		times = append(times, MinutesToTime(m))
	}

	return times
}

// Contains reports whether a booking of the given duration starting at t lies
// fully inside the window. Malformed times are never contained.
func (w Window) Contains(t string, duration int) bool {
	if !IsValidTimeFormat(t) {
		return false
	}

	start := TimeToMinutes(t)
	end := start + duration

	return start >= w.OpenHour*60 && end <= w.CloseHour*60
}

// ContainsSlot is Contains for the window's own slot duration.
func (w Window) ContainsSlot(t string) bool {
	return w.Contains(t, w.SlotMinutes)
}

// OnSlotBoundary reports whether t falls on the window's slot grid.
func (w Window) OnSlotBoundary(t string) bool {
	if !IsValidTimeFormat(t) || w.SlotMinutes <= 0 {
		return false
	}

	return (TimeToMinutes(t)-w.OpenHour*60)%w.SlotMinutes == 0
}

// LastStart returns the latest valid slot start time of the window.
func (w Window) LastStart() string {
	return MinutesToTime(w.CloseHour*60 - w.SlotMinutes)
}

// IsValidTimeFormat reports whether t is an H:MM or HH:MM wall-clock time
// with hour 0-23 and minute 0-59.
func IsValidTimeFormat(t string) bool {
	match := timePattern.FindStringSubmatch(t)
	if match == nil {
		return false
	}

	var hour, minute int
	fmt.Sscanf(match[1], "%d", &hour)
	fmt.Sscanf(match[2], "%d", &minute)

	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// IsValidDateFormat reports whether d is a YYYY-MM-DD calendar date.
func IsValidDateFormat(d string) bool {
	if !datePattern.MatchString(d) {
		return false
	}

	_, err := time.Parse(dateLayout, d)

	return err == nil
}

// TimeToMinutes converts a wall-clock time to its minute of day. The input
// must satisfy IsValidTimeFormat; anything else is a caller error.
func TimeToMinutes(t string) int {
	var hour, minute int
	fmt.Sscanf(t, "%d:%d", &hour, &minute)

	return hour*60 + minute
}

// MinutesToTime converts a minute of day in [0, 1439] back to HH:MM.
func MinutesToTime(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Normalize pads an H:MM time to HH:MM. Invalid input is returned unchanged.
func Normalize(t string) string {
	if !IsValidTimeFormat(t) {
		return t
	}

	return MinutesToTime(TimeToMinutes(t))
}

// CalculateEndTime returns the end time of a booking starting at t, wrapping
// past midnight (23:45 + 30min yields 00:15). Business-hours containment is a
// separate check; this function only does the modular arithmetic.
func CalculateEndTime(t string, duration int) string {
	total := (TimeToMinutes(t) + duration) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}

	return MinutesToTime(total)
}

// HasTimeOverlap reports whether the half-open minute ranges [startA, endA)
// and [startB, endB) intersect. Touching ranges do not overlap.
func HasTimeOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}

// BookedRange is an existing booking projected to its wall-clock range.
type BookedRange struct {
	StartTime string
	EndTime   string
	Active    bool
}

// HasOverlap reports whether a booking of the given duration starting at t
// would overlap any active range in existing. Cancelled ranges never
// conflict; an empty list never conflicts.
func HasOverlap(t string, duration int, existing []BookedRange) bool {
	start := TimeToMinutes(t)
	end := start + duration

	for _, booked := range existing {
		if !booked.Active {
			continue
		}

		bookedStart := TimeToMinutes(booked.StartTime)
		bookedEnd := TimeToMinutes(booked.EndTime)

		if HasTimeOverlap(start, end, bookedStart, bookedEnd) {
			return true
		}
	}

	return false
}

// ResolveLocation collapses the two timezone-reference representations the
// client may send into one *time.Location. A named IANA zone wins over an
// explicit offset. offsetMinutes follows the JavaScript getTimezoneOffset
// convention: the minutes to add to local wall-clock time to reach UTC, so
// UTC+7 is -420. With neither representation present, UTC is assumed.
func ResolveLocation(name string, offsetMinutes *int) (*time.Location, error) {
	if name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
		}

		return loc, nil
	}

	if offsetMinutes != nil {
		seconds := -*offsetMinutes * 60
		zoneName := fmt.Sprintf("UTC%+03d:%02d", seconds/3600, abs(seconds/60)%60)

		return time.FixedZone(zoneName, seconds), nil
	}

	return time.UTC, nil
}

// ToInstant converts a wall-clock date+time expressed in loc into the
// corresponding UTC instant. This is the single authoritative conversion
// point; every past/future decision must go through instants produced here.
func ToInstant(date, t string, loc *time.Location) (time.Time, error) {
	if !IsValidDateFormat(date) {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}

	if !IsValidTimeFormat(t) {
		return time.Time{}, fmt.Errorf("invalid time %q, want HH:MM", t)
	}

	instant, err := time.ParseInLocation(dateTimeLayout, date+" "+Normalize(t), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %s: %w", date, t, err)
	}

	return instant.UTC(), nil
}

// IsInPast reports whether the wall-clock date+time in loc is at or before
// now. A slot starting exactly now counts as past.
func IsInPast(date, t string, loc *time.Location, now time.Time) (bool, error) {
	instant, err := ToInstant(date, t, loc)
	if err != nil {
		return false, err
	}

	return !instant.After(now), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
