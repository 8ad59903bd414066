package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar form accepted on the API
const DateLayout = "2006-01-02"

// ParseSlotDate parses a calendar date in any of the forms the platform
// stores or accepts: 2025-12-22, 22_12_2025 and RFC3339. The result is
// midnight UTC of that day.
func ParseSlotDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty slot date")
	}

	if strings.Contains(s, "_") {
		parts := strings.Split(s, "_")
		if len(parts) != 3 {
			return time.Time{}, fmt.Errorf("invalid slot date %q", s)
		}
		day, errD := strconv.Atoi(parts[0])
		month, errM := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errD != nil || errM != nil || errY != nil {
			return time.Time{}, fmt.Errorf("invalid slot date %q", s)
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month || t.Year() != year {
			return time.Time{}, fmt.Errorf("invalid slot date %q", s)
		}
		return t, nil
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("invalid slot date %q", s)
}

// StoredSlotDate renders t the way booking rows store it (22_12_2025).
func StoredSlotDate(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// SlotDateVariants lists the spellings a stored slot date for t may have:
// unpadded, zero-padded and ISO.
func SlotDateVariants(t time.Time) []string {
	return []string{
		StoredSlotDate(t),
		fmt.Sprintf("%02d_%02d_%d", t.Day(), int(t.Month()), t.Year()),
		t.Format(DateLayout),
	}
}

// ParseSlotHour returns the 24-hour clock hour of a slot time such as
// "02:30 PM". "12:xx PM" is noon and "12:xx AM" is midnight. A time with no
// AM/PM marker is read as a 24-hour clock value.
func ParseSlotHour(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, false
	}

	clock := strings.SplitN(fields[0], ":", 2)
	hour, err := strconv.Atoi(clock[0])
	if err != nil || hour < 0 {
		return 0, false
	}
	if len(clock) == 2 {
		if minute, err := strconv.Atoi(clock[1]); err != nil || minute < 0 || minute > 59 {
			return 0, false
		}
	}

	if len(fields) == 1 {
		if hour > 23 {
			return 0, false
		}
		return hour, true
	}

	if hour < 1 || hour > 12 {
		return 0, false
	}
	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, false
	}
	return hour, true
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// RoundTo rounds x to the given number of decimal places.
func RoundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
