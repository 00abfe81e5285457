package appointment

import (
	"fmt"
	"time"
)

const (
	DefaultWorkingHoursStart = "09:00"
	DefaultWorkingHoursEnd   = "17:00"
	slotInterval             = time.Hour
)

// WorkingSlots enumerates the hourly slot boundaries inside [start, end).
// The end boundary itself is never a slot. Unparseable or inverted hours
// yield no slots.
func WorkingSlots(start, end string) []string {
	if start == "" {
		start = DefaultWorkingHoursStart
	}
	if end == "" {
		end = DefaultWorkingHoursEnd
	}

	startT, err := time.Parse("15:04", start)
	if err != nil {
		return nil
	}
	endT, err := time.Parse("15:04", end)
	if err != nil {
		return nil
	}

	var slots []string
	for t := startT; t.Before(endT); t = t.Add(slotInterval) {
		slots = append(slots, t.Format("15:04"))
	}
	return slots
}

// AvailableSlots removes booked times from the working slots. Times are
// compared after normalization so "9:00" and "09:00" collide.
func AvailableSlots(start, end string, booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[normalizeTime(b)] = struct{}{}
	}

	var free []string
	for _, slot := range WorkingSlots(start, end) {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free
}

func normalizeTime(s string) string {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return s
	}
	return t.Format("15:04")
}

// SlotInWorkingHours reports whether the requested time is one of the
// doctor's bookable slot boundaries.
func SlotInWorkingHours(start, end, requested string) bool {
	want := normalizeTime(requested)
	for _, slot := range WorkingSlots(start, end) {
		if slot == want {
			return true
		}
	}
	return false
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	return nil
}
