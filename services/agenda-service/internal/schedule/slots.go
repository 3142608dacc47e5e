package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// The bookable day is a fixed grid: hour-aligned slots with a two-hour lunch
// gap between the bands. Resolver logic never depends on these exact values,
// only on the ordered list, so the template can change without touching it.
var (
	MorningSlots   = []string{"09:00", "10:00", "11:00", "12:00"}
	AfternoonSlots = []string{"14:00", "15:00", "16:00", "17:00", "18:00"}
)

// Slots returns the full ordered slot template for one working day.
func Slots() []string {
	out := make([]string, 0, len(MorningSlots)+len(AfternoonSlots))
	out = append(out, MorningSlots...)
	out = append(out, AfternoonSlots...)
	return out
}

// SlotHour extracts the hour from a "HH:mm" slot label.
func SlotHour(slot string) (int, error) {
	h, _, ok := strings.Cut(slot, ":")
	if !ok {
		return 0, fmt.Errorf("malformed slot label %q", slot)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("malformed slot label %q", slot)
	}
	return hour, nil
}

// ValidSlot reports whether the label is part of the day template.
func ValidSlot(slot string) bool {
	for _, s := range Slots() {
		if s == slot {
			return true
		}
	}
	return false
}
