package schedule

import (
	"time"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
)

// ResolveDay binds each slot label of the day template to at most one
// non-closed appointment. First match in input order wins; later duplicates
// stay in storage and still show up in day counts, this is only the display
// binding. A nil value means the slot is free.
func ResolveDay(year int, month time.Month, day int, records []model.Appointment, loc *time.Location) map[string]*model.Appointment {
	// One pass to bucket the day's records, so each slot scans a handful of
	// candidates instead of the whole list.
	var candidates []*model.Appointment
	for i := range records {
		if !records[i].Occupying() {
			continue
		}
		if MatchesDay(records[i].PreferredDateTime, year, month, day, loc) {
			candidates = append(candidates, &records[i])
		}
	}

	out := make(map[string]*model.Appointment, len(Slots()))
	for _, slot := range Slots() {
		out[slot] = nil
		hour, err := SlotHour(slot)
		if err != nil {
			continue
		}
		for _, rec := range candidates {
			if MatchesSlot(rec.PreferredDateTime, year, month, day, hour, loc) {
				out[slot] = rec
				break
			}
		}
	}
	return out
}

// CountForDay counts all non-closed records landing on the day, whatever
// their hour. A record at 20:00 counts here even though no slot shows it.
func CountForDay(year int, month time.Month, day int, records []model.Appointment, loc *time.Location) int {
	n := 0
	for _, rec := range records {
		if !rec.Occupying() {
			continue
		}
		if MatchesDay(rec.PreferredDateTime, year, month, day, loc) {
			n++
		}
	}
	return n
}

// MonthCounts maps every day of the month (1..daysInMonth) to its count.
func MonthCounts(year int, month time.Month, records []model.Appointment, loc *time.Location) map[int]int {
	days := DaysInMonth(year, month)
	out := make(map[int]int, days)
	for day := 1; day <= days; day++ {
		out[day] = 0
	}
	for _, rec := range records {
		if !rec.Occupying() {
			continue
		}
		for day := 1; day <= days; day++ {
			if MatchesDay(rec.PreferredDateTime, year, month, day, loc) {
				out[day]++
				break
			}
		}
	}
	return out
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalendarCells lays the month out as a Sunday-first grid: zero values pad
// the first week so day 1 falls under its weekday column, then the day
// numbers follow in order.
func CalendarCells(year int, month time.Month) []int {
	firstWeekday := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	days := DaysInMonth(year, month)
	cells := make([]int, 0, firstWeekday+days)
	for i := 0; i < firstWeekday; i++ {
		cells = append(cells, 0)
	}
	for day := 1; day <= days; day++ {
		cells = append(cells, day)
	}
	return cells
}
