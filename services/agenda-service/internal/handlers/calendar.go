package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/httpx"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/cache"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/schedule"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/storage"
)

// CalendarHandler serves the admin calendar: the month grid with per-day
// counts and the per-day slot detail.
type CalendarHandler struct {
	repo   storage.Repository
	months *cache.MonthCounts
	logger *slog.Logger
	loc    *time.Location
}

func NewCalendarHandler(repo storage.Repository, months *cache.MonthCounts, logger *slog.Logger, loc *time.Location) *CalendarHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarHandler{repo: repo, months: months, logger: logger, loc: loc}
}

func (h *CalendarHandler) Register(mux *http.ServeMux, authed httpx.Middleware) {
	mux.Handle("/api/v1/calendar", authed(http.HandlerFunc(h.month)))
	mux.Handle("/api/v1/calendar/day", authed(http.HandlerFunc(h.day)))
}

func (h *CalendarHandler) month(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, month, ok := yearMonthParams(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "year and month query parameters are required")
		return
	}

	counts, hit := h.months.Get(r.Context(), year, month)
	if !hit {
		records, ok := h.fetch(r)
		counts = schedule.MonthCounts(year, month, records, h.loc)
		// A failed fetch renders as an empty month this cycle only; caching
		// it would keep serving zeros after the store recovers.
		if ok {
			h.months.Set(r.Context(), year, month, counts)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"year":   year,
		"month":  int(month),
		"cells":  schedule.CalendarCells(year, month),
		"counts": counts,
	})
}

type slotView struct {
	Slot        string             `json:"slot"`
	Appointment *model.Appointment `json:"appointment"`
}

func (h *CalendarHandler) day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, month, ok := yearMonthParams(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "year and month query parameters are required")
		return
	}
	day, err := strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil || day < 1 || day > schedule.DaysInMonth(year, month) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid day")
		return
	}

	records, _ := h.fetch(r)
	resolved := schedule.ResolveDay(year, month, day, records, h.loc)

	// The template order is the display order; the map alone loses it.
	slots := make([]slotView, 0, len(resolved))
	for _, slot := range schedule.Slots() {
		slots = append(slots, slotView{Slot: slot, Appointment: resolved[slot]})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"day":   day,
		"slots": slots,
		"count": schedule.CountForDay(year, month, day, records, h.loc),
	})
}

func (h *CalendarHandler) fetch(r *http.Request) ([]model.Appointment, bool) {
	records, err := h.repo.FetchAppointments(r.Context())
	if err != nil {
		h.logger.Error("fetch appointments failed", "err", err,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		return nil, false
	}
	return records, true
}

func yearMonthParams(r *http.Request) (int, time.Month, bool) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}
