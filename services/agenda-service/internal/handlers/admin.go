package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/httpx"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/booking"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/storage"
)

// AdminHandler serves the back-office: listing, manual slot booking, status
// and notes edits, deletion, and the dashboard stats.
type AdminHandler struct {
	repo   storage.Repository
	writer *booking.Writer
	logger *slog.Logger
}

func NewAdminHandler(repo storage.Repository, writer *booking.Writer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, writer: writer, logger: logger}
}

func (h *AdminHandler) Register(mux *http.ServeMux, authed httpx.Middleware) {
	mux.Handle("/api/v1/appointments", authed(http.HandlerFunc(h.appointments)))
	mux.Handle("/api/v1/appointments/stats", authed(http.HandlerFunc(h.stats)))
	mux.Handle("/api/v1/appointments/status", authed(http.HandlerFunc(h.updateStatus)))
	mux.Handle("/api/v1/appointments/notes", authed(http.HandlerFunc(h.updateNotes)))
	mux.Handle("/api/v1/appointments/delete", authed(http.HandlerFunc(h.delete)))
}

func (h *AdminHandler) appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.bookSlot(w, r)
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	appts, err := h.repo.FetchAppointments(r.Context())
	if err != nil {
		// A failed fetch renders as an empty agenda, never a broken page.
		h.logger.Error("fetch appointments failed", "err", err,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		appts = nil
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

type bookSlotRequest struct {
	Year        int               `json:"year"`
	Month       int               `json:"month"`
	Day         int               `json:"day"`
	Slot        string            `json:"slot"`
	Appointment model.Appointment `json:"appointment"`
}

func (h *AdminHandler) bookSlot(w http.ResponseWriter, r *http.Request) {
	var req bookSlotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Year < 1 || req.Month < 1 || req.Month > 12 || req.Day < 1 || req.Day > 31 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid calendar date")
		return
	}

	stored, err := h.writer.BookSlot(r.Context(), req.Appointment, req.Year, time.Month(req.Month), req.Day, req.Slot)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidSlot):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, booking.ErrSlotTaken):
			httpx.WriteError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("admin booking failed", "err", err,
				"request_id", httpx.RequestIDFromContext(r.Context()))
			httpx.WriteError(w, http.StatusBadGateway, "could not save appointment")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, stored)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	appts, err := h.repo.FetchAppointments(r.Context())
	if err != nil {
		h.logger.Error("fetch appointments failed", "err", err,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		appts = nil
	}

	stats := map[string]int{
		"total":     len(appts),
		"new":       0,
		"contacted": 0,
		"scheduled": 0,
		"closed":    0,
	}
	for _, appt := range appts {
		switch {
		case appt.Status.Unprocessed():
			stats["new"]++
		case appt.Status == model.StatusContacted:
			stats["contacted"]++
		case appt.Status == model.StatusScheduled:
			stats["scheduled"]++
		case appt.Status == model.StatusClosed:
			stats["closed"]++
		}
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

type statusRequest struct {
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.writer.UpdateStatus(r.Context(), req.ID, req.Status); err != nil {
		h.writeMutationError(w, r, err, "status update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type notesRequest struct {
	ID    string `json:"id"`
	Notes string `json:"notes"`
}

func (h *AdminHandler) updateNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req notesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.writer.UpdateNotes(r.Context(), req.ID, req.Notes); err != nil {
		h.writeMutationError(w, r, err, "notes update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequest struct {
	ID string `json:"id"`
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.writer.Delete(r.Context(), req.ID); err != nil {
		h.writeMutationError(w, r, err, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) writeMutationError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, booking.ErrMissingRecordID), errors.Is(err, booking.ErrInvalidStatus):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case storage.IsNotFound(err):
		httpx.WriteError(w, http.StatusNotFound, "appointment not found")
	default:
		h.logger.Error(msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusBadGateway, "persistence unavailable")
	}
}
