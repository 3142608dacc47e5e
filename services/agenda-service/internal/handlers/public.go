package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/httpx"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/booking"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
)

// PublicHandler serves the unauthenticated surface used by the marketing
// site: the chat widget and voice assistant writers, and the need-type
// suggestions for the contact form.
type PublicHandler struct {
	writer *booking.Writer
	logger *slog.Logger
}

func NewPublicHandler(writer *booking.Writer, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{writer: writer, logger: logger}
}

func (h *PublicHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/appointments", h.createFromWidget)
	mux.HandleFunc("/api/v1/public/voice/appointments", h.createFromVoice)
	mux.HandleFunc("/api/v1/public/need-types", h.needTypes)
}

func (h *PublicHandler) createFromWidget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var input model.Appointment
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The widget may not set ids or lifecycle fields.
	input.ID = ""
	input.CreatedAt = time.Time{}

	stored, err := h.writer.BookDirect(r.Context(), input)
	if err != nil {
		h.writeBookingError(w, r, err, "widget booking failed")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, stored)
}

func (h *PublicHandler) createFromVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload booking.VoicePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := h.writer.BookFromVoice(r.Context(), payload)
	if err != nil {
		h.writeBookingError(w, r, err, "voice booking failed")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, stored)
}

func (h *PublicHandler) needTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"needTypes": model.NeedTypes})
}

func (h *PublicHandler) writeBookingError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, booking.ErrMissingDate):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusBadGateway, "could not save appointment")
	}
}
