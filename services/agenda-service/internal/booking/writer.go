package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/notify"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/schedule"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/storage"
)

var (
	ErrSlotTaken       = errors.New("slot already booked")
	ErrInvalidSlot     = errors.New("unknown slot label")
	ErrMissingDate     = errors.New("preferredDateTime is required")
	ErrInvalidStatus   = errors.New("unknown status")
	ErrMissingRecordID = errors.New("appointment id is required")
)

// Consultant labels assigned per entry point when the caller supplies none.
const (
	ConsultantAdmin = "Asignado Manualmente"
	ConsultantChat  = "Asignación Automática"
)

const (
	adminBookingNotes  = "Agendado manualmente por Admin"
	fallbackClientName = "Cliente Anónimo"
	fallbackNeedType   = "Consulta General"
	fallbackTopic      = "Sesión Directa"
)

// Writer funnels the three entry points (admin form, chat widget, voice
// assistant) into the persistence layer, filling per-entry-point defaults
// and emitting the change hint after a successful write.
//
// By default there is no occupancy guard at write time: the admin UI simply
// does not offer slots the resolver showed as occupied, and the gap between
// that render and the write is accepted (concurrent writers can still
// double-book; duplicates surface in the day view instead). GuardSlots adds
// a fetch-and-check before the insert for deployments that prefer a
// late rejection, at the cost of still not being atomic.
type Writer struct {
	repo       storage.Repository
	bus        notify.Bus
	logger     *slog.Logger
	loc        *time.Location
	guardSlots bool
}

func NewWriter(repo storage.Repository, bus notify.Bus, logger *slog.Logger, loc *time.Location, guardSlots bool) *Writer {
	if bus == nil {
		bus = notify.NoopBus{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Writer{repo: repo, bus: bus, logger: logger, loc: loc, guardSlots: guardSlots}
}

// BookSlot is the admin path: the caller picked a (year, month, day, slot)
// cell in the calendar.
func (w *Writer) BookSlot(ctx context.Context, input model.Appointment, year int, month time.Month, day int, slot string) (model.Appointment, error) {
	if !schedule.ValidSlot(slot) {
		return model.Appointment{}, ErrInvalidSlot
	}

	if w.guardSlots {
		if err := w.checkSlotFree(ctx, year, month, day, slot); err != nil {
			return model.Appointment{}, err
		}
	}

	input.PreferredDateTime = fmt.Sprintf("%04d-%02d-%02d %s", year, int(month), day, slot)
	if input.ClientName == "" {
		input.ClientName = fallbackClientName
	}
	if input.NeedType == "" {
		input.NeedType = fallbackNeedType
	}
	if input.Topic == "" {
		input.Topic = fallbackTopic
	}
	if input.Consultant == "" {
		input.Consultant = ConsultantAdmin
	}
	if input.Notes == "" {
		input.Notes = adminBookingNotes
	}
	if input.Status == "" {
		input.Status = model.StatusScheduled
	}

	return w.create(ctx, input)
}

// BookDirect is the chat widget path: the widget supplies its own
// preferredDateTime text.
func (w *Writer) BookDirect(ctx context.Context, input model.Appointment) (model.Appointment, error) {
	if strings.TrimSpace(input.PreferredDateTime) == "" {
		return model.Appointment{}, ErrMissingDate
	}
	if input.ClientName == "" {
		input.ClientName = fallbackClientName
	}
	if input.NeedType == "" {
		input.NeedType = fallbackNeedType
	}
	if input.Topic == "" {
		input.Topic = fallbackTopic
	}
	if input.Consultant == "" {
		input.Consultant = ConsultantChat
	}
	if input.Status == "" {
		input.Status = model.StatusScheduled
	}

	return w.create(ctx, input)
}

// VoicePayload is the shape the voice assistant integration posts. Field
// names follow its webhook contract, not ours.
type VoicePayload struct {
	ClientName string `json:"client_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NeedType   string `json:"need_type"`
	Topic      string `json:"topic"`
	DateTime   string `json:"date_time"`
	Notes      string `json:"notes"`
}

// BookFromVoice maps the voice assistant payload onto a record. The
// date_time text is whatever the assistant transcribed; it frequently fails
// to parse and is matched by the substring tier downstream. The consultant
// is left empty so the storage default applies.
func (w *Writer) BookFromVoice(ctx context.Context, payload VoicePayload) (model.Appointment, error) {
	if strings.TrimSpace(payload.DateTime) == "" {
		return model.Appointment{}, ErrMissingDate
	}
	input := model.Appointment{
		ClientName:        payload.ClientName,
		Email:             payload.Email,
		Phone:             payload.Phone,
		NeedType:          payload.NeedType,
		Topic:             payload.Topic,
		PreferredDateTime: payload.DateTime,
		Notes:             payload.Notes,
		Status:            model.StatusScheduled,
	}
	if input.ClientName == "" {
		input.ClientName = fallbackClientName
	}
	if input.NeedType == "" {
		input.NeedType = fallbackNeedType
	}
	if input.Topic == "" {
		input.Topic = fallbackTopic
	}
	return w.create(ctx, input)
}

func (w *Writer) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	if id == "" {
		return ErrMissingRecordID
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := w.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	w.hint(ctx)
	return nil
}

func (w *Writer) UpdateNotes(ctx context.Context, id, notes string) error {
	if id == "" {
		return ErrMissingRecordID
	}
	if err := w.repo.UpdateNotes(ctx, id, notes); err != nil {
		return err
	}
	w.hint(ctx)
	return nil
}

func (w *Writer) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingRecordID
	}
	if err := w.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	w.hint(ctx)
	return nil
}

func (w *Writer) create(ctx context.Context, input model.Appointment) (model.Appointment, error) {
	stored, err := w.repo.CreateAppointment(ctx, input)
	if err != nil {
		// The caller keeps its input state; never pretend this worked.
		return model.Appointment{}, err
	}
	w.hint(ctx)
	return stored, nil
}

func (w *Writer) checkSlotFree(ctx context.Context, year int, month time.Month, day int, slot string) error {
	records, err := w.repo.FetchAppointments(ctx)
	if err != nil {
		return err
	}
	resolved := schedule.ResolveDay(year, month, day, records, w.loc)
	if resolved[slot] != nil {
		return ErrSlotTaken
	}
	return nil
}

func (w *Writer) hint(ctx context.Context) {
	if err := w.bus.Publish(ctx, notify.EventAppointmentSaved); err != nil && w.logger != nil {
		w.logger.Warn("change hint publish failed", "err", err)
	}
}
