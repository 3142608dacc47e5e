package storage

import (
	"context"
	"errors"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"
)

var ErrNotFound = errors.New("appointment not found")

// DefaultConsultant is assigned at the persistence boundary when no writer
// supplied one.
const DefaultConsultant = "Bernarda Sarué"

// Repository is the persistence surface the scheduling core depends on.
// FetchAppointments returns every record, any status, no pagination: the
// dataset is expected to stay in the low hundreds.
type Repository interface {
	FetchAppointments(ctx context.Context) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	UpdateNotes(ctx context.Context, id, notes string) error
	DeleteAppointment(ctx context.Context, id string) error
}
