package model

import "time"

// Status is the appointment lifecycle label. An empty status is treated the
// same as StatusNew everywhere ("unprocessed").
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusScheduled Status = "scheduled"
	StatusClosed    Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusScheduled, StatusClosed:
		return true
	}
	return false
}

// Unprocessed reports whether the record has not been touched by an admin yet.
func (s Status) Unprocessed() bool {
	return s == "" || s == StatusNew
}

// Appointment is one booking request. It is written by three independent
// entry points (chat widget, voice assistant, admin form), so the only field
// guaranteed non-empty is ClientName.
//
// PreferredDateTime is raw text, not a time.Time: producers have emitted at
// least three shapes over time (space-separated "YYYY-MM-DD HH:mm", ISO-8601
// with a T separator, and full RFC 3339 instants after storage-side
// normalization). Consumers must go through the schedule package to compare
// it, never parse it with a single fixed layout.
type Appointment struct {
	ID                string    `json:"id,omitempty"`
	ClientName        string    `json:"clientName"`
	Organization      string    `json:"organization,omitempty"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	NeedType          string    `json:"needType,omitempty"`
	Topic             string    `json:"topic,omitempty"`
	PreferredDateTime string    `json:"preferredDateTime"`
	Consultant        string    `json:"consultant,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Status            Status    `json:"status,omitempty"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
}

// Occupying reports whether the record can hold a slot at all. Closed records
// never occupy, whatever their timestamp says.
func (a Appointment) Occupying() bool {
	return a.Status != StatusClosed
}

// NeedTypes are the options the public form suggests. The field itself stays
// free text: historical records carry labels outside this list and must not
// be rejected.
var NeedTypes = []string{
	"Estrategia de Impacto Social",
	"Medición de Impacto",
	"Sostenibilidad y ESG",
	"Innovación Social",
	"Alianzas Estratégicas",
	"Consulta General",
}
