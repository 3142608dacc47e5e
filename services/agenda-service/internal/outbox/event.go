package outbox

import "time"

const (
	// TopicAppointmentSaved carries the durable cache-invalidation events.
	TopicAppointmentSaved = "agenda.appointment.saved.v1"

	EventTypeAppointmentSaved = "appointment.saved"
)

// Event is one row to append to the outbox inside the owning transaction.
type Event struct {
	AggregateID string
	EventType   string
	Payload     []byte
}

// AppointmentSaved is the payload for EventTypeAppointmentSaved. Action is
// one of created, status_changed, notes_changed, deleted.
type AppointmentSaved struct {
	AppointmentID string    `json:"appointmentId"`
	Action        string    `json:"action"`
	OccurredAt    time.Time `json:"occurredAt"`
}
