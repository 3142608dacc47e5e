package booking

import "github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/model"

// ApplyStatus returns the record with its status replaced. Any status may
// transition to any other: closed records can be reopened, there is no
// terminal state.
func ApplyStatus(rec model.Appointment, status model.Status) model.Appointment {
	rec.Status = status
	return rec
}
