package storage

import (
	"time"

	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/schedule"
)

// NormalizePreferred converges parseable timestamps on RFC 3339 at the
// persistence boundary. Historical rows and unparseable values pass through
// unchanged; readers handle both shapes.
func NormalizePreferred(raw string, loc *time.Location) string {
	canonical, _ := schedule.Canonical(raw, loc)
	return canonical
}
