package alert

import (
	"context"

	"github.com/jedawel/lenssafe/internal/rubbing"
	"github.com/jedawel/lenssafe/internal/store"
)

// Recorder persists alerts.
type Recorder struct {
	alerts  *store.AlertRepository
	session func() string
}

// NewRecorder creates a Recorder. session, when set, returns the current
// session id to link alerts to.
func NewRecorder(alerts *store.AlertRepository, session func() string) *Recorder {
	return &Recorder{alerts: alerts, session: session}
}

// Dispatch stores ev.
func (r *Recorder) Dispatch(_ context.Context, ev rubbing.AlertEvent) error {
	a := &store.Alert{
		ID:                ev.ID,
		OccurredAt:        ev.Time,
		ConsecutiveFrames: ev.ConsecutiveFrames,
		Eye:               string(ev.Eye),
		Hand:              ev.Hand,
	}
	if r.session != nil {
		a.SessionID = r.session()
	}
	return r.alerts.Create(a)
}
