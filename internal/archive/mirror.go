package archive

import (
	"context"
	"time"

	"crisisnet_backend/internal/events"
	"crisisnet_backend/platform/logger"
)

const writeTimeout = 5 * time.Second

// Mirror subscribes to crisis lifecycle events and persists them. Failures
// are logged and never surfaced to dispatch.
type Mirror struct {
	repo *Repository
	log  *logger.Logger
}

func NewMirror(repo *Repository, log *logger.Logger) *Mirror {
	return &Mirror{repo: repo, log: log}
}

// RegisterHandlers subscribes the mirror to every event it archives.
func (m *Mirror) RegisterHandlers(bus events.Bus) {
	for _, name := range []string{
		events.CrisisReported{}.EventName(),
		events.AgencyResponded{}.EventName(),
		events.CrisisEscalated{}.EventName(),
		events.CrisisClosed{}.EventName(),
		events.CrisisLocationUpdated{}.EventName(),
	} {
		bus.Subscribe(name, m)
	}
}

// Handle routes one event to the matching archive write.
func (m *Mirror) Handle(ctx context.Context, event events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var err error
	switch e := event.(type) {
	case events.CrisisReported:
		err = m.repo.UpsertCrisis(ctx, e.Crisis)
	case events.AgencyResponded:
		if err = m.repo.UpsertCrisis(ctx, e.Crisis); err == nil {
			err = m.repo.InsertResponse(ctx, e.CrisisID, e.Response)
		}
	case events.CrisisEscalated:
		err = m.repo.UpsertCrisis(ctx, e.Crisis)
	case events.CrisisClosed:
		err = m.repo.UpsertCrisis(ctx, e.Crisis)
	case events.CrisisLocationUpdated:
		err = m.repo.InsertLocationUpdate(ctx, e.CrisisID, e.Update)
	default:
		return nil
	}
	if err != nil {
		m.log.DatabaseError("archive "+event.EventName(), err)
	}
	// The registry is authoritative; an archive miss must not fail dispatch.
	return nil
}
