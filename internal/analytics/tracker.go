// Package analytics records session-scoped events. The session context
// is an explicitly constructed object with an init/dispose lifecycle,
// passed to the components that need it instead of living in a global.
package analytics

import (
	"context"
	"time"

	"github.com/example/leadsync/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session identifies one run of the application.
type Session struct {
	ID        string
	StartedAt time.Time
}

func NewSession() Session {
	return Session{ID: uuid.NewString(), StartedAt: time.Now()}
}

// Publisher is the optional streaming side; nil disables it.
type Publisher interface {
	Publish(event domain.Event) error
}

// Tracker appends events to the local store and best-effort publishes
// them to the stream. Local persistence is the source of truth; a
// failed publish is logged and otherwise ignored.
type Tracker struct {
	session Session
	store   domain.EventStore
	pub     Publisher
	log     zerolog.Logger
}

func NewTracker(store domain.EventStore, pub Publisher, logger zerolog.Logger) *Tracker {
	return &Tracker{
		session: NewSession(),
		store:   store,
		pub:     pub,
		log:     logger.With().Str("component", "analytics").Logger(),
	}
}

func (t *Tracker) Session() Session { return t.session }

func (t *Tracker) Record(ctx context.Context, eventType, pagePath string, payload map[string]any) error {
	event := &domain.Event{
		SessionID: t.session.ID,
		Type:      eventType,
		PagePath:  pagePath,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if _, err := t.store.AppendEvent(ctx, event); err != nil {
		return err
	}
	if t.pub != nil {
		if err := t.pub.Publish(*event); err != nil {
			t.log.Debug().Err(err).Str("type", eventType).Msg("event publish failed")
		}
	}
	return nil
}

// Close disposes the session, recording its end as a final event.
func (t *Tracker) Close(ctx context.Context) error {
	return t.Record(ctx, "session_end", "", nil)
}
