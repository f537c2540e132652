// Package natsstan carries analytics events over NATS Streaming: the
// tracker publishes fire-and-forget, the daemon subscribes and persists.
package natsstan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/leadsync/internal/domain"
	"github.com/google/uuid"
	stan "github.com/nats-io/stan.go"
	"github.com/rs/zerolog"
)

// Config identifies the cluster and subject shared by both ends.
type Config struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string
}

func (c Config) clientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return fmt.Sprintf("leadsync-%s", uuid.NewString())
}

// Subscriber consumes analytics events and hands them to a handler.
// Handler errors leave the message unacked so the server redelivers it.
type Subscriber struct {
	Config
	Log zerolog.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, event domain.Event) error) error {
	sc, err := stan.Connect(s.ClusterID, s.clientID(), stan.NatsURL(s.URL))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.QueueSubscribe(s.Subject, "leadsync-workers", func(m *stan.Msg) {
		hCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var event domain.Event
		if err := json.Unmarshal(m.Data, &event); err != nil {
			// Malformed payload can never succeed: ack to drop it.
			s.Log.Warn().Err(err).Msg("dropping malformed event")
			_ = m.Ack()
			return
		}
		if err := handler(hCtx, event); err != nil {
			// No ack, let the message redeliver.
			s.Log.Warn().Err(err).Msg("event handler failed")
			return
		}
		if err := m.Ack(); err != nil {
			s.Log.Warn().Err(err).Msg("ack failed")
		}
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(10*time.Second), stan.DeliverAllAvailable())
	return err
}
