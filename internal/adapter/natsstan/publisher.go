package natsstan

import (
	"encoding/json"

	"github.com/example/leadsync/internal/domain"
	stan "github.com/nats-io/stan.go"
)

// Publisher sends analytics events to the stream.
type Publisher struct {
	sc      stan.Conn
	subject string
}

func NewPublisher(cfg Config) (*Publisher, error) {
	sc, err := stan.Connect(cfg.ClusterID, cfg.clientID(), stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, err
	}
	return &Publisher{sc: sc, subject: cfg.Subject}, nil
}

func (p *Publisher) Publish(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.sc.Publish(p.subject, data)
}

func (p *Publisher) Close() error {
	return p.sc.Close()
}
