// Package events fans timing writes out to other consumers: a NATS subject
// per event type and, through Fanout, the live results board.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

type Config struct {
	URL           string
	SubjectPrefix string
	// Station identifies this laptop in published events.
	Station       string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "cronometro",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// msgPublisher is the part of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// envelope is the JSON body of a published event.
type envelope struct {
	model.TimingEvent
	Station string `json:"station,omitempty"`
}

// NATSPublisher publishes timing events to <prefix>.<event type>.
type NATSPublisher struct {
	nc     *nats.Conn
	pub    msgPublisher
	config Config
}

// Connect dials NATS and returns a publisher.
func Connect(cfg Config) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("cronometro " + cfg.Station),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, pub: nc, config: cfg}, nil
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t model.EventType) string {
	return fmt.Sprintf("%s.%s", p.config.SubjectPrefix, t)
}

// TimingRecorded publishes ev.
func (p *NATSPublisher) TimingRecorded(ctx context.Context, ev model.TimingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := p.Subject(ev.Type)

	data, err := json.Marshal(envelope{TimingEvent: ev, Station: p.config.Station})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.pub.PublishMsg(&nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(ev.Type)},
			"Event-ID":   []string{ev.ID.String()},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", ev.ID.String()).
		Int("bib", ev.Bib).
		Msg("published timing event")
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		p.nc.Close()
		return err
	}
	return nil
}
