package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// Stream and subject names for assessment events.
const (
	AssessmentStream      = "IMPACT_ASSESSMENTS"
	AssessmentSubjectBase = "impact.assessment"
	AssessmentSubjectAll  = AssessmentSubjectBase + ".>"
)

// AssessmentSubject returns the subject an event for regime is published on.
func AssessmentSubject(regime string) string {
	regime = strings.ToLower(strings.TrimSpace(regime))
	if regime == "" {
		regime = "unknown"
	}
	return AssessmentSubjectBase + "." + regime
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      AssessmentStream,
		Subjects:  []string{AssessmentSubjectAll},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishAssessment publishes an assessment summary on impact.assessment.<regime>.
func (p *Publisher) PublishAssessment(ctx context.Context, event *domain.AssessmentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(AssessmentSubject(event.Regime), data,
		nats.Context(ctx),
		nats.MsgId(event.AssessmentID),
	)
	return err
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping() error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
