package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteorguard/internal/core/domain"
)

// Subscriber consumes assessment events from JetStream with a durable consumer.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and enables JetStream.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeAssessments delivers every assessment event to handler. Events
// that fail to decode or handle are redelivered up to three times.
func (s *Subscriber) SubscribeAssessments(ctx context.Context, durable string, handler func(ctx context.Context, event *domain.AssessmentEvent) error) error {
	sub, err := s.js.Subscribe(AssessmentSubjectAll, func(msg *nats.Msg) {
		event, err := DecodeAssessmentEvent(msg.Data)
		if err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.BindStream(AssessmentStream),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// DecodeAssessmentEvent parses an event payload.
func DecodeAssessmentEvent(data []byte) (*domain.AssessmentEvent, error) {
	var event domain.AssessmentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode assessment event: %w", err)
	}
	if event.AssessmentID == "" {
		return nil, fmt.Errorf("decode assessment event: missing assessment_id")
	}
	return &event, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
