// Package events publishes report events to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, ev *models.ReportEvent) error
	Close() error
}

// KafkaPublisher writes one message per event to a single topic.
type KafkaPublisher struct {
	writer messageWriter
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

func NewKafkaPublisher(brokers []string, topic string, writeTimeout time.Duration) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: writeTimeout,
		MaxAttempts:  3,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.ReportEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event for %s: %w", ev.Kind, ev.Report.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage keys the message by report ID so a report's events
// stay on one partition.
func serializeToMessage(ev *models.ReportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.Report.ID),
		Value: data,
		Time:  ev.At,
		Headers: []kafkago.Header{
			{Key: "event_kind", Value: []byte(ev.Kind)},
			{Key: "hazard_type", Value: []byte(ev.Report.Type)},
		},
	}, nil
}
