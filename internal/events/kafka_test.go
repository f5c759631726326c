package events

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

func testEvent() *models.ReportEvent {
	return &models.ReportEvent{
		Kind: models.EventStatusChanged,
		Report: models.HazardReport{
			ID:       "rep-1",
			Title:    "Storm surge at Puri",
			Type:     models.HazardStormSurge,
			Severity: models.SeverityHigh,
			Status:   models.StatusActive,
		},
		PreviousStatus: models.StatusInvestigating,
		At:             time.Date(2026, 5, 20, 6, 30, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	ev := testEvent()

	msg, err := serializeToMessage(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte("rep-1"), msg.Key)
	assert.Equal(t, ev.At, msg.Time)
	assert.Contains(t, string(msg.Value), `"kind":"status_changed"`)
	assert.Contains(t, string(msg.Value), `"previousStatus":"investigating"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("status_changed"), msg.Headers[0].Value)
	assert.Equal(t, "hazard_type", msg.Headers[1].Key)
	assert.Equal(t, []byte("storm_surge"), msg.Headers[1].Value)
}

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("rep-1"), w.msgs[0].Key)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rep-1")
}
