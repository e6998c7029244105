package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishEvent(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "user_events"}
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	require.NoError(t, p.PublishEvent(context.Background(), "7", Event{
		Type:     TypeUserLoggedIn,
		UserID:   7,
		Username: "alice",
		At:       at,
	}))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "user_events", msg.Topic)
	assert.Equal(t, "7", string(msg.Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "user_logged_in", got["type"])
	assert.EqualValues(t, 7, got["user_id"])
	assert.Equal(t, "alice", got["username"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishEvent_WriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}, topic: "user_events"}

	err := p.PublishEvent(context.Background(), "1", Event{Type: TypeUserRegistered})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNew_WithoutBrokersIsNop(t *testing.T) {
	t.Parallel()

	p := New(nil, "user_events")
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.PublishEvent(context.Background(), "k", Event{}))
	assert.NoError(t, p.Close())

	prod := New([]string{"localhost:9092"}, "user_events")
	assert.IsType(t, &Producer{}, prod)
	assert.NoError(t, prod.Close())
}

func TestNewProducer_DoesNotWaitForBatches(t *testing.T) {
	t.Parallel()

	p := NewProducer([]string{"localhost:9092"}, "user_events")
	t.Cleanup(func() { _ = p.Close() })

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 1, w.BatchSize)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.False(t, w.Async)
	assert.Equal(t, "user_events", p.topic)
}
