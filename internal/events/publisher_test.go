package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/domain"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_PublishKeysByAssignment(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	a := &domain.Assignment{ID: "as-1", DriverID: "d1", CabID: "c1", AssignedBy: "a1", Status: domain.AssignmentStatusAssigned}
	require.NoError(t, p.Publish(context.Background(), NewEvent(AssignmentCreated, a)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "as-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "assignment.created", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, AssignmentCreated, decoded.Type)
	assert.Equal(t, "d1", decoded.DriverID)
	assert.Equal(t, domain.AssignmentStatusAssigned, decoded.Status)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}}

	err := p.Publish(context.Background(), NewEvent(AssignmentCompleted, &domain.Assignment{ID: "as-1"}))
	assert.ErrorIs(t, err, boom)
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
