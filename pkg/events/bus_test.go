package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmarag-chat/internal/pkg/logger"
)

func TestBusDeliversEnvelope(t *testing.T) {
	bus := NewBus("test.events", logger.NewNopLogger())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Envelope, 1)
	require.NoError(t, bus.Subscribe(ctx, func(e Envelope) { got <- e }))

	evt := New(TypeChatAnswered, "session-1", map[string]interface{}{"sources": 2})
	require.NoError(t, bus.Publish(ctx, evt))

	select {
	case env := <-got:
		assert.Equal(t, TypeChatAnswered, env.Type)
		assert.Equal(t, "session-1", env.SessionID)
		assert.EqualValues(t, 2, env.Data["sources"])
		assert.WithinDuration(t, evt.OccurredAt, env.OccurredAt, time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.EventType())
	return r.err
}

func TestMultiPublisherTriesEveryPublisher(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("nats down")}
	ok := &recordingPublisher{}
	multi := MultiPublisher{failing, nil, ok}

	err := multi.Publish(context.Background(), New(TypeDocumentOpened, "s", nil))
	assert.ErrorContains(t, err, "nats down")
	assert.Equal(t, []string{TypeDocumentOpened}, failing.types)
	assert.Equal(t, []string{TypeDocumentOpened}, ok.types)

	assert.NoError(t, MultiPublisher{ok}.Publish(context.Background(), New(TypeDocumentClosed, "s", nil)))
}

func TestNewFillsPayload(t *testing.T) {
	e := New(TypeWorkspaceChanged, "s", nil)
	assert.NotNil(t, e.Payload())
	assert.False(t, e.Timestamp().IsZero())

	env := NewEnvelope(e)
	assert.Equal(t, "s", env.SessionID)
}
