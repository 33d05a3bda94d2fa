package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/a2a-go/pkg/a2a"
)

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	q := New()
	sub := q.Subscribe()

	q.Publish(a2a.NewStatusUpdateResponse(a2a.StatusUpdate{
		TaskID:    "task-1",
		ContextID: "ctx-1",
		Status:    a2a.TaskStatus{State: a2a.TaskStateWorking},
	}))

	select {
	case ev := <-sub:
		require.NotNil(t, ev.Response)
		assert.False(t, ev.Lagged)
		assert.Equal(t, a2a.StreamResponseKindStatusUpdate, ev.Response.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestCloseDrainsBufferedEventsThenEndsStream(t *testing.T) {
	q := New()
	sub := q.Subscribe()

	q.Publish(a2a.NewStatusUpdateResponse(a2a.StatusUpdate{
		TaskID:    "task-1",
		ContextID: "ctx-1",
		Status:    a2a.TaskStatus{State: a2a.TaskStateCompleted},
		Final:     true,
	}))
	q.Close()

	ev, ok := <-sub
	require.True(t, ok)
	assert.True(t, ev.Response.IsFinal())

	_, ok = <-sub
	assert.False(t, ok, "channel should be closed once drained")
}

func TestLaggingSubscriberIsSignalledNotBlocked(t *testing.T) {
	q := New()
	sub := q.Subscribe()

	status := a2a.TaskStatus{State: a2a.TaskStateWorking}
	for i := 0; i < bufferSize+1; i++ {
		q.Publish(a2a.NewStatusUpdateResponse(a2a.StatusUpdate{
			TaskID:    "task-1",
			ContextID: "ctx-1",
			Status:    status,
		}))
	}

	var sawLag bool
	for i := 0; i < bufferSize; i++ {
		ev := <-sub
		if ev.Lagged {
			sawLag = true
			break
		}
	}

	assert.True(t, sawLag, "a full buffer should signal lag rather than block the publisher")
}

func TestManagerCreateLookupClose(t *testing.T) {
	m := NewManager()

	q := m.GetOrCreate("task-1")
	require.NotNil(t, q)

	same, ok := m.Lookup("task-1")
	require.True(t, ok)
	assert.Same(t, q, same)

	m.Close("task-1")
	assert.True(t, q.Closed())

	_, ok = m.Lookup("task-1")
	assert.False(t, ok)
}
