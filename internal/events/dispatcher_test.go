package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventEmployeeCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventEmployeeCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventSalaryUpdated, func(context.Context, Event) error {
		calls = append(calls, "salary")
		return nil
	})

	err := d.Publish(context.Background(), New(EventEmployeeCreated, "emp-1", Actor{}, nil))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second:emp-1"}, calls)
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), New(EventEmployeeUpdated, "x", Actor{}, nil)))
}

func TestNew_StampsEvent(t *testing.T) {
	e := New(EventServiceTokenIssued, "chatbot-agent", Actor{Service: "chatbot-agent"}, nil)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, EventServiceTokenIssued, e.Type)
}

func TestSubscribeAll_CoversAuditEvents(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	SubscribeAll(d, func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	}, AuditEvents...)

	for _, et := range AuditEvents {
		require.NoError(t, d.Publish(context.Background(), New(et, "emp-1", Actor{}, nil)))
	}
	assert.Equal(t, AuditEvents, seen)
}

func TestPublish_JoinsEveryFailure(t *testing.T) {
	d := NewInMemoryDispatcher()
	first, second := errors.New("first"), errors.New("second")
	d.Subscribe(EventSalaryUpdated, func(context.Context, Event) error { return first })
	d.Subscribe(EventSalaryUpdated, func(context.Context, Event) error { return second })

	err := d.Publish(context.Background(), New(EventSalaryUpdated, "emp-1", Actor{}, nil))
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	assert.Contains(t, err.Error(), "salary_updated handler 1")
}
