package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/queue"
)

func TestNewTaskHandler(t *testing.T) {
	t.Parallel()

	var got testPayload
	handler := queue.NewTaskHandler(func(_ context.Context, p testPayload) error {
		got = p
		if p.Value < 0 {
			return errors.New("negative")
		}
		return nil
	})

	assert.Equal(t, "queue_test.testPayload", handler.Name())

	require.NoError(t, handler.Handle(context.Background(), json.RawMessage(`{"message":"hi","value":2}`)))
	assert.Equal(t, testPayload{Message: "hi", Value: 2}, got)

	assert.EqualError(t, handler.Handle(context.Background(), json.RawMessage(`{"value":-1}`)), "negative")

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, handler.Handle(context.Background(), json.RawMessage(`{`)), &syntaxErr)
}

func TestTaskName_MatchesHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload any
		handler queue.Handler
	}{
		{
			name:    "struct",
			payload: testPayload{Message: "a"},
			handler: queue.NewTaskHandler(func(context.Context, testPayload) error { return nil }),
		},
		{
			name:    "pointer",
			payload: &testPayload{Message: "a"},
			handler: queue.NewTaskHandler(func(context.Context, testPayload) error { return nil }),
		},
		{
			name:    "external type",
			payload: time.Unix(0, 0).UTC(),
			handler: queue.NewTaskHandler(func(context.Context, time.Time) error { return nil }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockEnqueuerRepo{}
			enqueuer, err := queue.NewEnqueuer(repo)
			require.NoError(t, err)

			_, err = enqueuer.Enqueue(context.Background(), tt.payload)
			require.NoError(t, err)
			require.Len(t, repo.tasks, 1)
			assert.Equal(t, tt.handler.Name(), repo.tasks[0].TaskName)
		})
	}
}
