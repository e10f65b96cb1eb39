package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestUserID(t *testing.T) {
	attr := logger.UserID("123")
	require.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "123", attr.Value.Any())
}

func TestMessageID(t *testing.T) {
	attr := logger.MessageID("m-1")
	require.Equal(t, "message_id", attr.Key)
	assert.Equal(t, "m-1", attr.Value.String())

	assert.True(t, logger.MessageID("").Equal(slog.Attr{}))
}

func TestEntity(t *testing.T) {
	attr := logger.Entity("node", 7)
	require.Equal(t, "entity", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "node", g[0].Value.String())
	assert.Equal(t, int64(7), g[1].Value.Int64())
}

func TestDeliveryAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"recipient", logger.Recipient(3), "recipient_id", int64(3)},
		{"channel", logger.Channel("email"), "channel", "email"},
		{"cursor", logger.Cursor(10), "cursor", int64(10)},
		{"queue", logger.Queue("message_subscribe"), "queue", "message_subscribe"},
		{"job", logger.JobID("j1"), "job_id", "j1"},
		{"count", logger.Count(4), "count", int64(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}

	assert.True(t, logger.JobID(nil).Equal(slog.Attr{}))
}
