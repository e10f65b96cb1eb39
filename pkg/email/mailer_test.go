package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "New comment",
		BodyHTML: "<p>hello</p>",
	}

	tests := []struct {
		name    string
		mutate  func(p *email.SendEmailParams)
		wantErr string
	}{
		{name: "valid", mutate: func(*email.SendEmailParams) {}},
		{name: "text body only", mutate: func(p *email.SendEmailParams) { p.BodyHTML = ""; p.BodyText = "hello" }},
		{name: "missing recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "" }, wantErr: "recipient is required"},
		{name: "invalid recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }, wantErr: "valid email address"},
		{name: "missing subject", mutate: func(p *email.SendEmailParams) { p.Subject = "" }, wantErr: "subject is required"},
		{name: "missing body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = "" }, wantErr: "body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("writes envelope and body", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(filepath.Join(dir, "out"))

		err := sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "New comment",
			BodyHTML: "<p>hello</p>",
			Tag:      "Comment Created",
			Metadata: map[string]string{"message_id": "m1"},
		})
		require.NoError(t, err)

		files, err := os.ReadDir(filepath.Join(dir, "out"))
		require.NoError(t, err)
		require.Len(t, files, 2)

		var envelope map[string]any
		for _, f := range files {
			assert.Contains(t, f.Name(), "comment_created")
			if strings.HasSuffix(f.Name(), ".json") {
				data, err := os.ReadFile(filepath.Join(dir, "out", f.Name()))
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(data, &envelope))
			}
		}
		assert.Equal(t, "user@example.com", envelope["send_to"])
		assert.Equal(t, map[string]any{"message_id": "m1"}, envelope["metadata"])
	})

	t.Run("text only email has no html file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		require.NoError(t, sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Digest",
			BodyText: "hello",
		}))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.True(t, strings.HasSuffix(files[0].Name(), "_digest.json"))
	})

	t.Run("invalid params are rejected before writing", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "never")
		sender := email.NewDevSender(dir)

		err := sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "user@example.com"})
		require.ErrorIs(t, err, email.ErrInvalidParams)

		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		client, err := email.NewPostmarkClient(valid)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	tests := []struct {
		name    string
		mutate  func(c *email.Config)
		wantErr string
	}{
		{name: "missing server token", mutate: func(c *email.Config) { c.PostmarkServerToken = "" }, wantErr: "PostmarkServerToken"},
		{name: "missing account token", mutate: func(c *email.Config) { c.PostmarkAccountToken = "" }, wantErr: "PostmarkAccountToken"},
		{name: "invalid sender", mutate: func(c *email.Config) { c.SenderEmail = "nope" }, wantErr: "SenderEmail"},
		{name: "invalid support", mutate: func(c *email.Config) { c.SupportEmail = "" }, wantErr: "SupportEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			client, err := email.NewPostmarkClient(cfg)
			require.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, client)
		})
	}
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	sender, err := email.NewSender(email.Config{DevDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, sender)

	sender, err = email.NewSender(email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}, nil)
	require.NoError(t, err)
	_, isDev := sender.(*email.DevSender)
	assert.False(t, isDev)
}
