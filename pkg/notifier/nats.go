package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

// NATSConfig configures the NATS push channel.
type NATSConfig struct {
	URL           string        `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	ClientName    string        `env:"NATS_CLIENT_NAME" envDefault:"subscribe"`
	SubjectPrefix string        `env:"NATS_NOTIFY_SUBJECT_PREFIX" envDefault:"notify"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" envDefault:"10"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
}

// ConnectNATS opens a NATS connection.
func ConnectNATS(cfg NATSConfig) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: NATS URL is required", ErrInvalidConfig)
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// Publisher is the part of *nats.Conn used by the NATS notifier.
type Publisher interface {
	Publish(subj string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// Push is the JSON payload published for each delivered message.
type Push struct {
	MessageID   string            `json:"message_id,omitempty"`
	Template    string            `json:"template"`
	RecipientID int64             `json:"recipient_id"`
	Fields      map[string]any    `json:"fields,omitempty"`
	Context     entity.ContextMap `json:"context,omitempty"`
	SentAt      time.Time         `json:"sent_at"`
}

var _ Notifier = (*NATS)(nil)

// NATS publishes messages to a per-recipient subject: <prefix>.<recipient id>.
type NATS struct {
	pub    Publisher
	prefix string
	now    func() time.Time
}

// NewNATS creates a NATS push notifier.
func NewNATS(pub Publisher, subjectPrefix string) *NATS {
	return &NATS{pub: pub, prefix: subjectPrefix, now: time.Now}
}

// Subject returns the subject a recipient listens on.
func (n *NATS) Subject(recipientID int64) string {
	return fmt.Sprintf("%s.%d", n.prefix, recipientID)
}

// Send publishes the message. The "subject" extra option overrides the recipient subject.
func (n *NATS) Send(ctx context.Context, msg *message.Message, opts Options) error {
	data, err := json.Marshal(Push{
		MessageID:   originID(msg),
		Template:    msg.Template,
		RecipientID: msg.OwnerID,
		Fields:      msg.Fields,
		Context:     opts.Context,
		SentAt:      n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}

	subject := opts.String("subject")
	if subject == "" {
		subject = n.Subject(msg.OwnerID)
	}
	if err := n.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
