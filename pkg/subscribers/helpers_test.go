package subscribers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/flag"
	"github.com/dmitrymomot/subscribe/pkg/message"
	"github.com/dmitrymomot/subscribe/pkg/notifier"
	"github.com/dmitrymomot/subscribe/pkg/queue"
	"github.com/dmitrymomot/subscribe/pkg/subscribers"
)

const (
	nodeID    int64 = 1
	ownerID   int64 = 100
	queueName       = "message_subscribe"
)

var node = entity.Entity{Type: entity.TypeNode, ID: nodeID, Bundle: "article", OwnerID: ownerID, Published: true}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() subscribers.Config {
	cfg := subscribers.DefaultConfig()
	cfg.DefaultNotifiers = nil
	return cfg
}

func testFlags() []flag.Flag {
	return []flag.Flag{
		{ID: "subscribe_node", EntityType: entity.TypeNode, Enabled: true},
		{ID: "subscribe_user", EntityType: entity.TypeUser, Enabled: true},
		{ID: "subscribe_term", EntityType: entity.TypeTerm, Enabled: false},
		{ID: "bookmark", EntityType: entity.TypeNode, Enabled: true},
	}
}

type sent struct {
	Channel   string
	Recipient int64
	Opts      notifier.Options
	Msg       *message.Message
}

// recordingSender records every send. Channels listed in fail return an error.
type recordingSender struct {
	mu     sync.Mutex
	sends  []sent
	fail   map[string]error
	onSend func(s sent)
}

func (r *recordingSender) Send(_ context.Context, channel string, msg *message.Message, opts notifier.Options) error {
	s := sent{Channel: channel, Recipient: msg.OwnerID, Opts: opts, Msg: msg}

	r.mu.Lock()
	r.sends = append(r.sends, s)
	hook := r.onSend
	err := r.fail[channel]
	r.mu.Unlock()

	if hook != nil {
		hook(s)
	}
	return err
}

func (r *recordingSender) pairs() [][2]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][2]any, 0, len(r.sends))
	for _, s := range r.sends {
		out = append(out, [2]any{s.Recipient, s.Channel})
	}
	return out
}

func (r *recordingSender) recipients() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []int64
	for _, s := range r.sends {
		out = append(out, s.Recipient)
	}
	return out
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	cfg        subscribers.Config
	entities   *entity.MemoryStore
	flags      *flag.Manager
	messages   *message.MemoryStorage
	sender     *recordingSender
	storage    *queue.MemoryStorage
	enqueuer   *queue.Enqueuer
	resolver   *subscribers.Resolver
	dispatcher *subscribers.Dispatcher
}

type fixtureOptions struct {
	resolver   []subscribers.ResolverOption
	dispatcher []subscribers.DispatcherOption
}

func newFixture(t *testing.T, cfg subscribers.Config, fo fixtureOptions) *fixture {
	t.Helper()

	f := &fixture{
		cfg:      cfg,
		entities: entity.NewMemoryStore(),
		messages: message.NewMemoryStorage(),
		sender:   &recordingSender{},
		storage:  queue.NewMemoryStorage(),
	}
	t.Cleanup(func() { _ = f.storage.Close() })

	f.flags = flag.NewManager(flag.NewMemoryStore(), testFlags(), flag.WithManagerLogger(quietLogger()))

	var err error
	f.enqueuer, err = queue.NewEnqueuer(f.storage)
	require.NoError(t, err)

	require.NoError(t, f.entities.Put(node))
	f.entities.SetAccount(ownerID, true)

	expander := subscribers.NewExpander(f.entities,
		subscribers.WithMemberships(f.entities),
		subscribers.WithExpanderLogger(quietLogger()),
	)
	ropts := append([]subscribers.ResolverOption{
		subscribers.WithProvider(subscribers.NewFlagProvider(f.flags, cfg)),
		subscribers.WithAccounts(f.entities),
		subscribers.WithFlagService(f.flags),
		subscribers.WithResolverLogger(quietLogger()),
	}, fo.resolver...)
	f.resolver = subscribers.NewResolver(cfg, expander, ropts...)

	dopts := append([]subscribers.DispatcherOption{
		subscribers.WithEnqueuer(f.enqueuer),
		subscribers.WithDispatcherLogger(quietLogger()),
	}, fo.dispatcher...)
	f.dispatcher = subscribers.NewDispatcher(cfg, f.resolver, f.messages, f.sender, dopts...)

	return f
}

// subscribe flags ref for every account and marks the accounts active.
func (f *fixture) subscribe(t *testing.T, flagID string, ref entity.Ref, accounts ...int64) {
	t.Helper()
	for _, id := range accounts {
		f.entities.SetAccount(id, true)
		_, err := f.flags.Flag(context.Background(), flagID, ref, id)
		require.NoError(t, err)
	}
}

// newMessage returns an unsaved message authored by the node owner.
func newMessage() *message.Message {
	return &message.Message{Template: "comment_created", OwnerID: ownerID, Fields: map[string]any{"subject": "New comment"}}
}

// jobs decodes the delivery jobs waiting in the queue.
func (f *fixture) jobs(t *testing.T) []subscribers.DeliveryJob {
	t.Helper()

	var out []subscribers.DeliveryJob
	for _, task := range f.storage.Tasks(queueName) {
		var job subscribers.DeliveryJob
		require.NoError(t, json.Unmarshal(task.Payload, &job))
		out = append(out, job)
	}
	return out
}

func ids(from, to int64) []int64 {
	var out []int64
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
