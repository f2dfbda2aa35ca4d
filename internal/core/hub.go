package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat/internal/auth"
	"github.com/vovakirdan/pulsechat/internal/metrics"
	"github.com/vovakirdan/pulsechat/internal/presence"
	"github.com/vovakirdan/pulsechat/internal/store"
)

// DefaultHistoryLimit is the number of messages replayed after login.
const DefaultHistoryLimit = 100

// Hub owns the set of connected clients and routes their commands.
// Commands from one client are handled in the order the transport delivers them;
// commands from different clients run concurrently.
type Hub struct {
	store        store.Store
	auth         *auth.Service
	presence     *presence.Registry
	metrics      *metrics.Metrics
	log          *zerolog.Logger
	historyLimit int

	mu      sync.RWMutex
	clients map[string]*Client

	// rosterMu orders presence snapshots with their fan-out.
	rosterMu sync.Mutex
}

// Option configures a Hub.
type Option func(*Hub)

// WithPresence shares an existing presence registry.
func WithPresence(r *presence.Registry) Option {
	return func(h *Hub) {
		if r != nil {
			h.presence = r
		}
	}
}

// WithMetrics records hub activity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithHistoryLimit sets how many messages are replayed after login.
func WithHistoryLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

// NewHub creates a new chat hub. A nil authSvc gets a default service over st.
func NewHub(st store.Store, authSvc *auth.Service, opts ...Option) *Hub {
	nop := zerolog.Nop()
	if authSvc == nil {
		authSvc = auth.NewService(st)
	}
	h := &Hub{
		store:        st,
		auth:         authSvc,
		presence:     presence.NewRegistry(),
		log:          &nop,
		historyLimit: DefaultHistoryLimit,
		clients:      make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run blocks until ctx is done, then closes every connected client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	for _, c := range h.connected() {
		c.Close()
	}
	h.log.Info().Msg("hub stopped")
}

// Connect registers c as a fan-out target. It starts unauthenticated.
func (h *Hub) Connect(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetConnected(n)
	h.log.Debug().Str("conn_id", c.ID).Msg("client connected")
}

// Disconnect removes c, drops its presence entry and re-announces the roster.
// Safe for clients that never authenticated or were already disconnected.
func (h *Hub) Disconnect(c *Client) {
	c.markDisconnected()
	c.Close()

	h.mu.Lock()
	_, known := h.clients[c.ID]
	delete(h.clients, c.ID)
	n := len(h.clients)
	h.mu.Unlock()

	if !known {
		return
	}
	h.metrics.SetConnected(n)
	h.presence.Remove(c.ID)
	h.log.Debug().Str("conn_id", c.ID).Msg("client disconnected")

	h.BroadcastPresence()
}

// Handle processes one command from c.
func (h *Hub) Handle(ctx context.Context, c *Client, cmd *Command) {
	if cmd == nil || c.Session().State == StateDisconnected {
		return
	}

	switch cmd.Kind {
	case CommandJoin:
		h.Join(ctx, c, cmd.Nickname, cmd.Avatar)
	case CommandSignupOrLogin:
		h.SignupOrLogin(ctx, c, cmd.Nickname, cmd.Key, cmd.Decoration, cmd.Avatar)
	case CommandSendMessage:
		h.SendMessage(ctx, c, cmd.Text)
	case CommandReact:
		h.React(ctx, cmd.MessageID)
	default:
		h.log.Debug().Str("conn_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command dropped")
	}
}

// Online returns the current roster.
func (h *Hub) Online() []presence.Entry {
	return h.presence.Snapshot()
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// History returns at most limit recent messages, oldest first.
// A non-positive limit uses the configured history limit.
func (h *Hub) History(ctx context.Context, limit int) ([]Message, error) {
	if h.store == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}
	stored, err := h.store.ListRecentMessages(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, messageFromStore(m))
	}
	return out, nil
}

// ReactionCount returns the reaction counter of messageID, 0 when nobody reacted yet.
func (h *Hub) ReactionCount(ctx context.Context, messageID int64) (int64, error) {
	if h.store == nil {
		return 0, ErrNoStore
	}
	return h.store.GetReactionCount(ctx, messageID)
}

// Purge deletes all persisted messages and reaction counters.
func (h *Hub) Purge(ctx context.Context) error {
	if h.store == nil {
		return ErrNoStore
	}
	if err := h.store.ClearMessages(ctx); err != nil {
		return err
	}
	h.log.Info().Msg("messages purged")
	return nil
}

func (h *Hub) connected() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}
