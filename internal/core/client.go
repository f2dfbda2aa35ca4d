package core

import (
	"sync"

	"github.com/google/uuid"
)

// clientQueueSize bounds the outbound events buffered per connection.
const clientQueueSize = 64

// SessionState is the authentication state of one connection.
type SessionState int

const (
	// StateUnauthenticated accepts only join and signup_or_login.
	StateUnauthenticated SessionState = iota
	// StateGuest is a credential-free session with a guest-prefixed nickname.
	StateGuest
	// StateAuthenticated is a session bound to a stored account.
	StateAuthenticated
	// StateDisconnected is terminal.
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the identity attached to a connection.
type Session struct {
	State      SessionState
	Nickname   string
	Decoration string
	Avatar     string
}

// Authenticated reports whether messages from this session are accepted.
func (s Session) Authenticated() bool {
	return s.State == StateGuest || s.State == StateAuthenticated
}

// Client is one live connection as seen by the core layer.
// Events is never closed; writers stop on Done.
type Client struct {
	ID     string
	Events chan *Event

	mu      sync.Mutex
	session Session

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with a fresh connection id.
func NewClient() *Client {
	return NewClientWithID(uuid.NewString())
}

// NewClientWithID constructs a client with the given connection id.
func NewClientWithID(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, clientQueueSize),
		done:   make(chan struct{}),
	}
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// authenticate moves the session into state. It fails once the client is disconnected.
func (c *Client) authenticate(state SessionState, nickname, decoration, avatar string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.State == StateDisconnected {
		return false
	}
	c.session = Session{
		State:      state,
		Nickname:   nickname,
		Decoration: decoration,
		Avatar:     avatar,
	}
	return true
}

func (c *Client) markDisconnected() {
	c.mu.Lock()
	c.session.State = StateDisconnected
	c.mu.Unlock()
}

// Done is closed when the client is shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close signals the transport to stop. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// send queues ev without blocking. Returns false if the queue is full.
func (c *Client) send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
