package core

import "github.com/vovakirdan/pulsechat/internal/presence"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventLoginResult answers join and signup_or_login.
	EventLoginResult EventKind = iota
	// EventLoadMessages replays recent history to one client.
	EventLoadMessages
	// EventNewMessage announces a persisted chat message.
	EventNewMessage
	// EventUpdateReact announces a new reaction count.
	EventUpdateReact
	// EventOnlineUsers carries the current roster.
	EventOnlineUsers
)

// Event is sent to clients to describe what happened in the system.
// Broadcast events are shared between clients and must not be mutated.
type Event struct {
	Kind     EventKind
	Success  bool       // EventLoginResult
	Error    *CoreError // EventLoginResult failures
	Message  Message    // EventNewMessage
	Messages []Message  // EventLoadMessages, oldest first
	Reaction Reaction   // EventUpdateReact
	Online   []presence.Entry
}
