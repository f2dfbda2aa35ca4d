package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin          = "join"
	InboundTypeSignupOrLogin = "signup_or_login"
	InboundTypeSendMessage   = "send_message"
	InboundTypeReact         = "react"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventLoginResult  = "login_result"
	EventLoadMessages = "load_messages"
	EventNewMessage   = "new_message"
	EventUpdateReact  = "update_react"
	EventOnlineUsers  = "online_users"
)

// TimestampLayout is the wire format of message timestamps (UTC, seconds precision).
const TimestampLayout = "2006-01-02T15:04:05"

// JoinData is a guest join request.
type JoinData struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// SignupOrLoginData creates an account on first use or logs into it.
type SignupOrLoginData struct {
	Nickname   string `json:"nickname"`
	Key        string `json:"key"`
	Decoration string `json:"decoration,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	Msg string `json:"msg"`
}

// ReactData asks to bump the reaction counter of a message.
type ReactData struct {
	MsgID MessageID `json:"msg_id"`
}

// MessageID accepts a JSON number or a numeric string. Anything else decodes to 0.
type MessageID int64

// UnmarshalJSON implements json.Unmarshaler.
func (m *MessageID) UnmarshalJSON(data []byte) error {
	*m = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*m = MessageID(n)
		return nil
	}
	// Integral floats such as 3.0 are still usable ids.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		*m = MessageID(int64(f))
	}
	return nil
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// LoginResult answers join and signup_or_login.
type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewMessage is broadcast to every client after a message is persisted.
type NewMessage struct {
	Nickname   string `json:"nickname"`
	Decoration string `json:"decoration"`
	Msg        string `json:"msg"`
	Timestamp  string `json:"timestamp"`
	ID         int64  `json:"id"`
	Avatar     string `json:"avatar"`
}

// HistoryEntry is one replayed message. It travels as a positional array:
// [nickname, decoration, text, timestamp, id, avatar].
type HistoryEntry struct {
	Nickname   string
	Decoration string
	Text       string
	Timestamp  string
	ID         int64
	Avatar     string
}

// MarshalJSON implements json.Marshaler.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{h.Nickname, h.Decoration, h.Text, h.Timestamp, h.ID, h.Avatar})
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 6 {
		return fmt.Errorf("history entry: want 6 fields, got %d", len(fields))
	}
	targets := []any{&h.Nickname, &h.Decoration, &h.Text, &h.Timestamp, &h.ID, &h.Avatar}
	for i, target := range targets {
		if err := json.Unmarshal(fields[i], target); err != nil {
			return fmt.Errorf("history entry field %d: %w", i, err)
		}
	}
	return nil
}

// UpdateReact carries the new counter value of a message.
type UpdateReact struct {
	MsgID int64 `json:"msg_id"`
	Count int64 `json:"count"`
}

// OnlineUser is one roster entry.
type OnlineUser struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
