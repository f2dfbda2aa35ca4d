package core

import (
	"time"

	"github.com/vovakirdan/pulsechat/internal/store"
)

// Message is the domain model for a chat message.
type Message struct {
	ID         int64
	Nickname   string
	Decoration string
	Text       string
	Avatar     string
	CreatedAt  time.Time
}

// Reaction is the counter value of one message.
type Reaction struct {
	MessageID int64
	Count     int64
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:         m.ID,
		Nickname:   m.Nickname,
		Decoration: m.Decoration,
		Text:       m.Text,
		Avatar:     m.Avatar,
		CreatedAt:  m.CreatedAt,
	}
}
