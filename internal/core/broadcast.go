package core

import (
	"context"

	"github.com/vovakirdan/pulsechat/internal/store"
)

// SendMessage persists text from an authenticated client and announces it to everyone.
// Unauthenticated senders, empty texts and storage failures are dropped silently.
func (h *Hub) SendMessage(ctx context.Context, c *Client, text string) {
	sess := c.Session()
	if !sess.Authenticated() {
		h.log.Debug().Str("conn_id", c.ID).Msg("message from unauthenticated client dropped")
		return
	}
	text = Sanitize(text, MaxTextLen)
	if text == "" || h.store == nil {
		return
	}

	// Re-read so avatar changes made on another connection show up.
	avatar, err := h.store.GetAvatar(ctx, sess.Nickname)
	if err != nil {
		h.log.Error().Err(err).Str("conn_id", c.ID).Str("nickname", sess.Nickname).Msg("avatar lookup failed")
		return
	}

	stored := &store.Message{
		Nickname:   sess.Nickname,
		Decoration: sess.Decoration,
		Text:       text,
	}
	if err := h.store.SaveMessage(ctx, stored); err != nil {
		h.log.Error().Err(err).Str("conn_id", c.ID).Str("nickname", sess.Nickname).Msg("failed to save message")
		return
	}
	msg := messageFromStore(stored)
	msg.Avatar = avatar

	h.metrics.MessageSent()
	h.BroadcastMessage(msg)
}

// React increments the counter of messageID and announces the new value.
// Non-positive ids and storage failures are dropped silently.
func (h *Hub) React(ctx context.Context, messageID int64) {
	if messageID <= 0 || h.store == nil {
		return
	}
	count, err := h.store.IncrementReaction(ctx, messageID)
	if err != nil {
		h.log.Error().Err(err).Int64("msg_id", messageID).Msg("failed to increment reaction")
		return
	}

	h.metrics.ReactionApplied()
	h.BroadcastReaction(Reaction{MessageID: messageID, Count: count})
}

// BroadcastMessage sends a new_message event to every connected client.
func (h *Hub) BroadcastMessage(msg Message) {
	h.broadcast(&Event{Kind: EventNewMessage, Message: msg})
}

// BroadcastReaction sends an update_react event to every connected client.
func (h *Hub) BroadcastReaction(r Reaction) {
	h.broadcast(&Event{Kind: EventUpdateReact, Reaction: r})
}

// BroadcastPresence sends the current roster to every connected client.
// Concurrent calls are serialized so the last roster queued is the newest one.
// Fan-out only does non-blocking sends.
func (h *Hub) BroadcastPresence() {
	h.rosterMu.Lock()
	defer h.rosterMu.Unlock()

	online := h.presence.Snapshot()
	h.metrics.SetOnline(len(online))
	h.broadcast(&Event{Kind: EventOnlineUsers, Online: online})
}

// ReplayHistory sends the most recent messages, oldest first, to c only.
// A storage failure replays an empty history.
func (h *Hub) ReplayHistory(ctx context.Context, c *Client) {
	msgs, err := h.History(ctx, h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("conn_id", c.ID).Msg("failed to load history")
		msgs = nil
	}
	h.deliver(c, &Event{Kind: EventLoadMessages, Messages: msgs})
}

// broadcast fans ev out to the clients connected at the time of the call.
// The client set is copied under the read lock; sends happen outside it.
func (h *Hub) broadcast(ev *Event) {
	for _, c := range h.connected() {
		h.deliver(c, ev)
	}
}

func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case <-c.Done():
		return
	default:
	}
	if !c.send(ev) {
		h.metrics.EventDropped()
		h.log.Warn().Str("conn_id", c.ID).Int("kind", int(ev.Kind)).Msg("client queue full, event dropped")
	}
}
