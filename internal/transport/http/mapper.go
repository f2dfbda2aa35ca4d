package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/pulsechat/internal/core"
	"github.com/vovakirdan/pulsechat/internal/presence"
	"github.com/vovakirdan/pulsechat/internal/proto"
)

var errUnknownType = errors.New("unknown message type")

func inboundToCommand(inbound proto.Inbound) (*core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:     core.CommandJoin,
			Nickname: join.Nickname,
			Avatar:   join.Avatar,
		}, nil
	case proto.InboundTypeSignupOrLogin:
		var login proto.SignupOrLoginData
		if err := decodeData(inbound.Data, &login); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:       core.CommandSignupOrLogin,
			Nickname:   login.Nickname,
			Key:        login.Key,
			Decoration: login.Decoration,
			Avatar:     login.Avatar,
		}, nil
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Text: msg.Msg,
		}, nil
	case proto.InboundTypeReact:
		var react proto.ReactData
		if err := decodeData(inbound.Data, &react); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:      core.CommandReact,
			MessageID: int64(react.MsgID),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, inbound.Type)
	}
}

// decodeData treats a missing payload as an empty object.
func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLoginResult:
		result := proto.LoginResult{Success: event.Success}
		if event.Error != nil {
			result.Error = event.Error.Message
		}
		return newEvent(proto.EventLoginResult, result)
	case core.EventLoadMessages:
		return newEvent(proto.EventLoadMessages, historyEntries(event.Messages))
	case core.EventNewMessage:
		msg := event.Message
		return newEvent(proto.EventNewMessage, proto.NewMessage{
			Nickname:   msg.Nickname,
			Decoration: msg.Decoration,
			Msg:        msg.Text,
			Timestamp:  formatTimestamp(msg),
			ID:         msg.ID,
			Avatar:     msg.Avatar,
		})
	case core.EventUpdateReact:
		return newEvent(proto.EventUpdateReact, proto.UpdateReact{
			MsgID: event.Reaction.MessageID,
			Count: event.Reaction.Count,
		})
	case core.EventOnlineUsers:
		return newEvent(proto.EventOnlineUsers, onlineUsers(event.Online))
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown", Msg: "unknown event"},
		}
	}
}

func newEvent(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func historyEntries(msgs []core.Message) []proto.HistoryEntry {
	entries := make([]proto.HistoryEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, proto.HistoryEntry{
			Nickname:   msg.Nickname,
			Decoration: msg.Decoration,
			Text:       msg.Text,
			Timestamp:  formatTimestamp(msg),
			ID:         msg.ID,
			Avatar:     msg.Avatar,
		})
	}
	return entries
}

func onlineUsers(entries []presence.Entry) []proto.OnlineUser {
	users := make([]proto.OnlineUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, proto.OnlineUser{Nickname: e.Nickname, Avatar: e.Avatar})
	}
	return users
}

func formatTimestamp(msg core.Message) string {
	if msg.CreatedAt.IsZero() {
		return ""
	}
	return msg.CreatedAt.UTC().Format(proto.TimestampLayout)
}
