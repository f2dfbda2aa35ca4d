package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/pulsechat/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	nickname := flag.String("nickname", "GuestSmoke", "nickname; guest-prefixed names join without a key")
	key := flag.String("key", "", "key for signup_or_login (empty joins as guest)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	react := flag.Bool("react", true, "react to the sent message")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if *key == "" {
		err = mustSend(proto.InboundTypeJoin, proto.JoinData{Nickname: *nickname})
	} else {
		err = mustSend(proto.InboundTypeSignupOrLogin, proto.SignupOrLoginData{Nickname: *nickname, Key: *key})
	}
	if err != nil {
		return err
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received outbound: type=%s event=%s\n", out.Type, out.Event)

		switch out.Event {
		case proto.EventLoginResult:
			var res proto.LoginResult
			if err := json.Unmarshal(out.Data, &res); err != nil {
				return fmt.Errorf("unmarshal login_result: %w", err)
			}
			if !res.Success {
				return fmt.Errorf("login rejected: %s", res.Error)
			}
		case proto.EventLoadMessages:
			var history []proto.HistoryEntry
			if err := json.Unmarshal(out.Data, &history); err != nil {
				return fmt.Errorf("unmarshal load_messages: %w", err)
			}
			fmt.Printf("History: %d messages\n", len(history))
			if err := mustSend(proto.InboundTypeSendMessage, proto.SendMessageData{Msg: *text}); err != nil {
				return err
			}
		case proto.EventOnlineUsers:
			var online []proto.OnlineUser
			if err := json.Unmarshal(out.Data, &online); err == nil {
				fmt.Printf("Online: %d users\n", len(online))
			}
		case proto.EventNewMessage:
			var msg proto.NewMessage
			if err := json.Unmarshal(out.Data, &msg); err != nil {
				return fmt.Errorf("unmarshal new_message: %w", err)
			}
			fmt.Printf("NewMessage: id=%d nickname=%s msg=%q ts=%s\n", msg.ID, msg.Nickname, msg.Msg, msg.Timestamp)
			if msg.Nickname != *nickname {
				continue
			}
			if !*react {
				return nil
			}
			if err := mustSend(proto.InboundTypeReact, proto.ReactData{MsgID: proto.MessageID(msg.ID)}); err != nil {
				return err
			}
		case proto.EventUpdateReact:
			var up proto.UpdateReact
			if err := json.Unmarshal(out.Data, &up); err != nil {
				return fmt.Errorf("unmarshal update_react: %w", err)
			}
			fmt.Printf("UpdateReact: msg_id=%d count=%d\n", up.MsgID, up.Count)
			return nil
		}
	}
}
