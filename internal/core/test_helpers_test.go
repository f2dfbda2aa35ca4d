package core

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vovakirdan/pulsechat/internal/auth"
	"github.com/vovakirdan/pulsechat/internal/store/sqlite"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts nothing of kind is queued for the client.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func newTestHub(t *testing.T, opts ...Option) (*Hub, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authSvc := auth.NewService(st, auth.WithHashCost(bcrypt.MinCost))
	return NewHub(st, authSvc, opts...), st
}

func connect(h *Hub) *Client {
	c := NewClient()
	h.Connect(c)
	return c
}

func join(t *testing.T, h *Hub, nickname string) *Client {
	t.Helper()
	c := connect(h)
	h.Handle(context.Background(), c, &Command{Kind: CommandJoin, Nickname: nickname})
	ev := mustEvent(t, c.Events, EventLoginResult)
	if !ev.Success {
		t.Fatalf("join %q failed: %+v", nickname, ev.Error)
	}
	return c
}
