package core

import (
	"testing"
)

func benchmarkBroadcastMessage(b *testing.B, recipients int) {
	hub := NewHub(nil, nil)

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient()
		hub.Connect(c)
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for {
				select {
				case <-cl.Events:
				case <-cl.Done():
					return
				}
			}
		}(c)
	}
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	msg := Message{ID: 1, Nickname: "Guest1", Text: "payload"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.BroadcastMessage(msg)
		<-target.Events
	}
}

func BenchmarkBroadcastMessage_10(b *testing.B)  { benchmarkBroadcastMessage(b, 10) }
func BenchmarkBroadcastMessage_100(b *testing.B) { benchmarkBroadcastMessage(b, 100) }
func BenchmarkBroadcastMessage_500(b *testing.B) { benchmarkBroadcastMessage(b, 500) }
