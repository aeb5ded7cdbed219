package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/placepicker/internal/adapters/nats"
	"github.com/samirrijal/placepicker/internal/pkg/metrics"
)

// wsMessage is sent from client to request the view or change subscriptions.
type wsMessage struct {
	Action  string `json:"action"`  // "view" | "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "selection" | "view" | "all" (default: all)
}

var wsChannels = map[string]string{
	"selection": natsadapter.SubjectSelectionPrefix + ">",
	"view":      natsadapter.SubjectViewResolved,
	"all":       natsadapter.SubjectAll,
}

// WebSocketHandler returns a handler that sends the current view on connect
// and relays selection events from NATS while the client stays connected.
// Clients send JSON: {"action":"subscribe","channel":"selection"} or
// {"action":"view"} to receive a fresh snapshot.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(subject string) error {
			s, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return err
			}
			subs[subject] = s
			return nil
		}

		if err := writeJSON(deps.Places.View()); err != nil {
			return
		}

		// Auto-subscribe to everything by default
		if deps.NATS != nil {
			if err := subscribe(natsadapter.SubjectAll); err != nil {
				slog.Warn("ws default subscribe error", "error", err)
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			if m.Action == "view" {
				_ = writeJSON(deps.Places.View())
				continue
			}

			if deps.NATS == nil {
				_ = writeJSON(map[string]string{"error": "live events are not enabled"})
				continue
			}

			channel := m.Channel
			if channel == "" {
				channel = "all"
			}
			subject, ok := wsChannels[channel]
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				if err := subscribe(subject); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
