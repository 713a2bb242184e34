// internal/server/ws.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"launchpad/internal/events"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The demo site serves its own frontend; cross-origin feeds are fine.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// handleWebsocket streams every bus event to the client as JSON frames.
// Clients that stop reading are disconnected rather than allowed to stall
// the feed.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "event feed disabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	send := make(chan events.Event, wsSendBuffer)
	done := make(chan struct{})
	var closeDone sync.Once
	disconnect := func() { closeDone.Do(func() { close(done) }) }

	subs := make([]events.Subscription, 0, len(events.AllTypes()))
	for _, typ := range events.AllTypes() {
		subs = append(subs, s.bus.SubscribeFunc(typ, func(_ context.Context, ev events.Event) error {
			select {
			case send <- ev:
			case <-done:
			default:
				// slow client: drop the connection, not the event
				disconnect()
			}
			return nil
		}))
	}

	s.logger.Debug("Websocket client connected", zap.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			for _, sub := range subs {
				sub.Unsubscribe()
			}
			_ = conn.Close()
		}()
		for {
			select {
			case <-done:
				return
			case ev := <-send:
				payload, err := json.Marshal(ev)
				if err != nil {
					s.logger.Error("Failed to encode event", zap.Error(err))
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}
	}()

	// Read loop: we accept no client messages, but reading is how we learn
	// the peer went away.
	go func() {
		defer disconnect()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
