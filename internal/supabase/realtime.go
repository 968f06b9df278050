package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChangeEvent is a postgres change delivered over the realtime socket.
type ChangeEvent struct {
	Event   string         `json:"event"`
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref"`
}

// ChangeHandler receives change events for a subscription.
type ChangeHandler func(event *ChangeEvent)

// Realtime subscribes to postgres changes over the Supabase realtime
// websocket. One connection serves all table subscriptions.
type Realtime struct {
	mu       sync.Mutex
	url      string
	conn     *websocket.Conn
	handlers map[string][]ChangeHandler
	done     chan struct{}
	ref      int
}

// NewRealtime creates a realtime subscriber for the client's project.
func (c *Client) NewRealtime() *Realtime {
	wsURL := c.baseURL
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + wsURL[len("https"):]
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + c.apiKey + "&vsn=1.0.0"

	return &Realtime{
		url:      wsURL,
		handlers: make(map[string][]ChangeHandler),
		done:     make(chan struct{}),
	}
}

// Connect dials the websocket and starts the read and heartbeat loops.
func (r *Realtime) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("supabase: realtime dial: %w", err)
	}
	r.conn = conn
	r.done = make(chan struct{})

	go r.readLoop(conn)
	go r.heartbeat()
	return nil
}

// Close shuts the connection down.
func (r *Realtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	close(r.done)

	_ = r.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := r.conn.Close()
	r.conn = nil
	return err
}

// Watch subscribes to all changes on a table in the public schema.
// Connect must be called first.
func (r *Realtime) Watch(table string, handler ChangeHandler) error {
	topic := "realtime:public:" + table

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return fmt.Errorf("supabase: realtime not connected")
	}

	r.handlers[topic] = append(r.handlers[topic], handler)

	r.ref++
	join := map[string]any{
		"topic":   topic,
		"event":   "phx_join",
		"payload": map[string]any{},
		"ref":     strconv.Itoa(r.ref),
	}
	if err := r.conn.WriteJSON(join); err != nil {
		return fmt.Errorf("supabase: realtime join: %w", err)
	}
	return nil
}

func (r *Realtime) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event ChangeEvent
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		r.dispatch(&event)
	}
}

func (r *Realtime) dispatch(event *ChangeEvent) {
	// Phoenix protocol frames (joins, heartbeats) are not change events.
	if strings.HasPrefix(event.Event, "phx_") || event.Event == "heartbeat" {
		return
	}

	r.mu.Lock()
	handlers := append([]ChangeHandler(nil), r.handlers[event.Topic]...)
	r.mu.Unlock()

	for _, h := range handlers {
		go h(event)
	}
}

func (r *Realtime) heartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.conn != nil {
				r.ref++
				_ = r.conn.WriteJSON(map[string]any{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]any{},
					"ref":     strconv.Itoa(r.ref),
				})
			}
			r.mu.Unlock()
		}
	}
}
