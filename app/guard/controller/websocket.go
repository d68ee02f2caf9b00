package controller

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	enginetypes "github.com/arcadenet/voteguard/pkg/engine/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the dashboard origin once it is deployed
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Kind   string `json:"kind"`   // notification kind, or "*" for all
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"` // notification kind, "subscribed", "unsubscribed", "ping", "error"
	Payload interface{} `json:"payload"`
}

// wsClient is one connected feed consumer with its kind filter.
type wsClient struct {
	mu    sync.RWMutex
	kinds map[string]bool
	send  chan ServerMessage
}

func (cl *wsClient) subscribe(kind string)   { cl.mu.Lock(); cl.kinds[kind] = true; cl.mu.Unlock() }
func (cl *wsClient) unsubscribe(kind string) { cl.mu.Lock(); delete(cl.kinds, kind); cl.mu.Unlock() }

func (cl *wsClient) subscribed(kind string) bool {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.kinds["*"] || cl.kinds[kind]
}

// wsHub fans engine notifications out to connected clients. It is itself a
// registry subscriber, so a slow socket can only drop its own messages.
type wsHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func newWsHub() *wsHub {
	return &wsHub{clients: make(map[*wsClient]struct{})}
}

func (h *wsHub) register(cl *wsClient) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(cl *wsClient) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

// broadcast delivers a notification to every subscribed client without
// blocking; a full client buffer drops the message for that client only.
func (h *wsHub) broadcast(n enginetypes.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		if !cl.subscribed(string(n.Kind)) {
			continue
		}
		select {
		case cl.send <- ServerMessage{Type: string(n.Kind), Payload: n}:
		default:
		}
	}
}

// HandleWebSocket upgrades the connection and streams engine notifications.
//
// Protocol:
// Client sends: {"action": "subscribe", "kind": "block"}
// Client sends: {"action": "subscribe", "kind": "*"}
// Client sends: {"action": "unsubscribe", "kind": "block"}
//
// Server sends:
// - {"type": "<kind>", "payload": {...notification...}}
// - {"type": "subscribed"/"unsubscribed", "payload": {"kind": "..."}}
// - {"type": "ping", "payload": {"timestamp": 1234567890}}
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(closeErr))
		}
	}()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl := &wsClient{
		kinds: make(map[string]bool),
		send:  make(chan ServerMessage, 256),
	}
	c.hub.register(cl)
	defer c.hub.remove(cl)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer c.recoverWs(r.RemoteAddr, cancel)
		c.writeMessages(ctx, conn, cl.send, cancel)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer c.recoverWs(r.RemoteAddr, cancel)
		c.sendPings(ctx, cl)
	}()

	// Blocks until the client disconnects.
	c.readClientMessages(conn, cl)

	cancel()
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

func (c *Controller) recoverWs(remoteAddr string, cancel context.CancelFunc) {
	if rec := recover(); rec != nil {
		c.App.Logger.Error("Panic in WebSocket goroutine",
			zap.Any("panic", rec),
			zap.String("stack", string(debug.Stack())),
			zap.String("remote_addr", remoteAddr))
		cancel()
	}
}

func (c *Controller) writeMessages(ctx context.Context, conn *websocket.Conn, send <-chan ServerMessage, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				return
			}
		}
	}
}

func (c *Controller) sendPings(ctx context.Context, cl *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case cl.send <- ServerMessage{Type: "ping", Payload: map[string]int64{"timestamp": time.Now().UnixMilli()}}:
			default:
			}
		}
	}
}

func (c *Controller) readClientMessages(conn *websocket.Conn, cl *wsClient) {
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Action {
		case "subscribe":
			cl.subscribe(msg.Kind)
			cl.send <- ServerMessage{Type: "subscribed", Payload: map[string]string{"kind": msg.Kind}}
		case "unsubscribe":
			cl.unsubscribe(msg.Kind)
			cl.send <- ServerMessage{Type: "unsubscribed", Payload: map[string]string{"kind": msg.Kind}}
		default:
			cl.send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action"}}
		}
	}
}
