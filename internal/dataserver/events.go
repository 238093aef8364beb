package dataserver

import (
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Event is sent to every subscriber after a Publish.
type Event struct {
	Type     string   `json:"type"`
	Revision uint64   `json:"revision"`
	Assets   []string `json:"assets"`
}

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	clientQueue = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// dev-only and read-only: any page may subscribe
	CheckOrigin: func(*http.Request) bool { return true },
}

type hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
	closed  bool
}

func newHub() *hub {
	return &hub{clients: make(map[chan Event]struct{})}
}

func (h *hub) subscribe() (chan Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	ch := make(chan Event, clientQueue)
	h.clients[ch] = struct{}{}
	return ch, true
}

func (h *hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// broadcast drops the event for subscribers whose queue is full; the next
// revision supersedes it anyway.
func (h *hub) broadcast(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			Log.Warn("dropping event for slow subscriber", "revision", evt.Revision)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	// Subscribe before upgrading so that nothing published after the
	// handshake completes is missed.
	events, ok := h.subscribe()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(events)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	reqID := chimw.GetReqID(r.Context())
	Log.Debug("subscriber connected", "request_id", reqID)
	defer Log.Debug("subscriber disconnected", "request_id", reqID)

	// The read loop only exists to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case evt, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
