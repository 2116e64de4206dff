package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apilatam/liquidnode/pkg/log"
)

// EventType tags the session events broadcast to observers.
type EventType string

const (
	ServiceRegisteredEventType EventType = "service_registered"
	WalletAddedEventType       EventType = "wallet_added"
	AssetIssuedEventType       EventType = "asset_issued"
)

// Event is one session event as delivered over the feed.
type Event struct {
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"ts"`
}

const (
	eventWriteTimeout  = 5 * time.Second
	eventQueueCapacity = 64
)

// EventHub broadcasts session events to websocket subscribers. Publishing
// never blocks: events queue into a buffered channel and are dropped with
// a warning when subscribers cannot keep up.
type EventHub struct {
	mu       sync.Mutex
	subs     map[*websocket.Conn]struct{}
	queue    chan Event
	upgrader websocket.Upgrader
	lg       log.Logger
}

var _ SessionObserver = (*EventHub)(nil)

// NewEventHub creates an EventHub. Run must be started for events to flow.
func NewEventHub(lg log.Logger) *EventHub {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	return &EventHub{
		subs:  make(map[*websocket.Conn]struct{}),
		queue: make(chan Event, eventQueueCapacity),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		lg: lg.WithName("events"),
	}
}

// Run drains the queue and fans events out to subscribers until ctx is
// done. Subscribers that fail a write are dropped.
func (h *EventHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case evt := <-h.queue:
			h.broadcast(evt)
		}
	}
}

// HandleWS upgrades the request to a websocket subscription. The client
// side is read-only; anything it sends is discarded.
func (h *EventHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.subs[conn] = struct{}{}
	h.mu.Unlock()
	h.lg.Info("event subscriber connected", "remote", conn.RemoteAddr().String())

	// Reader loop only to detect closure.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish queues an event for broadcast without blocking the caller.
func (h *EventHub) Publish(evtType EventType, data map[string]any) {
	evt := Event{Type: evtType, Data: data, Timestamp: time.Now().UTC()}
	select {
	case h.queue <- evt:
	default:
		h.lg.Warn("event queue full, dropping event", "type", evtType)
	}
}

// ServiceRegistered implements SessionObserver.
func (h *EventHub) ServiceRegistered(svc *Service) {
	h.Publish(ServiceRegisteredEventType, map[string]any{
		"working_dir": svc.WorkingDir(),
		"running":     svc.IsRunning(),
	})
}

// WalletAdded implements SessionObserver.
func (h *EventHub) WalletAdded(w *Wallet) {
	h.Publish(WalletAddedEventType, map[string]any{
		"label": w.Label(),
	})
}

func (h *EventHub) broadcast(evt Event) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs))
	for c := range h.subs {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := c.WriteJSON(evt); err != nil {
			h.lg.Warn("dropping slow event subscriber", "error", err)
			h.drop(c)
		}
	}
}

func (h *EventHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.subs[conn]
	delete(h.subs, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

func (h *EventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs {
		_ = c.Close()
	}
	h.subs = make(map[*websocket.Conn]struct{})
}
