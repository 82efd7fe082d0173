package websocket

import (
	"encoding/json"
	"sync"

	"tugas-go/internal/models"
	"tugas-go/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Client merepresentasikan klien WebSocket.
type Client struct {
	Conn *websocket.Conn
	Mu   sync.Mutex
}

// TaskEvent adalah event yang di-broadcast setiap ada mutasi task,
// termasuk transisi Missed dari sweeper.
type TaskEvent struct {
	Action string      `json:"action"` // created | updated | deleted | missed
	Task   models.Task `json:"task"`
}

// Hub mengelola koneksi WebSocket dan menyebarkan TaskEvent.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan TaskEvent
	Register   chan *Client
	Unregister chan *Client
}

// NewHub membuat instance Hub baru.
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan TaskEvent, 16),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Publish mengirim event ke hub tanpa memblokir handler; kalau buffer
// penuh event di-drop, feed ini best-effort.
func (h *Hub) Publish(action string, t models.Task) {
	select {
	case h.Broadcast <- TaskEvent{Action: action, Task: t}:
	default:
		logger.ErrorLogger.Error("task event dropped, hub buffer full",
			zap.String("action", action), zap.String("task_id", t.ID))
	}
}

// TaskMissed membuat *Hub memenuhi interface notifier milik sweeper.
func (h *Hub) TaskMissed(t models.Task) {
	h.Publish("missed", t)
}

// Run menjalankan loop Hub untuk mengelola register, unregister, dan broadcast.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
		case event := <-h.Broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				logger.ErrorLogger.Error("error encoding task event", zap.Error(err))
				continue
			}
			for client := range h.Clients {
				client.Mu.Lock()
				err := client.Conn.WriteMessage(websocket.TextMessage, message)
				client.Mu.Unlock()
				if err != nil {
					delete(h.Clients, client)
					client.Conn.Close()
				}
			}
		}
	}
}
