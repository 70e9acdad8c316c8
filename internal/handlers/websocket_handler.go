package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsPingPeriod = 30 * time.Second

// wsClient pairs a connection with its outbound queue. All frames for
// a connection go through send, so exactly one goroutine ever writes
// to the socket.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketHandler streams ticket activity to connected admin
// dashboards so new tickets show up without a refresh.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
}

func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the route already sits behind AuthMiddleware
			},
		},
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

func (h *WebSocketHandler) HandleConnections(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn: ws,
		send: make(chan []byte, 16),
	}
	defer func() {
		h.unregister <- client
		ws.Close()
	}()

	h.register <- client

	go h.writePump(client)

	h.readPump(client)
}

// writePump is the single writer for a connection: it drains the send
// queue and emits keepalive pings. Returns when the queue is closed or
// a write fails.
func (h *WebSocketHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := client.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// readPump handles inbound messages; replies are queued on the send
// channel, never written directly.
func (h *WebSocketHandler) readPump(client *wsClient) {
	for {
		var msg map[string]interface{}

		err := client.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		switch msg["type"] {
		case "ping":
			h.reply(client, map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			})

		default:
			h.reply(client, map[string]interface{}{
				"type":      "error",
				"message":   "Unknown message type",
				"timestamp": time.Now().Unix(),
			})
		}
	}
}

func (h *WebSocketHandler) reply(client *wsClient, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		// queue full; the dashboard will resync from the next update
	}
}

// RunHub owns the client set and fans ticket updates out to every
// connected dashboard. Run in its own goroutine.
func (h *WebSocketHandler) RunHub(updates <-chan string) {
	log.Println("Starting WebSocket hub")

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Println("Dashboard connected. Total clients:", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Println("Dashboard disconnected. Total clients:", len(h.clients))
			}

		case payload := <-updates:
			h.fanOut([]byte(payload))
		}
	}
}

// fanOut queues a message for every dashboard. A client whose queue is
// full is dropped; its writePump exits when the queue closes.
func (h *WebSocketHandler) fanOut(message []byte) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}
