package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PredictionEvent is what dashboard clients receive for every served
// prediction. Inputs are not broadcast.
type PredictionEvent struct {
	RequestID   string    `json:"request_id"`
	RiskTier    string    `json:"risk_tier"`
	Probability float64   `json:"probability"`
	Timestamp   time.Time `json:"timestamp"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed fans prediction events out to connected WebSocket clients.
type Feed struct {
	clients    map[*feedClient]bool
	broadcast  chan []byte
	register   chan *feedClient
	unregister chan *feedClient
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	done       chan struct{}
}

func NewFeed(logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		clients:    make(map[*feedClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Run owns the client set. Call it in its own goroutine before serving.
func (f *Feed) Run() {
	for {
		select {
		case client := <-f.register:
			f.mu.Lock()
			f.clients[client] = true
			total := len(f.clients)
			f.mu.Unlock()
			f.logger.Info("dashboard client connected", zap.Int("total", total))

		case client := <-f.unregister:
			f.mu.Lock()
			if _, ok := f.clients[client]; ok {
				delete(f.clients, client)
				close(client.send)
			}
			total := len(f.clients)
			f.mu.Unlock()
			f.logger.Info("dashboard client disconnected", zap.Int("total", total))

		case message := <-f.broadcast:
			f.mu.RLock()
			for client := range f.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer, drop the message
				}
			}
			f.mu.RUnlock()

		case <-f.done:
			f.mu.Lock()
			for client := range f.clients {
				close(client.send)
				client.conn.Close()
			}
			f.clients = make(map[*feedClient]bool)
			f.mu.Unlock()
			return
		}
	}
}

func (f *Feed) Stop() {
	close(f.done)
}

// Broadcast queues a prediction event for every connected client.
func (f *Feed) Broadcast(event PredictionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case f.broadcast <- payload:
	default:
		f.logger.Warn("feed broadcast buffer full, dropping event")
	}
}

// ServeWS upgrades the request and attaches the client to the feed.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, 64)}
	f.register <- client

	go f.writeLoop(client)
	go f.readLoop(client)
}

func (f *Feed) writeLoop(client *feedClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound messages; the feed is one-way.
func (f *Feed) readLoop(client *feedClient) {
	defer func() {
		f.unregister <- client
		client.conn.Close()
	}()
	client.conn.SetReadLimit(512)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
