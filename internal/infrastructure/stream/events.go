package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 16
	pongWait     = 60 * time.Second
	writeWait    = 5 * time.Second
)

// Update сообщение, которое получают подписчики "/ws"
type Update struct {
	Type    string   `json:"type"`
	State   string   `json:"state,omitempty"`
	Gps     string   `json:"gps,omitempty"`
	Defects []string `json:"defects,omitempty"`
	Defect  string   `json:"defect,omitempty"`
	Time    string   `json:"time,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Events рассылает обновления по WebSocket; медленный клиент теряет сообщения, а не тормозит конвейер.
type Events struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewEvents(log *slog.Logger) *Events {
	if log == nil {
		log = slog.Default()
	}
	return &Events{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

func (e *Events) Publish(u Update) {
	msg, err := json.Marshal(u)
	if err != nil {
		e.log.Warn("encode update", "err", err)
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for c := range e.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (e *Events) Clients() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}

func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Warn("websocket upgrade", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	e.mu.Lock()
	e.clients[c] = struct{}{}
	total := len(e.clients)
	e.mu.Unlock()
	e.log.Debug("viewer connected", "total", total)

	done := make(chan struct{})
	go e.writeLoop(c, done)

	// Входящие сообщения не нужны, чтение держит соединение и ловит закрытие.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	e.mu.Lock()
	delete(e.clients, c)
	total = len(e.clients)
	e.mu.Unlock()
	close(done)
	conn.Close()
	e.log.Debug("viewer disconnected", "total", total)
}

func (e *Events) writeLoop(c *client, done <-chan struct{}) {
	ping := time.NewTicker(pongWait / 2)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
