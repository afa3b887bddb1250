// Package ws is a read-only market-data fan-out: it streams Trade and
// top-of-book updates to subscribed dashboard clients over WebSocket,
// alongside the binary TCP order-entry protocol in internal/server.
// There is no subscription model and no per-client rate limiting; every
// connected client receives every broadcast.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ladderbook/internal/engine"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TradeMessage is the wire shape of a trade broadcast.
type TradeMessage struct {
	Channel string       `json:"channel"`
	Trade   engine.Trade `json:"trade"`
}

// DepthMessage is the wire shape of a top-of-book broadcast.
type DepthMessage struct {
	Channel string             `json:"channel"`
	Symbol  string             `json:"symbol"`
	Bids    []engine.DepthLevel `json:"bids"`
	Asks    []engine.DepthLevel `json:"asks"`
}

// Feed fans out Trade and depth updates to every connected client. It
// has no subscription model: every client receives every symbol's
// updates, which is adequate for a single-symbol or small-symbol-set
// deployment.
type Feed struct {
	mu      sync.RWMutex
	clients map[*client]bool

	logger zerolog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewFeed returns an empty Feed.
func NewFeed(logger zerolog.Logger) *Feed {
	return &Feed{
		clients: make(map[*client]bool),
		logger:  logger,
	}
}

// ServeHTTP upgrades the connection and registers it for broadcasts
// until the connection closes.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	f.register(c)
	go f.writePump(c)
	go f.readPump(c)
}

func (f *Feed) register(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c] = true
}

func (f *Feed) unregister(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
}

// readPump discards inbound messages (this feed is broadcast-only) but
// keeps reading so the connection's close/error is detected promptly.
func (f *Feed) readPump(c *client) {
	defer func() {
		f.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// BroadcastTrade fans a trade out to every connected client.
func (f *Feed) BroadcastTrade(trade engine.Trade) {
	f.broadcast(TradeMessage{Channel: "trades", Trade: trade})
}

// BroadcastDepth fans a depth snapshot out to every connected client.
func (f *Feed) BroadcastDepth(symbol string, bids, asks []engine.DepthLevel) {
	f.broadcast(DepthMessage{Channel: "depth", Symbol: symbol, Bids: bids, Asks: asks})
}

func (f *Feed) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to marshal feed message")
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			f.logger.Warn().Msg("client send buffer full, dropping message")
		}
	}
}
