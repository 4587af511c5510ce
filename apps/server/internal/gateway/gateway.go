// Package gateway speaks the binary websocket protocol: every frame is one
// wire.ClientEnvelope in and one wire.ServerEnvelope out.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sweeper-lite/apps/server/internal/auth"
	"sweeper-lite/apps/server/internal/lobby"
	"sweeper-lite/apps/server/internal/table"
	"sweeper-lite/mines"
	"sweeper-lite/wire"
)

var log = logrus.WithField("component", "gateway")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// Error codes carried in wire.ErrorMsg.
const (
	CodeBadMessage  = "bad_message"
	CodeNoTable     = "no_table"
	CodeNotJoined   = "not_joined"
	CodeGameOver    = "game_over"
	CodeOutOfBounds = "out_of_bounds"
	CodeNotOwner    = "not_owner"
	CodeRejected    = "rejected"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection is one websocket client. It watches at most one table.
type Connection struct {
	ID     string
	Player auth.Player
	Conn   *websocket.Conn
	Send   chan []byte

	gateway *Gateway
	table   *table.Table
	seq     uint64
}

type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64

	lobby *lobby.Lobby
	auth  auth.Service
}

func New(lby *lobby.Lobby, authService auth.Service) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
		auth:        authService,
	}
}

// HandleWebSocket upgrades the request. The session token comes from the
// "token" query parameter or a bearer header; without a valid one the
// connection plays as a fresh guest.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	player, err := g.resolvePlayer(r)
	if err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("upgrade failed")
		return
	}

	c := &Connection{
		ID:      fmt.Sprintf("conn_%d", atomic.AddUint64(&g.nextConnID, 1)),
		Player:  player,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		gateway: g,
	}
	g.mu.Lock()
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.WithFields(logrus.Fields{"conn": c.ID, "player": player.ID, "total": total}).Info("client connected")

	go c.readPump()
	go c.writePump()
}

func (g *Gateway) resolvePlayer(r *http.Request) (auth.Player, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = BearerToken(r)
	}
	if p, ok := g.auth.Resolve(token); ok {
		return p, nil
	}
	s, err := g.auth.Guest()
	if err != nil {
		return auth.Player{}, err
	}
	return s.Player, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func (g *Gateway) Connections() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()
	c.leaveTable()
	log.WithFields(logrus.Fields{"conn": c.ID, "total": total}).Info("client disconnected")
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithField("conn", c.ID).WithError(err).Warn("read failed")
			}
			return
		}
		if messageType == websocket.BinaryMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue drops the frame when the client is too slow to keep up.
func (c *Connection) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		log.WithField("conn", c.ID).Debug("send buffer full, frame dropped")
	}
}

func (c *Connection) handleMessage(data []byte) {
	env, err := wire.UnmarshalClient(data)
	if err != nil {
		c.sendError(CodeBadMessage, "invalid message format")
		return
	}
	log.WithFields(logrus.Fields{
		"conn":    c.ID,
		"table":   env.TableID,
		"payload": fmt.Sprintf("%T", env.Payload),
	}).Debug("received")

	switch p := env.Payload.(type) {
	case *wire.Join:
		c.handleJoin(env.TableID)
	case *wire.Reveal:
		c.submit(table.Event{Type: table.EventReveal, At: mines.Coord{Row: p.Row, Col: p.Col}})
	case *wire.Flag:
		c.submit(table.Event{Type: table.EventFlag, At: mines.Coord{Row: p.Row, Col: p.Col}})
	case *wire.Reset:
		c.submit(table.Event{Type: table.EventReset})
	case *wire.AIStep:
		c.submit(table.Event{Type: table.EventAIStep})
	case *wire.AutoPlay:
		c.submit(table.Event{Type: table.EventAutoPlay, MaxMoves: p.MaxMoves})
	default:
		c.sendError(CodeBadMessage, "missing payload")
	}
}

// handleJoin subscribes to tableID, or to a new default table when tableID
// is empty.
func (c *Connection) handleJoin(tableID string) {
	var t *table.Table
	if tableID == "" {
		created, err := c.gateway.lobby.Create(c.Player.ID, lobby.Request{})
		if err != nil {
			c.sendError(CodeRejected, err.Error())
			return
		}
		t = created
	} else if t = c.gateway.lobby.Get(tableID); t == nil {
		c.sendError(CodeNoTable, "table not found")
		return
	}

	if c.table != nil && c.table != t {
		c.leaveTable()
	}
	c.table = t
	if _, err := t.SubmitEvent(table.Event{Type: table.EventJoin, PlayerID: c.Player.ID, ConnID: c.ID, Send: c.enqueue}); err != nil {
		c.table = nil
		c.sendError(errorCode(err), err.Error())
		return
	}
	log.WithFields(logrus.Fields{"conn": c.ID, "player": c.Player.ID, "table": t.ID}).Info("joined")
}

func (c *Connection) submit(e table.Event) {
	if c.table == nil {
		c.sendError(CodeNotJoined, "not in a table")
		return
	}
	e.PlayerID = c.Player.ID
	if _, err := c.table.SubmitEvent(e); err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

func (c *Connection) leaveTable() {
	if c.table == nil {
		return
	}
	_, _ = c.table.SubmitEvent(table.Event{Type: table.EventLeave, ConnID: c.ID})
	c.table = nil
}

func (c *Connection) sendError(code, msg string) {
	tableID := ""
	if c.table != nil {
		tableID = c.table.ID
	}
	c.seq++
	env := &wire.ServerEnvelope{
		TableID:    tableID,
		ServerSeq:  c.seq,
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    &wire.ErrorMsg{Code: code, Message: msg},
	}
	c.enqueue(wire.MarshalServer(env))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, table.ErrGameOver):
		return CodeGameOver
	case errors.Is(err, table.ErrOutOfBounds):
		return CodeOutOfBounds
	case errors.Is(err, table.ErrTableClosed):
		return CodeNoTable
	case errors.Is(err, table.ErrNotOwner):
		return CodeNotOwner
	default:
		return CodeRejected
	}
}
