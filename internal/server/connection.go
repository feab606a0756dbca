package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/network"
	"github.com/gravitas-games/haxagon/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	// WebSocket connection
	ws *websocket.Conn

	// Server reference
	server *Server

	// Player information (set after authentication)
	player *models.Player

	// Buffered channel for outbound messages
	send chan []byte

	// Closed once the connection is shutting down
	done      chan struct{}
	closeOnce sync.Once

	// Board being played; only touched by the read pump
	session *Session

	log *logrus.Entry
}

// NewConnection creates a new connection
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		player: player,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		log:    logrus.WithField("player", player.ID),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		c.player.LastSeen = time.Now()
		return nil
	})

	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
			TickRate: c.server.config.Server.TickRate,
			Modes:    board.Modes,
		},
	})

	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.WithError(err).Debug("Failed to parse client message")
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.server.ctx.Done():
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	switch msg.Type {
	case network.MsgTypeStart:
		c.handleStart(msg.Payload)

	case network.MsgTypePress, network.MsgTypeDrag:
		var cell network.CellPayload
		if err := json.Unmarshal(msg.Payload, &cell); err != nil {
			c.SendError("invalid_cell", "Invalid cell")
			return
		}
		kind := inputPress
		if msg.Type == network.MsgTypeDrag {
			kind = inputDrag
		}
		c.submit(input{kind: kind, cell: cell.Axial()})

	case network.MsgTypeRelease:
		c.submit(input{kind: inputRelease})

	case network.MsgTypePause:
		c.submit(input{kind: inputPause})

	case network.MsgTypeResume:
		c.submit(input{kind: inputResume})

	case network.MsgTypeLeave:
		c.handleLeave()

	case network.MsgTypePing:
		c.handlePing()

	default:
		c.log.WithField("type", msg.Type).Debug("Unknown message type")
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

// handleStart replaces any running board with a new one
func (c *Connection) handleStart(payload json.RawMessage) {
	var start network.StartPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &start); err != nil {
			c.SendError("invalid_start", "Invalid start message")
			return
		}
	}

	settings, err := c.server.resolveSettings(start)
	if err != nil {
		c.SendError("invalid_settings", err.Error())
		return
	}

	c.handleLeave()
	session, err := c.server.startSession(c, settings)
	if err != nil {
		if errors.Is(err, ErrServerFull) {
			c.SendError("server_full", "Too many games in progress")
			return
		}
		c.log.WithError(err).Error("Failed to start session")
		c.SendError("start_failed", "Failed to start game")
		return
	}
	c.session = session
	c.player.SessionID = session.ID
}

// handleLeave stops the current board, if any
func (c *Connection) handleLeave() {
	if c.session == nil {
		return
	}
	c.session.Stop()
	c.server.endSession(c.session.ID)
	c.session = nil
	c.player.SessionID = ""
}

func (c *Connection) submit(in input) {
	if c.session == nil || !c.session.Submit(in) {
		c.SendError("no_game", "No game in progress")
	}
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal message")
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close stops the player's board and the write pump. It is safe to call
// more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		if c.session != nil {
			c.session.Stop()
		}
		c.player.Connected = false
		close(c.done)
	})
}
