package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"memory-scramble-server/game"
	"memory-scramble-server/session"
	"memory-scramble-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and a board.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	PlayerID string
	Board    *game.Board
	BoardID  string

	// ctx lives as long as the connection; cancelling it abandons queued
	// flips and the watch stream.
	ctx    context.Context
	cancel context.CancelFunc

	watchStop context.CancelFunc
}

// ReadPump pumps messages from the websocket connection to the board.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.Log.Warn("websocket read failed", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket
// connection. It runs in its own goroutine per connection.
func (c *Client) WritePump() {
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
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	if c.Board == nil && envelope.Type != "join" {
		c.sendError("Join a board first.")
		return
	}

	switch envelope.Type {
	case "join":
		c.handleJoin(envelope.Raw)
	case "flip":
		c.handleFlip(envelope.Raw)
	case "look":
		c.handleLook()
	case "watch":
		c.handleWatch()
	case "unwatch":
		c.handleUnwatch()
	case "map":
		c.handleMap(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleJoin(raw json.RawMessage) {
	if c.Board != nil {
		c.sendError("Already joined.")
		return
	}
	var msg JoinMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid join message.")
		return
	}

	name := strings.TrimSpace(msg.Name)
	if len(name) > c.Hub.Config.MaxNameLength {
		c.sendError("Name must be at most " + strconv.Itoa(c.Hub.Config.MaxNameLength) + " characters.")
		return
	}
	if name == "" {
		name = uuid.NewString()
	}

	board, ok := c.Hub.Boards.Get(msg.Board)
	if !ok {
		c.sendError("Unknown board: " + msg.Board)
		return
	}
	boardID := msg.Board
	if boardID == "" {
		boardID = session.DefaultBoardID
	}

	c.PlayerID = name
	c.Board = board
	c.BoardID = boardID

	rows, cols := board.Size()
	c.send(JoinedMsg{
		Type:     "joined",
		PlayerID: c.PlayerID,
		BoardID:  boardID,
		Rows:     rows,
		Cols:     cols,
		Snapshot: board.Look(c.PlayerID),
	})
}

// handleFlip runs the flip in its own goroutine: a flip may wait for a card
// held by another player, and the read pump must keep serving messages
// meanwhile.
func (c *Client) handleFlip(raw json.RawMessage) {
	var msg FlipMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid flip message.")
		return
	}

	board, player := c.Board, c.PlayerID
	go func() {
		err := board.Flip(c.ctx, player, msg.Row, msg.Col)
		switch {
		case err == nil:
			c.send(FlipResultMsg{Type: "flip_result", Ok: true, Snapshot: board.Look(player)})
		case errors.Is(err, context.Canceled), errors.Is(err, game.ErrClosed):
			// Connection gone or server stopping; nobody to tell.
		default:
			c.send(FlipResultMsg{Type: "flip_result", Ok: false, Error: err.Error(), Snapshot: board.Look(player)})
		}
	}()
}

func (c *Client) handleLook() {
	c.send(BoardMsg{Type: "board", Snapshot: c.Board.Look(c.PlayerID)})
}

// handleWatch starts a push stream: every board change produces one board
// message until the client unwatches or disconnects.
func (c *Client) handleWatch() {
	if c.watchStop != nil {
		c.sendError("Already watching.")
		return
	}
	ctx, stop := context.WithCancel(c.ctx)
	c.watchStop = stop

	board, player := c.Board, c.PlayerID
	go func() {
		for {
			snapshot, err := board.Watch(ctx, player)
			if err != nil {
				return
			}
			c.send(BoardMsg{Type: "board", Snapshot: snapshot})
		}
	}()
}

func (c *Client) handleUnwatch() {
	if c.watchStop == nil {
		c.sendError("Not watching.")
		return
	}
	c.watchStop()
	c.watchStop = nil
}

func (c *Client) handleMap(raw json.RawMessage) {
	var msg MapMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Replacements == nil {
		c.sendError("Invalid map message.")
		return
	}

	board := c.Board
	transform := func(ctx context.Context, value string) (string, error) {
		if out, ok := msg.Replacements[value]; ok {
			return out, nil
		}
		return value, nil
	}
	go func() {
		err := board.Map(c.ctx, transform)
		switch {
		case err == nil:
			c.send(MapResultMsg{Type: "map_result", Ok: true})
		case errors.Is(err, context.Canceled), errors.Is(err, game.ErrClosed):
		default:
			c.send(MapResultMsg{Type: "map_result", Ok: false, Error: err.Error()})
		}
	}()
}

func (c *Client) send(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.Hub.Log.Error("marshal outbound message failed", "tag", "ws", "err", err)
		return
	}
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) sendError(message string) {
	c.send(ErrorMsg{Type: "error", Message: message})
}
