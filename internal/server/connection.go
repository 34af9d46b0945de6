package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltmachine/holdem/internal/game"
	"github.com/feltmachine/holdem/internal/playerid"
	"github.com/feltmachine/holdem/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one client socket: a read pump dispatching requests
// and a write pump draining the send buffer.
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	server *Server
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu       sync.RWMutex
	playerID string
	name     string
	roomID   string
}

func NewConnection(conn *websocket.Conn, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		server: server,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down once.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Done is closed when the connection ends.
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }

// Send queues a message. A full buffer closes the connection rather than
// blocking the caller.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("send on closed connection", "recovered", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection", "player", c.PlayerID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Connection) setIdentity(playerID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.name = name
}

func (c *Connection) setRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read failed", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("message received", "type", msg.Type, "player", c.PlayerID())

	switch msg.Type {
	case MessageTypeHello:
		var data HelloData
		if !c.decode(msg, &data) {
			return
		}
		c.handleHello(data)

	case MessageTypeRoomCreate:
		var data RoomCreateData
		if !c.decode(msg, &data) {
			return
		}
		c.handleRoomCreate(data)

	case MessageTypeRoomJoin:
		var data RoomJoinData
		if !c.decode(msg, &data) {
			return
		}
		c.handleRoomJoin(data)

	case MessageTypeRoomLeave:
		c.handleRoomLeave()

	case MessageTypeRoomKick:
		var data RoomKickData
		if !c.decode(msg, &data) {
			return
		}
		c.handleRoomKick(data)

	case MessageTypeRoomList:
		c.handleRoomList()

	case MessageTypeReady:
		c.handleReady()

	case MessageTypeRoomStart:
		c.handleRoomStart()

	case MessageTypeGameAction:
		var data GameActionData
		if !c.decode(msg, &data) {
			return
		}
		c.handleGameAction(data)

	case MessageTypeChat:
		var data ChatData
		if !c.decode(msg, &data) {
			return
		}
		c.handleChat(data)

	default:
		c.sendError("unknown_message_type", "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) decode(msg *Message, into any) bool {
	if err := json.Unmarshal(msg.Data, into); err != nil {
		c.sendError("invalid_message", "malformed "+string(msg.Type)+" payload")
		return false
	}
	return true
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("build error message", "error", err)
		return
	}
	_ = c.Send(msg)
}

// sendGameError maps engine rule violations onto the game:error channel
// so clients can distinguish them from protocol errors.
func (c *Connection) sendGameError(err error) {
	var ruleErr *game.RuleError
	if errors.As(err, &ruleErr) {
		msg, _ := NewMessage(MessageTypeGameError, ErrorData{
			Code:    ruleErr.Code.String(),
			Message: ruleErr.Error(),
		})
		_ = c.Send(msg)
		return
	}
	msg, _ := NewMessage(MessageTypeGameError, ErrorData{Code: "rejected", Message: err.Error()})
	_ = c.Send(msg)
}

func (c *Connection) handleHello(data HelloData) {
	if data.Name == "" {
		c.sendError("invalid_hello", "player name required")
		return
	}
	id := data.PlayerID
	if id != "" {
		// Reconnecting clients present the identity they were issued;
		// rejoining their room then reclaims the seat within the grace
		// window instead of seating a stranger.
		if err := playerid.Validate(id); err != nil {
			c.sendError("invalid_hello", "bad player id: "+err.Error())
			return
		}
	} else {
		id = playerid.New()
	}
	c.setIdentity(id, data.Name)
	c.logger.Info("player identified", "player", id, "name", data.Name)

	msg, _ := NewMessage(MessageTypeHelloOK, HelloOKData{PlayerID: id, Name: data.Name})
	_ = c.Send(msg)
}

// authed fetches the identity, complaining to the client when missing.
func (c *Connection) authed() (string, string, bool) {
	c.mu.RLock()
	id, name := c.playerID, c.name
	c.mu.RUnlock()
	if id == "" {
		c.sendError("not_identified", "send hello first")
		return "", "", false
	}
	return id, name, true
}

func (c *Connection) handleRoomCreate(data RoomCreateData) {
	playerID, name, ok := c.authed()
	if !ok {
		return
	}
	if c.RoomID() != "" {
		c.sendError("already_in_room", "leave the current room first")
		return
	}

	r, err := c.server.rooms.CreateRoom(playerID, name, room.Config{
		SmallBlind: data.SmallBlind,
		BigBlind:   data.BigBlind,
		StartChips: data.StartChips,
	})
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}
	c.setRoom(r.ID())
	c.server.watchRoom(r)

	msg, _ := NewMessage(MessageTypeRoomCreated, RoomCreatedData{RoomID: r.ID()})
	_ = c.Send(msg)
	c.server.broadcastRoomState(r)
}

func (c *Connection) handleRoomJoin(data RoomJoinData) {
	playerID, name, ok := c.authed()
	if !ok {
		return
	}
	if c.RoomID() != "" {
		c.sendError("already_in_room", "leave the current room first")
		return
	}

	r, found := c.server.rooms.GetRoom(data.RoomID)
	if !found {
		c.sendError("room_not_found", "no room "+data.RoomID)
		return
	}
	if err := r.Join(playerID, name); err != nil {
		c.sendError("join_failed", err.Error())
		return
	}
	c.setRoom(r.ID())
	c.server.broadcastRoomState(r)
}

func (c *Connection) handleRoomLeave() {
	playerID, _, ok := c.authed()
	if !ok {
		return
	}
	roomID := c.RoomID()
	if roomID == "" {
		c.sendError("not_in_room", "join a room first")
		return
	}
	if err := c.server.rooms.LeaveRoom(roomID, playerID); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}
	c.setRoom("")
	if r, found := c.server.rooms.GetRoom(roomID); found {
		c.server.broadcastRoomState(r)
	}
}

func (c *Connection) handleRoomKick(data RoomKickData) {
	playerID, _, ok := c.authed()
	if !ok {
		return
	}
	r, found := c.server.rooms.GetRoom(c.RoomID())
	if !found {
		c.sendError("not_in_room", "join a room first")
		return
	}
	if err := r.Kick(playerID, data.TargetID); err != nil {
		c.sendError("kick_failed", err.Error())
		return
	}
	c.server.dropFromRoom(data.TargetID, r.ID())
	c.server.broadcastRoomState(r)
}

func (c *Connection) handleRoomList() {
	msg, _ := NewMessage(MessageTypeRoomListing, RoomListingData{Rooms: c.server.rooms.ListRooms()})
	_ = c.Send(msg)
}

func (c *Connection) handleReady() {
	playerID, _, ok := c.authed()
	if !ok {
		return
	}
	r, found := c.server.rooms.GetRoom(c.RoomID())
	if !found {
		c.sendError("not_in_room", "join a room first")
		return
	}
	if err := r.Ready(playerID); err != nil {
		c.sendError("ready_failed", err.Error())
		return
	}
	c.server.broadcastRoomState(r)
}

func (c *Connection) handleRoomStart() {
	playerID, _, ok := c.authed()
	if !ok {
		return
	}
	r, found := c.server.rooms.GetRoom(c.RoomID())
	if !found {
		c.sendError("not_in_room", "join a room first")
		return
	}
	if err := r.Start(playerID); err != nil {
		c.sendError("start_failed", err.Error())
		return
	}
}

func (c *Connection) handleGameAction(data GameActionData) {
	playerID, _, ok := c.authed()
	if !ok {
		return
	}
	r, found := c.server.rooms.GetRoom(c.RoomID())
	if !found {
		c.sendError("not_in_room", "join a room first")
		return
	}
	actionType, err := game.ParseActionType(data.Action)
	if err != nil {
		c.sendError("invalid_action", err.Error())
		return
	}
	if err := r.Act(playerID, game.Action{Type: actionType, Amount: data.Amount}); err != nil {
		c.sendGameError(err)
	}
}

func (c *Connection) handleChat(data ChatData) {
	playerID, _, ok := c.authed()
	if !ok {
		return
	}
	r, found := c.server.rooms.GetRoom(c.RoomID())
	if !found {
		c.sendError("not_in_room", "join a room first")
		return
	}
	if err := r.Chat(playerID, data.Message); err != nil {
		c.sendError("chat_failed", err.Error())
	}
}
