package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/feltmachine/holdem/internal/room"
)

// Server accepts WebSocket clients and routes their requests into the
// room layer. Room events flow back out through per-room watcher
// goroutines that broadcast redacted snapshots.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger
	rooms    *room.Manager

	mu          sync.RWMutex
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(addr string, rooms *room.Manager, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// Origin checking is deferred to the deployment's proxy.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		rooms:       rooms,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the HTTP listener. Blocks until the listener fails.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop closes every connection and tears down all rooms.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.rooms.CloseAll()
}

func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, known := s.connections[conn]
			if known {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()
			if !known {
				continue
			}

			// The seat survives a dropped socket for the grace window.
			if playerID, roomID := conn.PlayerID(), conn.RoomID(); playerID != "" && roomID != "" {
				if r, ok := s.rooms.GetRoom(roomID); ok {
					r.HandleDisconnect(playerID)
				}
			}
			_ = conn.Close()
			s.logger.Info("client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	client := NewConnection(conn, s, s.logger)
	s.register <- client
	client.Start()

	go func() {
		<-client.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

// watchRoom fans the room's event stream out to its connections. One
// watcher per room, started when the room is created.
func (s *Server) watchRoom(r *room.Room) {
	go func() {
		for {
			select {
			case ev := <-r.Events():
				s.handleRoomEvent(r, ev)
			case <-r.Done():
				return
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *Server) handleRoomEvent(r *room.Room, ev room.Event) {
	switch ev.Kind {
	case room.EventActionApplied:
		msg, _ := NewMessage(MessageTypeActionApplied, ActionAppliedData{
			PlayerID: ev.PlayerID,
			Action:   ev.Action.Type.String(),
			Amount:   ev.Action.Amount,
		})
		s.broadcast(r.ID(), msg)

	case room.EventChat:
		msg, _ := NewMessage(MessageTypeChatRelay, ChatRelayData{
			PlayerID: ev.PlayerID,
			Message:  ev.Message,
		})
		s.broadcast(r.ID(), msg)

	case room.EventPlayerDisconnected:
		msg, _ := NewMessage(MessageTypePlayerGone, PlayerEventData{PlayerID: ev.PlayerID})
		s.broadcast(r.ID(), msg)

	case room.EventPlayerReconnected:
		msg, _ := NewMessage(MessageTypePlayerBack, PlayerEventData{PlayerID: ev.PlayerID})
		s.broadcast(r.ID(), msg)

	default:
		// Updated, hand started, hand ended: push fresh state.
		s.broadcastRoomState(r)
	}
}

// broadcastRoomState sends each member their own redacted snapshot.
func (s *Server) broadcastRoomState(r *room.Room) {
	for _, conn := range s.roomConnections(r.ID()) {
		snap := r.Snapshot(conn.PlayerID())
		msg, err := NewMessage(MessageTypeRoomState, snap)
		if err != nil {
			s.logger.Error("marshal snapshot", "error", err)
			continue
		}
		if err := conn.Send(msg); err != nil {
			s.logger.Debug("snapshot send failed", "player", conn.PlayerID(), "error", err)
		}
	}
}

func (s *Server) broadcast(roomID string, msg *Message) {
	for _, conn := range s.roomConnections(roomID) {
		if err := conn.Send(msg); err != nil {
			s.logger.Debug("broadcast send failed", "player", conn.PlayerID(), "error", err)
		}
	}
}

func (s *Server) roomConnections(roomID string) []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		if conn.RoomID() == roomID {
			conns = append(conns, conn)
		}
	}
	return conns
}

// dropFromRoom clears the room association of a kicked player's
// connection so they stop receiving that room's traffic.
func (s *Server) dropFromRoom(playerID, roomID string) {
	for _, conn := range s.roomConnections(roomID) {
		if conn.PlayerID() == playerID {
			conn.setRoom("")
		}
	}
}
