package room

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/feltmachine/holdem/internal/randutil"
)

// Summary is lightweight room metadata for lobby listings.
type Summary struct {
	ID         string `json:"id"`
	HostID     string `json:"host_id"`
	Status     Status `json:"status"`
	Players    int    `json:"players"`
	Spectators int    `json:"spectators"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
}

// Manager owns the room registry: numeric room codes, creation, lookup
// and teardown when the last player leaves.
type Manager struct {
	logger   *log.Logger
	clock    quartz.Clock
	defaults Config

	mu      sync.RWMutex
	rooms   map[string]*Room
	rng     *rand.Rand
	roomSeq int64
	seed    int64
}

// NewManager constructs a manager. The seed drives room code generation
// and each room's deck/AI randomness, so a fixed seed reproduces a whole
// server run.
func NewManager(defaults Config, seed int64, clock quartz.Clock, logger *log.Logger) *Manager {
	return &Manager{
		logger:   logger.WithPrefix("rooms"),
		clock:    clock,
		defaults: defaults.withDefaults(),
		rooms:    make(map[string]*Room),
		rng:      randutil.New(seed),
		seed:     seed,
	}
}

// CreateRoom creates a room with the host already seated and returns it.
func (m *Manager) CreateRoom(hostID, hostName string, cfg Config) (*Room, error) {
	if cfg.SmallBlind == 0 {
		cfg.SmallBlind = m.defaults.SmallBlind
	}
	if cfg.BigBlind == 0 {
		cfg.BigBlind = m.defaults.BigBlind
	}
	if cfg.StartChips == 0 {
		cfg.StartChips = m.defaults.StartChips
	}
	if cfg.TurnTimeout == 0 {
		cfg.TurnTimeout = m.defaults.TurnTimeout
	}
	if cfg.ThinkDelay == 0 {
		cfg.ThinkDelay = m.defaults.ThinkDelay
	}
	if cfg.Grace == 0 {
		cfg.Grace = m.defaults.Grace
	}
	if cfg.AIIterations == 0 {
		cfg.AIIterations = m.defaults.AIIterations
	}

	m.mu.Lock()
	id := m.newRoomID()
	m.roomSeq++
	r := New(id, cfg, randutil.Derive(m.seed, m.roomSeq), m.clock, m.logger)
	m.rooms[id] = r
	m.mu.Unlock()

	if err := r.Join(hostID, hostName); err != nil {
		m.removeRoom(id)
		return nil, fmt.Errorf("create room: %w", err)
	}
	m.logger.Info("room created", "room", id, "host", hostID)
	return r, nil
}

// newRoomID draws six-digit codes until one is free. Caller holds mu.
func (m *Manager) newRoomID() string {
	for {
		id := fmt.Sprintf("%06d", m.rng.Intn(1000000))
		if _, taken := m.rooms[id]; !taken {
			return id
		}
	}
}

// GetRoom looks up a room by code.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// LeaveRoom removes the player from the room, tearing the room down when
// nobody is left seated.
func (m *Manager) LeaveRoom(roomID, playerID string) error {
	r, ok := m.GetRoom(roomID)
	if !ok {
		return fmt.Errorf("leave: no room %s", roomID)
	}
	if err := r.Leave(playerID); err != nil {
		return err
	}
	if r.PlayerCount() == 0 {
		m.removeRoom(roomID)
	}
	return nil
}

func (m *Manager) removeRoom(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		r.Close()
		m.logger.Info("room removed", "room", id)
	}
}

// ListRooms snapshots the lobby.
func (m *Manager) ListRooms() []Summary {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		snap := r.Snapshot("")
		summaries = append(summaries, Summary{
			ID:         snap.RoomID,
			HostID:     snap.HostID,
			Status:     snap.Status,
			Players:    len(snap.Players),
			Spectators: len(snap.Spectators),
			SmallBlind: snap.SmallBlind,
			BigBlind:   snap.BigBlind,
		})
	}
	return summaries
}

// CloseAll tears down every room, for server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Close()
		delete(m.rooms, id)
	}
}
