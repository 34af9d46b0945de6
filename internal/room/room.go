// Package room hosts the table lifecycle around the betting engine: seats
// and spectators, the ready/start flow, per-room action serialization, AI
// turn scheduling and disconnect handling.
//
// All room state is owned by a single goroutine consuming a command
// mailbox. The exported methods enqueue closures onto that mailbox and
// wait for the reply, so callers never observe a half-applied mutation.
package room

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/feltmachine/holdem/internal/ai"
	"github.com/feltmachine/holdem/internal/game"
	"github.com/feltmachine/holdem/internal/randutil"
)

// Status is the room lifecycle phase.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

const maxSeats = 6

var (
	ErrRoomClosed       = errors.New("room closed")
	ErrNotHost          = errors.New("only the host may do that")
	ErrUnknownPlayer    = errors.New("player not in room")
	ErrNotEnoughPlayers = errors.New("need at least 2 players")
	ErrNotAllReady      = errors.New("not all players are ready")
	ErrHandInProgress   = errors.New("hand already in progress")
)

// Room is a single table. Construct with New and always Close when done;
// the run loop and its timers live until then.
type Room struct {
	id     string
	cfg    Config
	logger *log.Logger
	clock  quartz.Clock
	rng    *rand.Rand
	seed   int64

	commands chan func()
	closed   chan struct{}
	once     sync.Once
	events   chan Event

	// Everything below is owned by the run loop.
	hostID     string
	status     Status
	players    []*game.Player
	spectators []*game.Player
	ready      map[string]bool
	aiRngs     map[string]*rand.Rand
	aiStream   int64
	hand       *game.State
	prevDealer int

	turnTimer   *quartz.Timer
	aiTimer     *quartz.Timer
	graceTimers map[string]*quartz.Timer
}

// New creates a room and starts its run loop. The seed fixes the deck
// shuffles and all AI randomness for the room's lifetime.
func New(id string, cfg Config, seed int64, clock quartz.Clock, logger *log.Logger) *Room {
	r := &Room{
		id:          id,
		cfg:         cfg.withDefaults(),
		logger:      logger.WithPrefix("room").With("room", id),
		clock:       clock,
		rng:         randutil.New(seed),
		seed:        seed,
		commands:    make(chan func()),
		closed:      make(chan struct{}),
		events:      make(chan Event, 64),
		status:      StatusWaiting,
		ready:       make(map[string]bool),
		aiRngs:      make(map[string]*rand.Rand),
		graceTimers: make(map[string]*quartz.Timer),
		prevDealer:  -1,
	}
	go r.run()
	return r
}

// ID returns the room code.
func (r *Room) ID() string { return r.id }

// Events is the notification stream for the transport layer. Events are
// dropped rather than blocking the room loop if the consumer lags.
func (r *Room) Events() <-chan Event { return r.events }

// Done is closed when the room shuts down.
func (r *Room) Done() <-chan struct{} { return r.closed }

// Close stops the run loop and all timers. Pending callers get
// ErrRoomClosed.
func (r *Room) Close() {
	r.once.Do(func() { close(r.closed) })
}

func (r *Room) run() {
	for {
		select {
		case fn := <-r.commands:
			fn()
		case <-r.closed:
			r.stopTimers()
			for _, t := range r.graceTimers {
				t.Stop()
			}
			return
		}
	}
}

// call runs fn on the room loop and returns its error.
func (r *Room) call(fn func() error) error {
	done := make(chan error, 1)
	select {
	case r.commands <- func() { done <- fn() }:
	case <-r.closed:
		return ErrRoomClosed
	}
	select {
	case err := <-done:
		return err
	case <-r.closed:
		return ErrRoomClosed
	}
}

func (r *Room) emit(ev Event) {
	ev.RoomID = r.id
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("event dropped, consumer lagging", "kind", ev.Kind)
	}
}

// Join seats the player, or adds them as a spectator when the table is
// full. Rejoining with the id of an offline player reclaims that seat.
func (r *Room) Join(playerID, name string) error {
	return r.call(func() error {
		if p := r.playerByID(playerID); p != nil {
			_, pending := r.graceTimers[playerID]
			if pending || p.Status == game.StatusOffline {
				r.reconnect(p)
				return nil
			}
			return fmt.Errorf("join: player %s already seated", playerID)
		}

		p := &game.Player{
			ID:     playerID,
			Name:   name,
			Chips:  r.cfg.StartChips,
			Status: game.StatusWaiting,
		}
		if len(r.players) < maxSeats {
			p.Seat = len(r.players)
			r.players = append(r.players, p)
			if r.hostID == "" {
				r.hostID = p.ID
			}
		} else {
			p.Status = game.StatusSpectator
			r.spectators = append(r.spectators, p)
		}
		r.emit(Event{Kind: EventRoomUpdated})
		return nil
	})
}

// Leave removes the player. Leaving mid-hand folds them first; if the
// host leaves, the oldest remaining seat inherits the room.
func (r *Room) Leave(playerID string) error {
	return r.call(func() error { return r.removePlayer(playerID) })
}

// Kick lets the host remove another player.
func (r *Room) Kick(hostID, targetID string) error {
	return r.call(func() error {
		if hostID != r.hostID {
			return ErrNotHost
		}
		if hostID == targetID {
			return fmt.Errorf("kick: host cannot kick themselves")
		}
		return r.removePlayer(targetID)
	})
}

func (r *Room) removePlayer(playerID string) error {
	if r.hand != nil && !r.hand.Resolved() {
		r.hand.ForceFold(playerID)
	}

	found := false
	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		for i, p := range r.spectators {
			if p.ID == playerID {
				r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
				found = true
				break
			}
		}
	}
	if !found {
		return ErrUnknownPlayer
	}

	delete(r.ready, playerID)
	delete(r.aiRngs, playerID)
	if t, ok := r.graceTimers[playerID]; ok {
		t.Stop()
		delete(r.graceTimers, playerID)
	}
	for i, p := range r.players {
		p.Seat = i
	}
	if r.hostID == playerID && len(r.players) > 0 {
		r.hostID = r.players[0].ID
	}

	if r.hand != nil && !r.hand.Resolved() {
		r.afterMutation()
	}
	r.emit(Event{Kind: EventRoomUpdated})
	return nil
}

// Ready marks the player ready for the next hand.
func (r *Room) Ready(playerID string) error {
	return r.call(func() error {
		p := r.playerByID(playerID)
		if p == nil {
			return ErrUnknownPlayer
		}
		r.ready[playerID] = true
		r.emit(Event{Kind: EventRoomUpdated})
		return nil
	})
}

// Start begins a new hand. Only the host may start; every seated human
// must be ready. A lone player gets two AI opponents seated before the
// deal.
func (r *Room) Start(hostID string) error {
	return r.call(func() error {
		if hostID != r.hostID {
			return ErrNotHost
		}
		if r.status == StatusPlaying {
			return ErrHandInProgress
		}

		if len(r.players) == 1 {
			r.seatBots(ai.Balanced, ai.Aggressive)
		}

		participants := make([]*game.Player, 0, len(r.players))
		for _, p := range r.players {
			if p.Chips > 0 && p.Status != game.StatusOffline {
				participants = append(participants, p)
			}
		}
		if len(participants) < 2 {
			return ErrNotEnoughPlayers
		}
		for _, p := range participants {
			if p.AI == nil && !r.ready[p.ID] {
				return ErrNotAllReady
			}
		}
		for i, p := range participants {
			p.Seat = i
		}

		hand, err := game.StartHand(r.rng, participants, r.prevDealer, game.Config{
			SmallBlind: r.cfg.SmallBlind,
			BigBlind:   r.cfg.BigBlind,
		})
		if err != nil {
			return fmt.Errorf("start hand: %w", err)
		}
		r.hand = hand
		r.prevDealer = hand.Dealer
		r.status = StatusPlaying
		r.logger.Info("hand started", "players", len(participants), "dealer", hand.Dealer)
		r.emit(Event{Kind: EventHandStarted})
		r.afterMutation()
		return nil
	})
}

func (r *Room) seatBots(styles ...ai.Style) {
	for _, style := range styles {
		if len(r.players) >= maxSeats {
			return
		}
		r.aiStream++
		seed := randutil.Derive(r.seed, r.aiStream)
		id := fmt.Sprintf("bot-%s-%d", r.id, r.aiStream)
		p := &game.Player{
			ID:     id,
			Name:   fmt.Sprintf("Bot %d (%s)", r.aiStream, style),
			Seat:   len(r.players),
			Chips:  r.cfg.StartChips,
			Status: game.StatusWaiting,
			AI:     &game.AIProfile{Style: style.String(), Seed: seed},
		}
		r.players = append(r.players, p)
		r.aiRngs[id] = randutil.New(seed)
	}
}

// Act applies a player action to the current hand. Rule violations come
// back as *game.RuleError without changing any state.
func (r *Room) Act(playerID string, action game.Action) error {
	return r.call(func() error { return r.applyAction(playerID, action) })
}

func (r *Room) applyAction(playerID string, action game.Action) error {
	if r.status != StatusPlaying || r.hand == nil {
		return game.ErrHandNotStarted
	}
	if err := r.hand.Apply(playerID, action); err != nil {
		return err
	}
	r.emit(Event{Kind: EventActionApplied, PlayerID: playerID, Action: action})
	r.afterMutation()
	return nil
}

// afterMutation is the shared follow-up once the hand state changed:
// settle a resolved hand or arm the next turn's timers.
func (r *Room) afterMutation() {
	r.stopTimers()
	if r.hand == nil {
		return
	}
	if r.hand.Resolved() {
		r.status = StatusEnded
		r.prevDealer = r.hand.Dealer
		r.logger.Info("hand ended", "pots", len(r.hand.SidePots))
		r.emit(Event{Kind: EventHandEnded})
		r.emit(Event{Kind: EventRoomUpdated})
		return
	}
	r.armTurn()
	r.emit(Event{Kind: EventRoomUpdated})
}

func (r *Room) stopTimers() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	if r.aiTimer != nil {
		r.aiTimer.Stop()
		r.aiTimer = nil
	}
}

// armTurn starts the thinking timer for an AI actor or the timeout timer
// for a human one. Both callbacks carry the state version they were armed
// against so a stale timer never acts on a newer state.
func (r *Room) armTurn() {
	turn := r.hand.Turn
	if turn == "" {
		return
	}
	p := r.hand.PlayerByID(turn)
	if p == nil {
		return
	}
	version := r.hand.Version()
	if p.AI != nil {
		r.aiTimer = r.clock.AfterFunc(r.cfg.ThinkDelay, func() {
			r.runAI(turn, version)
		})
		return
	}
	r.turnTimer = r.clock.AfterFunc(r.cfg.TurnTimeout, func() {
		r.timeoutTurn(turn, version)
	})
}

// timeoutTurn fires when a human player sat on their turn too long: check
// when nothing is owed, fold otherwise.
func (r *Room) timeoutTurn(playerID string, version uint64) {
	_ = r.call(func() error {
		if r.hand == nil || r.hand.Resolved() || r.hand.Turn != playerID || r.hand.Version() != version {
			return nil
		}
		r.logger.Info("turn timed out", "player", playerID)
		if r.hand.AmountToCall(playerID) == 0 {
			return r.applyAction(playerID, game.Action{Type: game.Check})
		}
		r.hand.ForceFold(playerID)
		r.emit(Event{Kind: EventActionApplied, PlayerID: playerID, Action: game.Action{Type: game.Fold}})
		r.afterMutation()
		return nil
	})
}

// Chat relays a message to everyone in the room.
func (r *Room) Chat(playerID, message string) error {
	return r.call(func() error {
		if r.playerByID(playerID) == nil {
			return ErrUnknownPlayer
		}
		r.emit(Event{Kind: EventChat, PlayerID: playerID, Message: message})
		return nil
	})
}

// HandleDisconnect marks the player offline-pending and starts the grace
// timer. If the grace expires before a reconnect, the player is marked
// offline and folded out of any live hand.
func (r *Room) HandleDisconnect(playerID string) {
	_ = r.call(func() error {
		p := r.playerByID(playerID)
		if p == nil {
			return nil
		}
		r.emit(Event{Kind: EventPlayerDisconnected, PlayerID: playerID})
		delete(r.ready, playerID)
		// Players in a live hand keep their status so they can reconnect
		// and act; everyone else goes offline right away.
		if r.hand == nil || r.hand.Resolved() || !p.InHand() {
			p.Status = game.StatusOffline
		}
		if t, ok := r.graceTimers[playerID]; ok {
			t.Stop()
		}
		r.graceTimers[playerID] = r.clock.AfterFunc(r.cfg.Grace, func() {
			r.expireGrace(playerID)
		})
		return nil
	})
}

func (r *Room) expireGrace(playerID string) {
	_ = r.call(func() error {
		delete(r.graceTimers, playerID)
		p := r.playerByID(playerID)
		if p == nil {
			return nil
		}
		r.logger.Info("grace expired, player offline", "player", playerID)
		if r.hand != nil && !r.hand.Resolved() && p.InHand() {
			r.hand.ForceFold(playerID)
			r.afterMutation()
		}
		p.Status = game.StatusOffline
		delete(r.ready, playerID)
		r.emit(Event{Kind: EventRoomUpdated})
		return nil
	})
}

func (r *Room) reconnect(p *game.Player) {
	if t, ok := r.graceTimers[p.ID]; ok {
		t.Stop()
		delete(r.graceTimers, p.ID)
	}
	if p.Status == game.StatusOffline {
		p.Status = game.StatusWaiting
	}
	r.emit(Event{Kind: EventPlayerReconnected, PlayerID: p.ID})
	r.emit(Event{Kind: EventRoomUpdated})
}

// PlayerCount returns the number of seated players.
func (r *Room) PlayerCount() int {
	n := 0
	_ = r.call(func() error {
		n = len(r.players)
		return nil
	})
	return n
}

// HostID returns the current host.
func (r *Room) HostID() string {
	id := ""
	_ = r.call(func() error {
		id = r.hostID
		return nil
	})
	return id
}

func (r *Room) playerByID(id string) *game.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	for _, p := range r.spectators {
		if p.ID == id {
			return p
		}
	}
	return nil
}
