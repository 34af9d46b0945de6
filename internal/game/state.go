package game

import (
	"fmt"
	"math/rand"

	"github.com/feltmachine/holdem/poker"
)

// State is the round state for a single hand. It is created at hand start,
// mutated only through Apply (and ForceFold for exceptional conditions),
// and replaced at the next hand start. Callers must serialize access; the
// room layer routes all mutation through one goroutine per room.
type State struct {
	Stage      Stage
	Community  []poker.Card
	Pot        int
	SidePots   []SidePot
	RoundBets  map[string]int
	TotalBets  map[string]int
	Dealer     int
	Turn       string
	LastRaise  int
	SmallBlind int
	BigBlind   int
	Players    []*Player
	Summary    *Summary

	deck    *poker.Deck
	acted   map[string]bool
	version uint64
}

// StartHand deals a new hand: advances the dealer button past prevDealer,
// posts blinds (capped at each poster's stack, forcing all-in when short),
// deals two hole cards to every participant from a freshly shuffled deck
// and sets the first player to act.
func StartHand(rng *rand.Rand, players []*Player, prevDealer int, cfg Config) (*State, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("start hand: need at least 2 players, got %d", len(players))
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind < cfg.SmallBlind {
		return nil, fmt.Errorf("start hand: invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}
	for _, p := range players {
		if p.Chips <= 0 {
			return nil, fmt.Errorf("start hand: player %s has no chips", p.ID)
		}
	}

	s := &State{
		Stage:      Preflop,
		RoundBets:  make(map[string]int, len(players)),
		TotalBets:  make(map[string]int, len(players)),
		Dealer:     (prevDealer + 1) % len(players),
		LastRaise:  cfg.BigBlind,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Players:    players,
		deck:       poker.NewDeck(rng),
		acted:      make(map[string]bool, len(players)),
	}

	for _, p := range players {
		p.Status = StatusActive
		p.Hole = nil
		s.RoundBets[p.ID] = 0
		s.TotalBets[p.ID] = 0
	}

	sb := s.nextSeat(s.Dealer)
	bb := s.nextSeat(sb)
	s.postBlind(s.Players[sb], cfg.SmallBlind)
	s.postBlind(s.Players[bb], cfg.BigBlind)
	// Blinds are forced bets: both posters count as having acted, so the
	// big blind gets no extra option once everyone has called.
	s.acted[s.Players[sb].ID] = true
	s.acted[s.Players[bb].ID] = true

	for _, p := range players {
		p.Hole = s.deck.Deal(2)
	}

	s.Turn = s.nextActorID(s.nextSeat(bb))
	if s.Turn == "" || s.roundComplete() {
		// Blinds can leave nobody able to act (short stacks all-in).
		s.advanceStage()
	}
	return s, nil
}

// Version is bumped on every accepted mutation. The room layer uses it to
// detect AI decisions computed against stale state.
func (s *State) Version() uint64 {
	return s.version
}

// Resolved reports whether the hand has been resolved.
func (s *State) Resolved() bool {
	return s.Summary != nil
}

// HighestBet returns the highest contribution of the current betting stage.
func (s *State) HighestBet() int {
	highest := 0
	for _, bet := range s.RoundBets {
		if bet > highest {
			highest = bet
		}
	}
	return highest
}

// AmountToCall returns what the player owes to match the current highest bet.
func (s *State) AmountToCall(playerID string) int {
	owed := s.HighestBet() - s.RoundBets[playerID]
	if owed < 0 {
		return 0
	}
	return owed
}

// PlayerByID returns the seated player with the given id, or nil.
func (s *State) PlayerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *State) nextSeat(from int) int {
	return (from + 1) % len(s.Players)
}

// nextActorID walks seats from the given index and returns the first player
// who can still act, or "" when nobody can.
func (s *State) nextActorID(from int) string {
	for i := 0; i < len(s.Players); i++ {
		p := s.Players[(from+i)%len(s.Players)]
		if p.CanAct() {
			return p.ID
		}
	}
	return ""
}

func (s *State) contesting() []*Player {
	players := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.InHand() {
			players = append(players, p)
		}
	}
	return players
}

func (s *State) countCanAct() int {
	n := 0
	for _, p := range s.Players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

func (s *State) postBlind(p *Player, amount int) {
	s.commit(p, min(amount, p.Chips))
}

// commit moves chips from the player's stack into the pot and contribution
// maps, marking the player all-in when the stack empties.
func (s *State) commit(p *Player, amount int) {
	p.Chips -= amount
	s.Pot += amount
	s.RoundBets[p.ID] += amount
	s.TotalBets[p.ID] += amount
	if p.Chips == 0 && p.Status == StatusActive {
		p.Status = StatusAllIn
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
