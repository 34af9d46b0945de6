package game

import "github.com/feltmachine/holdem/poker"

// Stage represents the betting stage of a hand.
type Stage int

const (
	Preflop Stage = iota
	Flop
	Turn
	River
	Showdown
)

func (s Stage) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// Status represents a player's seat status.
type Status int

const (
	StatusWaiting Status = iota
	StatusReady
	StatusActive
	StatusFolded
	StatusAllIn
	StatusOffline
	StatusSpectator
)

func (s Status) String() string {
	return [...]string{"waiting", "ready", "active", "folded", "allin", "offline", "spectator"}[s]
}

// Config holds the blind structure for a hand.
type Config struct {
	SmallBlind int
	BigBlind   int
}

// AIProfile tags a computer-controlled player with a play style and an
// optional seed for reproducible decisions.
type AIProfile struct {
	Style string
	Seed  int64
}

// Player represents a seated player. The engine mutates chips, status and
// hole cards; identity and AI profile belong to the room layer.
type Player struct {
	ID     string
	Name   string
	Seat   int
	Chips  int
	Status Status
	Hole   []poker.Card
	AI     *AIProfile
}

// InHand reports whether the player is still contesting the current hand.
func (p *Player) InHand() bool {
	return p.Status == StatusActive || p.Status == StatusAllIn
}

// CanAct reports whether the player can still take betting actions.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive
}
