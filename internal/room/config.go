package room

import "time"

// Config carries the per-room settings. Zero values are filled with the
// defaults below, so a Config{} is a playable room.
type Config struct {
	SmallBlind int
	BigBlind   int
	StartChips int

	// TurnTimeout is how long a human player may sit on their turn before
	// being checked or folded.
	TurnTimeout time.Duration
	// ThinkDelay is the artificial pause before an AI player acts.
	ThinkDelay time.Duration
	// Grace is how long a disconnected player's seat is held before the
	// player is marked offline and folded out of the hand.
	Grace time.Duration

	// AIIterations is the Monte Carlo sample count per AI decision.
	AIIterations int
}

const (
	defaultSmallBlind   = 5
	defaultBigBlind     = 10
	defaultStartChips   = 1000
	defaultTurnTimeout  = 45 * time.Second
	defaultThinkDelay   = 1200 * time.Millisecond
	defaultGrace        = 30 * time.Second
	defaultAIIterations = 500
)

func (c Config) withDefaults() Config {
	if c.SmallBlind <= 0 {
		c.SmallBlind = defaultSmallBlind
	}
	if c.BigBlind <= 0 {
		c.BigBlind = defaultBigBlind
	}
	if c.StartChips <= 0 {
		c.StartChips = defaultStartChips
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = defaultTurnTimeout
	}
	if c.ThinkDelay <= 0 {
		c.ThinkDelay = defaultThinkDelay
	}
	if c.Grace <= 0 {
		c.Grace = defaultGrace
	}
	if c.AIIterations <= 0 {
		c.AIIterations = defaultAIIterations
	}
	return c
}
