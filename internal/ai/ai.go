// Package ai implements the built-in opponent policy. A decision is a pure
// function of the table context, the play style and an injected RNG:
// equity drives a threshold policy per style, adjusted for position and
// stack depth, with a small random deviation pass so play is not fully
// predictable.
package ai

import (
	"fmt"
	"math/rand"

	"github.com/feltmachine/holdem/internal/equity"
	"github.com/feltmachine/holdem/internal/game"
	"github.com/feltmachine/holdem/poker"
)

// Style selects one of the built-in play profiles.
type Style uint8

const (
	Balanced Style = iota
	Aggressive
	Conservative
)

func (s Style) String() string {
	switch s {
	case Aggressive:
		return "aggressive"
	case Conservative:
		return "conservative"
	default:
		return "balanced"
	}
}

// ParseStyle maps a style name to its Style, defaulting nothing: unknown
// names are an error so misconfigured rooms fail loudly.
func ParseStyle(s string) (Style, error) {
	switch s {
	case "balanced":
		return Balanced, nil
	case "aggressive":
		return Aggressive, nil
	case "conservative":
		return Conservative, nil
	default:
		return Balanced, fmt.Errorf("ai: unknown style %q", s)
	}
}

// Thresholds are win-rate percentages gating each move for a style.
type Thresholds struct {
	Raise float64 // raise when adjusted win rate meets this
	Play  float64 // continue (rather than fold) when facing a bet
	Shove float64 // go all-in when short-stacked
}

func (s Style) thresholds() Thresholds {
	switch s {
	case Aggressive:
		return Thresholds{Raise: 40, Play: 28, Shove: 30}
	case Conservative:
		return Thresholds{Raise: 65, Play: 55, Shove: 45}
	default:
		return Thresholds{Raise: 50, Play: 32, Shove: 35}
	}
}

const (
	defaultIterations = 500
	deviationChance   = 0.2
	positionBonus     = 6.0
	shortStackBB      = 10.0
)

type positionTier uint8

const (
	earlyPosition positionTier = iota
	middlePosition
	latePosition
)

// tierOf splits the table into thirds by act order: the first third is
// early, the last third late.
func tierOf(position, total int) positionTier {
	if total <= 0 {
		return middlePosition
	}
	earlyCutoff := (total + 2) / 3
	middleCutoff := (2*total + 2) / 3
	switch {
	case position < earlyCutoff:
		return earlyPosition
	case position < middleCutoff:
		return middlePosition
	default:
		return latePosition
	}
}

// Context is everything a decision depends on. Rng drives both the equity
// simulation and the deviation rolls, so a fixed seed reproduces the
// decision exactly.
type Context struct {
	Hole      []poker.Card
	Community []poker.Card
	Chips     int
	Bet       int // chips already committed this betting round
	ToCall    int
	Pot       int
	BigBlind  int
	LastRaise int
	Opponents int // live opponents still contesting the hand
	Position  int // 0-based act order within the contesting players
	Preflop   bool
	Style     Style

	Iterations int // equity samples; 0 means the default
	Rng        *rand.Rand
}

// Decide returns the action the policy takes in the given context. The
// returned action is always legal for the context: raises meet the
// minimum, and a call the player cannot cover becomes all-in.
func Decide(ctx Context) game.Action {
	iterations := ctx.Iterations
	if iterations <= 0 {
		iterations = defaultIterations
	}
	opponents := ctx.Opponents
	if opponents < 1 {
		opponents = 1
	}

	winRate := 0.0
	if result, err := equity.Estimate(ctx.Hole, ctx.Community, opponents, iterations, ctx.Rng); err == nil {
		winRate = result.WinRate
	}

	potOdds := 0.0
	if ctx.Pot+ctx.ToCall > 0 {
		potOdds = float64(ctx.ToCall) / float64(ctx.Pot+ctx.ToCall) * 100
	}
	stackBB := 0.0
	if ctx.BigBlind > 0 {
		stackBB = float64(ctx.Chips) / float64(ctx.BigBlind)
	}

	tier := tierOf(ctx.Position, opponents+1)
	thresholds := ctx.Style.thresholds()
	adjusted := winRate
	switch tier {
	case latePosition:
		adjusted += positionBonus
	case earlyPosition:
		adjusted -= positionBonus
	}

	// Short stacks play shove-or-fold; no deviation applies.
	if stackBB > 0 && stackBB < shortStackBB {
		if adjusted >= thresholds.Shove {
			return game.Action{Type: game.AllIn}
		}
		if ctx.ToCall > 0 {
			return game.Action{Type: game.Fold}
		}
		return game.Action{Type: game.Check}
	}

	action := game.Action{Type: game.Check}

	switch ctx.Style {
	case Conservative:
		preflopThreshold := 60.0
		if tier == earlyPosition {
			preflopThreshold = 70
		}
		playable := adjusted >= thresholds.Play
		if ctx.Preflop {
			playable = winRate >= preflopThreshold
		}
		switch {
		case !playable && ctx.ToCall > 0:
			action = game.Action{Type: game.Fold}
		case adjusted >= thresholds.Raise && ctx.ToCall <= ctx.Chips:
			action = raiseBy(ctx, 2)
		case ctx.ToCall > 0:
			action = callOrFold(adjusted, potOdds)
		}

	case Aggressive:
		steal := tier == latePosition && ctx.ToCall == 0 && winRate >= 25
		shouldRaise := adjusted >= thresholds.Raise || steal || stackBB < 20
		switch {
		case shouldRaise && ctx.Chips > ctx.ToCall:
			action = raiseBy(ctx, 3)
		case ctx.ToCall > 0:
			action = callOrFold(adjusted, potOdds)
		}

	default: // Balanced
		playThreshold := thresholds.Play
		switch tier {
		case earlyPosition:
			playThreshold = 45
		case middlePosition:
			playThreshold = 35
		}
		playable := adjusted >= playThreshold
		bluff := ctx.Rng.Float64() < 0.1 && ctx.ToCall == 0
		switch {
		case bluff && ctx.Chips > ctx.BigBlind:
			action = raiseBy(ctx, 1)
		case !playable && ctx.ToCall > 0:
			action = game.Action{Type: game.Fold}
		case adjusted >= thresholds.Raise && ctx.Chips > ctx.ToCall:
			action = raiseBy(ctx, 2)
		case ctx.ToCall > 0:
			oddsAdjustment := 0.0
			if stackBB > 50 {
				oddsAdjustment = 5
			}
			action = callOrFold(adjusted+oddsAdjustment, potOdds)
		}
	}

	// A call the player cannot cover is a commitment of the whole stack.
	if ctx.ToCall >= ctx.Chips && action.Type != game.Fold {
		return game.Action{Type: game.AllIn}
	}
	return deviate(ctx, action)
}

// raiseBy sizes a raise at the current minimum raise increment times the
// multiplier, on top of the amount to call. Raises the stack cannot cover
// become all-in.
func raiseBy(ctx Context, multiplier int) game.Action {
	base := ctx.LastRaise
	if ctx.BigBlind > base {
		base = ctx.BigBlind
	}
	extra := ctx.ToCall + base*multiplier
	if extra >= ctx.Chips {
		return game.Action{Type: game.AllIn}
	}
	return game.Action{Type: game.Raise, Amount: ctx.Bet + extra}
}

func callOrFold(winRate, potOdds float64) game.Action {
	if winRate >= potOdds {
		return game.Action{Type: game.Call}
	}
	return game.Action{Type: game.Fold}
}

// deviate replaces the chosen action 20% of the time with a nearby one,
// so the policy does not play a fixed strategy: raises soften to calls,
// calls soften to folds and a check occasionally turns into a probe raise.
func deviate(ctx Context, action game.Action) game.Action {
	if ctx.Rng.Float64() >= deviationChance {
		return action
	}
	switch action.Type {
	case game.Raise:
		if ctx.ToCall > 0 {
			return game.Action{Type: game.Call}
		}
		return game.Action{Type: game.Check}
	case game.Call:
		if ctx.ToCall > 0 {
			return game.Action{Type: game.Fold}
		}
		return game.Action{Type: game.Check}
	case game.Check:
		if ctx.ToCall == 0 && ctx.Chips > ctx.BigBlind {
			return raiseBy(ctx, 1)
		}
	}
	return action
}
