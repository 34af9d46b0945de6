package room

import (
	"github.com/feltmachine/holdem/internal/ai"
	"github.com/feltmachine/holdem/internal/game"
	"github.com/feltmachine/holdem/poker"
)

// aiAttempts bounds the recompute loop when the state moved under a
// decision in flight.
const aiAttempts = 3

// runAI drives one AI turn. The equity simulation is too slow to run on
// the room loop, so the context is snapshotted on the loop, the decision
// is computed here in the timer goroutine, and the result is applied only
// if the state version is still the one the decision was computed for.
// On a version mismatch the decision is recomputed against fresh state.
func (r *Room) runAI(playerID string, version uint64) {
	for attempt := 0; attempt < aiAttempts; attempt++ {
		ctx, ok := r.aiContext(playerID, version)
		if !ok {
			return
		}

		action := ai.Decide(ctx)

		applied := false
		err := r.call(func() error {
			if r.hand == nil || r.hand.Resolved() || r.hand.Turn != playerID {
				applied = true // turn moved on, nothing to do
				return nil
			}
			if r.hand.Version() != version {
				version = r.hand.Version()
				return nil // recompute against the new state
			}
			applied = true
			if err := r.applyAction(playerID, action); err != nil {
				// The policy only emits legal actions; if the engine still
				// rejects one, fold rather than stall the table.
				r.logger.Error("ai action rejected", "player", playerID, "action", action.Type, "err", err)
				r.hand.ForceFold(playerID)
				r.afterMutation()
			}
			return nil
		})
		if err != nil || applied {
			return
		}
	}

	// Could not land a decision; fold to keep the hand moving.
	_ = r.call(func() error {
		if r.hand != nil && !r.hand.Resolved() && r.hand.Turn == playerID {
			r.logger.Warn("ai decision kept going stale, folding", "player", playerID)
			r.hand.ForceFold(playerID)
			r.afterMutation()
		}
		return nil
	})
}

// aiContext snapshots everything the policy needs, on the room loop. The
// bool is false when the turn or version no longer match.
func (r *Room) aiContext(playerID string, version uint64) (ai.Context, bool) {
	var ctx ai.Context
	ok := false
	err := r.call(func() error {
		if r.hand == nil || r.hand.Resolved() || r.hand.Turn != playerID || r.hand.Version() != version {
			return nil
		}
		p := r.hand.PlayerByID(playerID)
		if p == nil || p.AI == nil {
			return nil
		}
		style, parseErr := ai.ParseStyle(p.AI.Style)
		if parseErr != nil {
			style = ai.Balanced
		}

		contesting := 0
		for _, other := range r.hand.Players {
			if other.InHand() {
				contesting++
			}
		}

		ctx = ai.Context{
			Hole:      append([]poker.Card(nil), p.Hole...),
			Community: append([]poker.Card(nil), r.hand.Community...),
			Chips:     p.Chips,
			Bet:       r.hand.RoundBets[playerID],
			ToCall:    r.hand.AmountToCall(playerID),
			Pot:       r.hand.Pot,
			BigBlind:  r.hand.BigBlind,
			LastRaise: r.hand.LastRaise,
			Opponents: contesting - 1,
			Position:  r.actOrder(playerID),
			Preflop:   r.hand.Stage == game.Preflop,
			Style:     style,

			Iterations: r.cfg.AIIterations,
			Rng:        r.aiRngs[playerID],
		}
		ok = true
		return nil
	})
	if err != nil {
		return ai.Context{}, false
	}
	return ctx, ok
}

// actOrder is the player's position among contesting players, counting
// clockwise from the seat after the dealer. Later positions act on more
// information and play wider.
func (r *Room) actOrder(playerID string) int {
	players := r.hand.Players
	n := len(players)
	order := 0
	for i := 1; i <= n; i++ {
		p := players[(r.hand.Dealer+i)%n]
		if !p.InHand() {
			continue
		}
		if p.ID == playerID {
			return order
		}
		order++
	}
	return order
}
