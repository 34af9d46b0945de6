package ai

import (
	"testing"

	"github.com/feltmachine/holdem/internal/game"
	"github.com/feltmachine/holdem/internal/randutil"
	"github.com/feltmachine/holdem/poker"
)

func mustCards(t *testing.T, s string) []poker.Card {
	t.Helper()
	cards, err := poker.ParseCards(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return cards
}

func TestParseStyle(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"balanced", "aggressive", "conservative"} {
		style, err := ParseStyle(name)
		if err != nil {
			t.Errorf("parse %q: %v", name, err)
		}
		if style.String() != name {
			t.Errorf("round trip %q got %q", name, style.String())
		}
	}
	if _, err := ParseStyle("tricky"); err == nil {
		t.Error("unknown style should error")
	}
}

func TestTierOfSplitsTableIntoThirds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		position, total int
		want            positionTier
	}{
		{0, 6, earlyPosition},
		{1, 6, earlyPosition},
		{2, 6, middlePosition},
		{3, 6, middlePosition},
		{4, 6, latePosition},
		{5, 6, latePosition},
		{0, 2, earlyPosition},
		{1, 2, latePosition},
		{0, 0, middlePosition},
	}
	for _, tc := range cases {
		if got := tierOf(tc.position, tc.total); got != tc.want {
			t.Errorf("tierOf(%d, %d) = %v, want %v", tc.position, tc.total, got, tc.want)
		}
	}
}

func TestShortStackShovesStrongHand(t *testing.T) {
	t.Parallel()

	for _, style := range []Style{Balanced, Aggressive, Conservative} {
		action := Decide(Context{
			Hole:      mustCards(t, "AsAd"),
			Chips:     90,
			ToCall:    20,
			Pot:       30,
			BigBlind:  10,
			LastRaise: 10,
			Opponents: 2,
			Preflop:   true,
			Style:     style,
			Rng:       randutil.New(5),
		})
		if action.Type != game.AllIn {
			t.Errorf("%v: short stack with aces should shove, got %v", style, action.Type)
		}
	}
}

func TestShortStackFoldsTrashFacingBet(t *testing.T) {
	t.Parallel()

	for _, style := range []Style{Balanced, Aggressive, Conservative} {
		action := Decide(Context{
			Hole:      mustCards(t, "7c2d"),
			Chips:     80,
			ToCall:    40,
			Pot:       120,
			BigBlind:  10,
			LastRaise: 10,
			Opponents: 4,
			Preflop:   true,
			Style:     style,
			Rng:       randutil.New(6),
		})
		if action.Type != game.Fold {
			t.Errorf("%v: short stack with 72o facing a bet should fold, got %v", style, action.Type)
		}
	}
}

func TestUncoverableCallBecomesAllIn(t *testing.T) {
	t.Parallel()

	action := Decide(Context{
		Hole:      mustCards(t, "AsAd"),
		Chips:     300,
		ToCall:    500,
		Pot:       800,
		BigBlind:  10,
		LastRaise: 490,
		Opponents: 1,
		Position:  1,
		Preflop:   true,
		Style:     Conservative,
		Rng:       randutil.New(8),
	})
	if action.Type != game.AllIn {
		t.Errorf("call exceeding the stack should become all-in, got %v", action.Type)
	}
}

func TestConservativeFoldsTrashPreflop(t *testing.T) {
	t.Parallel()

	action := Decide(Context{
		Hole:      mustCards(t, "7c2d"),
		Chips:     2000,
		ToCall:    100,
		Pot:       150,
		BigBlind:  10,
		LastRaise: 90,
		Opponents: 4,
		Preflop:   true,
		Style:     Conservative,
		Rng:       randutil.New(9),
	})
	if action.Type != game.Fold {
		t.Errorf("conservative should fold 72o to a raise, got %v", action.Type)
	}
}

func TestAggressiveNeverFoldsAcesUnraised(t *testing.T) {
	t.Parallel()

	// The deviation pass can soften a raise to a check, but never a fold
	// when nothing is owed.
	for seed := int64(0); seed < 20; seed++ {
		action := Decide(Context{
			Hole:      mustCards(t, "AsAd"),
			Chips:     2000,
			ToCall:    0,
			Pot:       15,
			BigBlind:  10,
			LastRaise: 10,
			Opponents: 2,
			Position:  2,
			Preflop:   true,
			Style:     Aggressive,
			Rng:       randutil.New(seed),
		})
		switch action.Type {
		case game.Raise, game.Check, game.AllIn:
		default:
			t.Errorf("seed %d: unexpected %v with aces and nothing to call", seed, action.Type)
		}
		if action.Type == game.Raise && action.Amount <= 0 {
			t.Errorf("seed %d: raise without a target amount", seed)
		}
	}
}

func TestRaiseTargetMeetsMinimum(t *testing.T) {
	t.Parallel()

	ctx := Context{
		Chips:     2000,
		Bet:       10,
		ToCall:    40,
		BigBlind:  10,
		LastRaise: 40,
	}
	action := raiseBy(ctx, 2)
	if action.Type != game.Raise {
		t.Fatalf("expected a raise, got %v", action.Type)
	}
	// Raise targets are totals for the round: committed 10, owes 40, so the
	// highest bet is 50 and the raise must add at least LastRaise on top.
	if got, min := action.Amount, 50+ctx.LastRaise; got < min {
		t.Errorf("raise to %d is below minimum %d", got, min)
	}

	if got := raiseBy(Context{Chips: 30, ToCall: 20, BigBlind: 10, LastRaise: 10}, 3); got.Type != game.AllIn {
		t.Errorf("raise exceeding the stack should become all-in, got %v", got.Type)
	}
}
