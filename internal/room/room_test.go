package room

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltmachine/holdem/internal/game"
)

func testConfig() Config {
	return Config{
		SmallBlind:   5,
		BigBlind:     10,
		StartChips:   1000,
		TurnTimeout:  10 * time.Millisecond,
		ThinkDelay:   10 * time.Millisecond,
		Grace:        time.Second,
		AIIterations: 60,
	}
}

func newTestRoom(t *testing.T, clock quartz.Clock) *Room {
	t.Helper()
	r := New("123456", testConfig(), 99, clock, log.New(io.Discard))
	t.Cleanup(r.Close)
	return r
}

func drainEvents(r *Room) {
	for {
		select {
		case <-r.Events():
		default:
			return
		}
	}
}

func TestJoinSeatsUpToSixThenSpectates(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewReal())
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, id := range ids {
		require.NoError(t, r.Join(id, "Player "+id))
	}

	snap := r.Snapshot("")
	assert.Len(t, snap.Players, 6)
	require.Len(t, snap.Spectators, 1)
	assert.Equal(t, "g", snap.Spectators[0].ID)
	assert.Equal(t, "spectator", snap.Spectators[0].Status)
	assert.Equal(t, "a", snap.HostID)

	assert.Error(t, r.Join("a", "Player a"), "double join should be rejected")
}

func TestLeaveMigratesHostAndReseats(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewReal())
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))
	require.NoError(t, r.Join("c", "C"))

	require.NoError(t, r.Leave("a"))

	snap := r.Snapshot("")
	assert.Equal(t, "b", snap.HostID)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, 0, snap.Players[0].Seat)
	assert.Equal(t, 1, snap.Players[1].Seat)

	assert.ErrorIs(t, r.Leave("a"), ErrUnknownPlayer)
}

func TestKickIsHostOnly(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewReal())
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))

	assert.ErrorIs(t, r.Kick("b", "a"), ErrNotHost)
	assert.Error(t, r.Kick("a", "a"))
	require.NoError(t, r.Kick("a", "b"))
	assert.Equal(t, 1, r.PlayerCount())
}

func TestStartValidation(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewReal())
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))

	assert.ErrorIs(t, r.Start("b"), ErrNotHost)
	assert.ErrorIs(t, r.Start("a"), ErrNotAllReady)

	require.NoError(t, r.Ready("a"))
	require.NoError(t, r.Ready("b"))
	require.NoError(t, r.Start("a"))

	snap := r.Snapshot("")
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.Equal(t, "preflop", snap.Stage)
	assert.Equal(t, 15, snap.Pot)

	assert.ErrorIs(t, r.Start("a"), ErrHandInProgress)
}

func TestSoloStartBackfillsBots(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	r := newTestRoom(t, clock)
	require.NoError(t, r.Join("solo", "Solo"))
	require.NoError(t, r.Ready("solo"))
	require.NoError(t, r.Start("solo"))

	snap := r.Snapshot("")
	require.Len(t, snap.Players, 3)
	assert.False(t, snap.Players[0].AI)
	assert.True(t, snap.Players[1].AI)
	assert.True(t, snap.Players[2].AI)
	assert.Equal(t, StatusPlaying, snap.Status)
}

// TestHandRunsToCompletion drives a solo hand entirely off timers: the
// bots act after the thinking delay and the human is checked or folded by
// the turn timeout.
func TestHandRunsToCompletion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := quartz.NewMock(t)
	r := newTestRoom(t, clock)
	require.NoError(t, r.Join("solo", "Solo"))
	require.NoError(t, r.Ready("solo"))
	require.NoError(t, r.Start("solo"))

	for i := 0; i < 300; i++ {
		drainEvents(r)
		if r.Snapshot("").Status == StatusEnded {
			break
		}
		clock.Advance(10 * time.Millisecond).MustWait(ctx)
	}

	snap := r.Snapshot("")
	require.Equal(t, StatusEnded, snap.Status)
	require.NotEmpty(t, snap.Pots)

	chips := 0
	for _, p := range snap.Players {
		chips += p.Chips
	}
	assert.Equal(t, 3000, chips, "chips must be conserved across the hand")
}

func TestTurnTimeoutFoldsWhenFacingABet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := quartz.NewMock(t)
	r := newTestRoom(t, clock)
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))
	require.NoError(t, r.Ready("a"))
	require.NoError(t, r.Ready("b"))
	require.NoError(t, r.Start("a"))

	// Heads-up preflop: the small blind acts first and owes chips, so the
	// timeout folds them and the hand resolves.
	snap := r.Snapshot("")
	require.Equal(t, StatusPlaying, snap.Status)
	firstToAct := snap.Turn

	clock.Advance(10 * time.Millisecond).MustWait(ctx)

	snap = r.Snapshot("")
	assert.Equal(t, StatusEnded, snap.Status)
	for _, p := range snap.Players {
		if p.ID == firstToAct {
			assert.Equal(t, "folded", p.Status)
		}
	}
}

func TestOutOfTurnActionIsRejectedWithoutMutation(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewMock(t))
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))
	require.NoError(t, r.Ready("a"))
	require.NoError(t, r.Ready("b"))
	require.NoError(t, r.Start("a"))

	snap := r.Snapshot("")
	waiting := "a"
	if snap.Turn == "a" {
		waiting = "b"
	}

	err := r.Act(waiting, game.Action{Type: game.Call})
	require.ErrorIs(t, err, game.ErrOutOfTurn)

	var ruleErr *game.RuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, game.CodeOutOfTurn, ruleErr.Code)
	assert.Equal(t, snap.Pot, r.Snapshot("").Pot)
}

func TestActBeforeStartReturnsHandNotStarted(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewMock(t))
	require.NoError(t, r.Join("a", "A"))
	assert.ErrorIs(t, r.Act("a", game.Action{Type: game.Check}), game.ErrHandNotStarted)
}

func TestDisconnectGraceFoldsAndReconnectCancels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := quartz.NewMock(t)
	r := newTestRoom(t, clock)
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))
	require.NoError(t, r.Join("c", "C"))

	// Reconnect within the grace window keeps the seat.
	r.HandleDisconnect("b")
	clock.Advance(500 * time.Millisecond).MustWait(ctx)
	require.NoError(t, r.Join("b", "B"))
	clock.Advance(time.Second).MustWait(ctx)
	snap := r.Snapshot("")
	assert.Equal(t, "waiting", snap.Players[1].Status)

	// Expired grace marks the player offline.
	r.HandleDisconnect("c")
	clock.Advance(time.Second).MustWait(ctx)
	snap = r.Snapshot("")
	assert.Equal(t, "offline", snap.Players[2].Status)
}

func TestSnapshotRedactsHoleCards(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewMock(t))
	require.NoError(t, r.Join("a", "A"))
	require.NoError(t, r.Join("b", "B"))
	require.NoError(t, r.Ready("a"))
	require.NoError(t, r.Ready("b"))
	require.NoError(t, r.Start("a"))

	mine := r.Snapshot("a")
	for _, p := range mine.Players {
		if p.ID == "a" {
			assert.Len(t, p.Hole, 2, "viewer sees own cards")
		} else {
			assert.Empty(t, p.Hole, "viewer must not see other holes")
		}
	}

	lobby := r.Snapshot("")
	for _, p := range lobby.Players {
		assert.Empty(t, p.Hole, "spectator view hides every hole")
	}
}

func TestChatRelaysToEventStream(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, quartz.NewMock(t))
	require.NoError(t, r.Join("a", "A"))
	drainEvents(r)

	require.NoError(t, r.Chat("a", "nice hand"))
	assert.ErrorIs(t, r.Chat("ghost", "boo"), ErrUnknownPlayer)

	found := false
	for !found {
		select {
		case ev := <-r.Events():
			if ev.Kind == EventChat {
				assert.Equal(t, "a", ev.PlayerID)
				assert.Equal(t, "nice hand", ev.Message)
				found = true
			}
		default:
			t.Fatal("chat event not emitted")
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{}, 7, quartz.NewMock(t), log.New(io.Discard))

	r, err := m.CreateRoom("host", "Host", Config{SmallBlind: 5, BigBlind: 10})
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, r.ID())

	got, ok := m.GetRoom(r.ID())
	require.True(t, ok)
	assert.Same(t, r, got)

	require.NoError(t, got.Join("guest", "Guest"))
	assert.Len(t, m.ListRooms(), 1)
	assert.Equal(t, 2, m.ListRooms()[0].Players)

	require.NoError(t, m.LeaveRoom(r.ID(), "guest"))
	require.NoError(t, m.LeaveRoom(r.ID(), "host"))
	_, ok = m.GetRoom(r.ID())
	assert.False(t, ok, "empty room should be removed")
}
