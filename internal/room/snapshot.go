package room

import (
	"github.com/feltmachine/holdem/internal/game"
	"github.com/feltmachine/holdem/poker"
)

// PlayerView is a player as seen by one viewer. Hole cards are present
// only for the viewer's own seat, or for everyone once the hand reaches
// showdown.
type PlayerView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Seat     int      `json:"seat"`
	Chips    int      `json:"chips"`
	Status   string   `json:"status"`
	Ready    bool     `json:"ready"`
	AI       bool     `json:"ai"`
	Bet      int      `json:"bet"`
	TotalBet int      `json:"total_bet"`
	Hole     []string `json:"hole,omitempty"`
	HandName string   `json:"hand_name,omitempty"`
	Payout   int      `json:"payout,omitempty"`
}

// PotView is one pot layer in a snapshot.
type PotView struct {
	Amount   int      `json:"amount"`
	Eligible []string `json:"eligible"`
	Winners  []string `json:"winners,omitempty"`
}

// Snapshot is the full redacted room view sent to a client.
type Snapshot struct {
	RoomID     string       `json:"room_id"`
	HostID     string       `json:"host_id"`
	Status     Status       `json:"status"`
	SmallBlind int          `json:"small_blind"`
	BigBlind   int          `json:"big_blind"`
	Players    []PlayerView `json:"players"`
	Spectators []PlayerView `json:"spectators,omitempty"`

	Stage     string    `json:"stage,omitempty"`
	Community []string  `json:"community,omitempty"`
	Pot       int       `json:"pot"`
	Pots      []PotView `json:"pots,omitempty"`
	Turn      string    `json:"turn,omitempty"`
	ToCall    int       `json:"to_call"`
	MinRaise  int       `json:"min_raise"`
}

// Snapshot builds the room view for the given viewer. An empty viewerID
// yields the spectator view with every hole hidden until showdown.
func (r *Room) Snapshot(viewerID string) Snapshot {
	var snap Snapshot
	_ = r.call(func() error {
		snap = r.buildSnapshot(viewerID)
		return nil
	})
	return snap
}

func (r *Room) buildSnapshot(viewerID string) Snapshot {
	snap := Snapshot{
		RoomID:     r.id,
		HostID:     r.hostID,
		Status:     r.status,
		SmallBlind: r.cfg.SmallBlind,
		BigBlind:   r.cfg.BigBlind,
	}

	hand := r.hand
	showdown := hand != nil && hand.Resolved()
	for _, p := range r.players {
		snap.Players = append(snap.Players, r.viewOf(p, viewerID, showdown))
	}
	for _, p := range r.spectators {
		snap.Spectators = append(snap.Spectators, r.viewOf(p, viewerID, showdown))
	}

	if hand == nil {
		return snap
	}
	snap.Stage = hand.Stage.String()
	snap.Community = cardCodes(hand.Community)
	snap.Pot = hand.Pot
	snap.Turn = hand.Turn
	snap.MinRaise = hand.HighestBet() + hand.LastRaise
	if viewerID != "" && hand.PlayerByID(viewerID) != nil {
		snap.ToCall = hand.AmountToCall(viewerID)
	}
	for _, pot := range hand.SidePots {
		view := PotView{Amount: pot.Amount, Eligible: pot.Eligible}
		snap.Pots = append(snap.Pots, view)
	}
	if hand.Summary != nil {
		snap.Pots = snap.Pots[:0]
		for _, pot := range hand.Summary.Pots {
			snap.Pots = append(snap.Pots, PotView{
				Amount:   pot.Amount,
				Eligible: pot.Eligible,
				Winners:  pot.Winners,
			})
		}
	}
	return snap
}

func (r *Room) viewOf(p *game.Player, viewerID string, showdown bool) PlayerView {
	view := PlayerView{
		ID:     p.ID,
		Name:   p.Name,
		Seat:   p.Seat,
		Chips:  p.Chips,
		Status: p.Status.String(),
		Ready:  r.ready[p.ID],
		AI:     p.AI != nil,
	}
	if r.hand != nil {
		view.Bet = r.hand.RoundBets[p.ID]
		view.TotalBet = r.hand.TotalBets[p.ID]
		// Folded hands stay hidden even at showdown.
		if p.ID == viewerID || (showdown && p.InHand()) {
			view.Hole = cardCodes(p.Hole)
		}
		if r.hand.Summary != nil {
			view.HandName = r.hand.Summary.Labels[p.ID]
			view.Payout = r.hand.Summary.Payouts[p.ID]
		}
	}
	return view
}

func cardCodes(cards []poker.Card) []string {
	if len(cards) == 0 {
		return nil
	}
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}
