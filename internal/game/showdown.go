package game

import "github.com/feltmachine/holdem/poker"

// PotResult records the outcome of a single pot layer.
type PotResult struct {
	Amount   int
	Eligible []string
	Winners  []string
}

// Summary is the showdown outcome exposed to the room layer: per-pot
// winners, each contesting player's best hand and its category label, and
// the net payout per player.
type Summary struct {
	Pots      []PotResult
	BestHands map[string]poker.Eval
	Labels    map[string]string
	Payouts   map[string]int
}

// resolveShowdown evaluates every contesting player's best hand, partitions
// the pot into layers, folds dead money from folded players into those
// layers, and pays each layer to its best eligible hand(s). Ties split a
// layer evenly; remainder chips go to the tied winner closest clockwise
// from the dealer button.
func (s *State) resolveShowdown() {
	s.Stage = Showdown
	s.Turn = ""

	contesting := s.contesting()
	contributions := make([]Contribution, 0, len(contesting))
	for _, p := range contesting {
		contributions = append(contributions, Contribution{PlayerID: p.ID, Amount: s.TotalBets[p.ID]})
	}
	tiers := calculateTiers(contributions)
	if len(tiers) == 0 && len(contesting) > 0 {
		ids := make([]string, len(contesting))
		for i, p := range contesting {
			ids[i] = p.ID
		}
		tiers = []potTier{{pot: SidePot{Eligible: ids}}}
	}
	s.foldDeadMoney(tiers)

	summary := &Summary{
		BestHands: make(map[string]poker.Eval),
		Labels:    make(map[string]string),
		Payouts:   make(map[string]int),
	}

	if len(contesting) > 1 {
		for _, p := range contesting {
			cards := append(append([]poker.Card{}, p.Hole...), s.Community...)
			eval, err := poker.EvaluateBest(cards)
			if err != nil {
				continue
			}
			summary.BestHands[p.ID] = eval
			summary.Labels[p.ID] = eval.Category.String()
		}
	}

	s.SidePots = s.SidePots[:0]
	for _, tier := range tiers {
		winners := s.potWinners(tier.pot.Eligible, summary.BestHands)
		s.payout(tier.pot.Amount, winners, summary)
		s.SidePots = append(s.SidePots, tier.pot)
		summary.Pots = append(summary.Pots, PotResult{
			Amount:   tier.pot.Amount,
			Eligible: tier.pot.Eligible,
			Winners:  winners,
		})
	}

	s.Summary = summary
	s.version++
}

// foldDeadMoney layers folded players' contributions into the pots they
// would have been contesting, so no chips are dropped at showdown.
func (s *State) foldDeadMoney(tiers []potTier) {
	for _, p := range s.Players {
		if p.InHand() {
			continue
		}
		remaining := s.TotalBets[p.ID]
		previous := 0
		for i := range tiers {
			if remaining == 0 {
				break
			}
			span := tiers[i].level - previous
			take := min(remaining, span)
			tiers[i].pot.Amount += take
			remaining -= take
			previous = tiers[i].level
		}
		// Contributions above the highest contested level stay in the top pot.
		if remaining > 0 && len(tiers) > 0 {
			tiers[len(tiers)-1].pot.Amount += remaining
		}
	}
}

// potWinners returns the players holding the maximal hand among the
// eligible set. A single eligible player wins outright without evaluation.
func (s *State) potWinners(eligible []string, hands map[string]poker.Eval) []string {
	if len(eligible) == 1 {
		return eligible
	}
	var winners []string
	var best poker.Eval
	for _, id := range eligible {
		eval, ok := hands[id]
		if !ok {
			continue
		}
		if len(winners) == 0 {
			winners = []string{id}
			best = eval
			continue
		}
		switch eval.Compare(best) {
		case 1:
			winners = []string{id}
			best = eval
		case 0:
			winners = append(winners, id)
		}
	}
	if len(winners) == 0 {
		winners = eligible[:1]
	}
	return winners
}

// payout splits an amount evenly among winners using integer division,
// awarding the remainder to the winner closest clockwise from the dealer.
func (s *State) payout(amount int, winners []string, summary *Summary) {
	if len(winners) == 0 || amount <= 0 {
		return
	}
	share := amount / len(winners)
	remainder := amount % len(winners)

	for _, id := range winners {
		s.PlayerByID(id).Chips += share
		summary.Payouts[id] += share
	}
	if remainder > 0 {
		id := s.closestToDealer(winners)
		s.PlayerByID(id).Chips += remainder
		summary.Payouts[id] += remainder
	}
}

func (s *State) closestToDealer(ids []string) string {
	n := len(s.Players)
	best := ids[0]
	bestDist := n + 1
	for _, id := range ids {
		dist := (s.seatOf(id) - s.Dealer + n) % n
		if dist == 0 {
			dist = n
		}
		if dist < bestDist {
			bestDist = dist
			best = id
		}
	}
	return best
}
