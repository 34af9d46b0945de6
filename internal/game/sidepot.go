package game

import "sort"

// SidePot is a layer of the pot contested by the players who contributed
// at least up to its tier.
type SidePot struct {
	Amount   int
	Eligible []string
}

// Contribution pairs a contesting player with their total contribution for
// the hand. Folded players are excluded by the caller; their chips are
// folded into the pot layers by the showdown resolver.
type Contribution struct {
	PlayerID string
	Amount   int
}

// potTier is a SidePot plus the cumulative contribution level that closed
// the tier, which the showdown resolver needs to fold dead money into the
// correct layers.
type potTier struct {
	level int
	pot   SidePot
}

// CalculateSidePots partitions contested chips into pots by contribution
// tier. Contributions are sorted ascending; each distinct level produces a
// layer of (level - previous) * contributorsAtOrAbove chips, eligible to
// every player who contributed at least that much. The sum of all returned
// pot amounts equals the sum of the input contributions.
func CalculateSidePots(contributions []Contribution) []SidePot {
	tiers := calculateTiers(contributions)
	pots := make([]SidePot, 0, len(tiers))
	for _, t := range tiers {
		pots = append(pots, t.pot)
	}
	return pots
}

func calculateTiers(contributions []Contribution) []potTier {
	active := make([]Contribution, 0, len(contributions))
	for _, c := range contributions {
		if c.Amount > 0 {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Amount < active[j].Amount
	})

	var tiers []potTier
	previous := 0
	for i, c := range active {
		if c.Amount == previous {
			continue
		}
		remaining := active[i:]
		eligible := make([]string, len(remaining))
		for j, r := range remaining {
			eligible[j] = r.PlayerID
		}
		tiers = append(tiers, potTier{
			level: c.Amount,
			pot: SidePot{
				Amount:   (c.Amount - previous) * len(remaining),
				Eligible: eligible,
			},
		})
		previous = c.Amount
	}
	return tiers
}
