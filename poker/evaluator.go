package poker

import (
	"fmt"
	"sort"
)

// Category enumerates hand categories ordered from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category label.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Eval describes the best five-card hand obtainable from the input:
// a category plus a descending tiebreak tuple specific to that category
// (e.g. full house compares trip rank then pair rank).
type Eval struct {
	Category  Category
	Tiebreaks []Rank
}

// Compare returns 1 if e beats other, -1 if other beats e, 0 on a tie.
func (e Eval) Compare(other Eval) int {
	if e.Category != other.Category {
		if e.Category > other.Category {
			return 1
		}
		return -1
	}
	n := len(e.Tiebreaks)
	if len(other.Tiebreaks) > n {
		n = len(other.Tiebreaks)
	}
	for i := 0; i < n; i++ {
		var a, b Rank
		if i < len(e.Tiebreaks) {
			a = e.Tiebreaks[i]
		}
		if i < len(other.Tiebreaks) {
			b = other.Tiebreaks[i]
		}
		if a != b {
			if a > b {
				return 1
			}
			return -1
		}
	}
	return 0
}

// EvaluateBest scores the best five-card hand from 5-7 cards by evaluating
// every five-card subset and keeping the maximum. The result is independent
// of input order.
func EvaluateBest(cards []Card) (Eval, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return Eval{}, fmt.Errorf("evaluate: want 5-7 cards, got %d", len(cards))
	}

	var best Eval
	forEachFive(cards, func(five []Card) {
		eval := evaluateFive(five)
		if best.Category == 0 || eval.Compare(best) > 0 {
			best = eval
		}
	})
	return best, nil
}

// forEachFive invokes fn for every five-card subset of cards.
func forEachFive(cards []Card, fn func([]Card)) {
	n := len(cards)
	var combo [5]Card
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			fn(combo[:])
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			combo[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
}

// evaluateFive scores exactly five cards.
func evaluateFive(cards []Card) Eval {
	values := make([]Rank, 5)
	for i, c := range cards {
		values[i] = c.Rank
	}
	sort.Slice(values, func(i, j int) bool { return values[i] > values[j] })

	flush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straight, straightHigh := straightHigh(values)

	if flush && straight {
		return Eval{Category: StraightFlush, Tiebreaks: []Rank{straightHigh}}
	}

	groups := groupRanks(values)

	if groups[0].count == 4 {
		return Eval{Category: FourOfAKind, Tiebreaks: []Rank{groups[0].rank, groups[1].rank}}
	}
	if groups[0].count == 3 && groups[1].count == 2 {
		return Eval{Category: FullHouse, Tiebreaks: []Rank{groups[0].rank, groups[1].rank}}
	}
	if flush {
		return Eval{Category: Flush, Tiebreaks: values}
	}
	if straight {
		return Eval{Category: Straight, Tiebreaks: []Rank{straightHigh}}
	}
	if groups[0].count == 3 {
		return Eval{Category: ThreeOfAKind, Tiebreaks: []Rank{groups[0].rank, groups[1].rank, groups[2].rank}}
	}
	if groups[0].count == 2 && groups[1].count == 2 {
		high, low := groups[0].rank, groups[1].rank
		if low > high {
			high, low = low, high
		}
		return Eval{Category: TwoPair, Tiebreaks: []Rank{high, low, groups[2].rank}}
	}
	if groups[0].count == 2 {
		return Eval{Category: OnePair, Tiebreaks: []Rank{groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank}}
	}
	return Eval{Category: HighCard, Tiebreaks: values}
}

// straightHigh reports whether the five ranks form a straight and its high
// card. The wheel (A-2-3-4-5) counts as a five-high straight, strictly below
// a six-high straight.
func straightHigh(sorted []Rank) (bool, Rank) {
	distinct := true
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			distinct = false
			break
		}
	}
	if !distinct {
		return false, 0
	}

	if sorted[0]-sorted[4] == 4 {
		return true, sorted[0]
	}
	// Wheel: A-5-4-3-2 once sorted descending.
	if sorted[0] == Ace && sorted[1] == Five && sorted[4] == Two && sorted[1]-sorted[4] == 3 {
		return true, Five
	}
	return false, 0
}

type rankGroup struct {
	rank  Rank
	count int
}

// groupRanks buckets ranks by multiplicity, ordered by count then rank,
// both descending.
func groupRanks(values []Rank) []rankGroup {
	counts := make(map[Rank]int, 5)
	for _, v := range values {
		counts[v]++
	}
	groups := make([]rankGroup, 0, len(counts))
	for rank, count := range counts {
		groups = append(groups, rankGroup{rank: rank, count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}
