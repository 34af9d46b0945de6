// Package equity estimates win probability for a hold'em hand by Monte
// Carlo simulation against a given number of opponents holding random
// cards.
package equity

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/feltmachine/holdem/poker"
)

// parallelThreshold is the iteration count below which the goroutine
// overhead outweighs the parallel speedup.
const parallelThreshold = 2000

// maxWorkers is fixed rather than tied to GOMAXPROCS so a given seed
// produces the same worker seed assignment on every machine.
const maxWorkers = 8

// Result holds the tally of a Monte Carlo run. WinRate is a percentage in
// [0, 100] counting ties as half a win.
type Result struct {
	Wins       int
	Ties       int
	Losses     int
	Iterations int
	WinRate    float64
}

// Estimate simulates the given number of random deals and reports how
// often the hole cards win against the given number of opponents. The
// community slice may hold 0, 3, 4 or 5 known cards; the rest of the
// board is dealt randomly each iteration. The caller supplies the RNG, so
// results are reproducible for a fixed seed.
func Estimate(hole []poker.Card, community []poker.Card, opponents, iterations int, rng *rand.Rand) (Result, error) {
	if len(hole) != 2 {
		return Result{}, fmt.Errorf("equity: need exactly 2 hole cards, got %d", len(hole))
	}
	if len(community) > 5 {
		return Result{}, fmt.Errorf("equity: at most 5 community cards, got %d", len(community))
	}
	if opponents < 1 {
		return Result{}, fmt.Errorf("equity: need at least 1 opponent, got %d", opponents)
	}
	if iterations < 1 {
		return Result{}, fmt.Errorf("equity: need at least 1 iteration, got %d", iterations)
	}

	remainder := remainingCards(hole, community)
	needed := 2*opponents + (5 - len(community))
	if needed > len(remainder) {
		return Result{}, fmt.Errorf("equity: %d opponents need %d cards, only %d remain", opponents, needed, len(remainder))
	}

	if iterations < parallelThreshold {
		result := simulate(hole, community, remainder, opponents, iterations, rng)
		return finalize(result), nil
	}
	return estimateParallel(hole, community, remainder, opponents, iterations, rng)
}

func estimateParallel(hole, community, remainder []poker.Card, opponents, iterations int, rng *rand.Rand) (Result, error) {
	workers := maxWorkers
	perWorker := iterations / workers
	extra := iterations % workers

	// Seeds are drawn from the parent RNG up front, in worker order, so
	// the run is deterministic regardless of scheduling.
	seeds := make([]int64, workers)
	for w := range seeds {
		seeds[w] = rng.Int63()
	}

	results := make([]Result, workers)
	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		n := perWorker
		if w < extra {
			n++
		}
		g.Go(func() error {
			workerRng := rand.New(rand.NewSource(seeds[w]))
			workerRemainder := append([]poker.Card(nil), remainder...)
			results[w] = simulate(hole, community, workerRemainder, opponents, n, workerRng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var total Result
	for _, r := range results {
		total.Wins += r.Wins
		total.Ties += r.Ties
		total.Losses += r.Losses
		total.Iterations += r.Iterations
	}
	return finalize(total), nil
}

// simulate runs the Monte Carlo loop. Each iteration partially shuffles
// the remainder, deals two cards per opponent, completes the board to
// five cards and compares best hands. The remainder slice is reordered in
// place between iterations; ownership passes to the callee.
func simulate(hole, community, remainder []poker.Card, opponents, iterations int, rng *rand.Rand) Result {
	needed := 2*opponents + (5 - len(community))
	board := make([]poker.Card, 0, 7)
	heroCards := make([]poker.Card, 0, 7)
	oppCards := make([]poker.Card, 0, 7)

	result := Result{Iterations: iterations}
	for i := 0; i < iterations; i++ {
		// Partial Fisher-Yates: only the first `needed` positions matter.
		for j := 0; j < needed; j++ {
			k := j + rng.Intn(len(remainder)-j)
			remainder[j], remainder[k] = remainder[k], remainder[j]
		}

		board = append(board[:0], community...)
		board = append(board, remainder[2*opponents:needed]...)

		heroCards = append(heroCards[:0], hole...)
		heroCards = append(heroCards, board...)
		hero, err := poker.EvaluateBest(heroCards)
		if err != nil {
			continue
		}

		beaten := false
		tied := false
		for o := 0; o < opponents; o++ {
			oppCards = append(oppCards[:0], remainder[2*o], remainder[2*o+1])
			oppCards = append(oppCards, board...)
			opp, err := poker.EvaluateBest(oppCards)
			if err != nil {
				continue
			}
			switch opp.Compare(hero) {
			case 1:
				beaten = true
			case 0:
				tied = true
			}
			if beaten {
				break
			}
		}

		switch {
		case beaten:
			result.Losses++
		case tied:
			result.Ties++
		default:
			result.Wins++
		}
	}
	return result
}

func finalize(r Result) Result {
	if r.Iterations > 0 {
		r.WinRate = (float64(r.Wins) + float64(r.Ties)/2) / float64(r.Iterations) * 100
	}
	return r
}

// remainingCards returns the 52-card deck minus the known cards.
func remainingCards(hole, community []poker.Card) []poker.Card {
	used := make(map[poker.Card]bool, len(hole)+len(community))
	for _, c := range hole {
		used[c] = true
	}
	for _, c := range community {
		used[c] = true
	}
	remainder := make([]poker.Card, 0, 52)
	for _, c := range poker.FullDeck() {
		if !used[c] {
			remainder = append(remainder, c)
		}
	}
	return remainder
}
