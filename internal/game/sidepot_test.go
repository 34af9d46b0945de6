package game

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestCalculateSidePotsThreeTiers(t *testing.T) {
	t.Parallel()

	pots := CalculateSidePots([]Contribution{
		{PlayerID: "a", Amount: 100},
		{PlayerID: "b", Amount: 200},
		{PlayerID: "c", Amount: 300},
	})

	want := []SidePot{
		{Amount: 300, Eligible: []string{"a", "b", "c"}},
		{Amount: 200, Eligible: []string{"b", "c"}},
		{Amount: 100, Eligible: []string{"c"}},
	}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("got %+v, want %+v", pots, want)
	}
}

func TestCalculateSidePotsSingleLayer(t *testing.T) {
	t.Parallel()

	pots := CalculateSidePots([]Contribution{
		{PlayerID: "a", Amount: 50},
		{PlayerID: "b", Amount: 50},
		{PlayerID: "c", Amount: 50},
	})

	if len(pots) != 1 {
		t.Fatalf("expected single pot, got %d", len(pots))
	}
	if pots[0].Amount != 150 {
		t.Errorf("expected 150, got %d", pots[0].Amount)
	}
	if len(pots[0].Eligible) != 3 {
		t.Errorf("expected 3 eligible, got %d", len(pots[0].Eligible))
	}
}

func TestCalculateSidePotsIgnoresZeroContributions(t *testing.T) {
	t.Parallel()

	pots := CalculateSidePots([]Contribution{
		{PlayerID: "a", Amount: 0},
		{PlayerID: "b", Amount: 40},
	})

	want := []SidePot{{Amount: 40, Eligible: []string{"b"}}}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("got %+v, want %+v", pots, want)
	}
}

func TestCalculateSidePotsConservesChips(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	ids := []string{"a", "b", "c", "d", "e", "f"}

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(5)
		contributions := make([]Contribution, n)
		total := 0
		for i := 0; i < n; i++ {
			amount := rng.Intn(500)
			contributions[i] = Contribution{PlayerID: ids[i], Amount: amount}
			total += amount
		}

		sum := 0
		for _, pot := range CalculateSidePots(contributions) {
			sum += pot.Amount
		}
		if sum != total {
			t.Fatalf("trial %d: pots sum to %d, contributions sum to %d", trial, sum, total)
		}
	}
}
