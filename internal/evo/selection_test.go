package evo

import (
	"math/rand"
	"testing"

	"bitsearch/internal/genome"
)

func populationWithErrors(errs ...int) Population {
	pop := make(Population, len(errs))
	for i, e := range errs {
		pop[i] = genome.Individual{Error: e}
	}
	return pop
}

func TestTournamentSelectorSizeOneIsUniform(t *testing.T) {
	pop := populationWithErrors(50, 40, 30, 20, 10)
	selector := TournamentSelector{Size: 1}
	rng := rand.New(rand.NewSource(5))

	const draws = 10000
	counts := make([]int, len(pop))
	for i := 0; i < draws; i++ {
		idx, err := selector.Select(rng, pop)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		counts[idx]++
	}
	expected := draws / len(pop)
	for i, c := range counts {
		if c < expected*8/10 || c > expected*12/10 {
			t.Fatalf("index %d drawn %d times, expected about %d: %v", i, c, expected, counts)
		}
	}
}

func TestTournamentSelectorLargeSizeFavorsGlobalBest(t *testing.T) {
	pop := populationWithErrors(50, 40, 3, 20, 10, 70, 60, 80)
	selector := TournamentSelector{Size: 40}
	rng := rand.New(rand.NewSource(9))

	hits := 0
	for i := 0; i < 200; i++ {
		idx, err := selector.Select(rng, pop)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if idx == 2 {
			hits++
		}
	}
	if hits < 195 {
		t.Fatalf("expected the global best almost always, got %d/200", hits)
	}
}

func TestTournamentSelectorKeepsFirstDrawnOnTies(t *testing.T) {
	pop := populationWithErrors(7, 7, 7, 7, 7, 7)
	selector := TournamentSelector{Size: 4}

	const seed = 21
	rng := rand.New(rand.NewSource(seed))
	replay := rand.New(rand.NewSource(seed))
	for i := 0; i < 50; i++ {
		idx, err := selector.Select(rng, pop)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		first := replay.Intn(len(pop))
		for j := 1; j < selector.Size; j++ {
			replay.Intn(len(pop))
		}
		if idx != first {
			t.Fatalf("draw %d: expected first drawn index %d, got %d", i, first, idx)
		}
	}
}

func TestTournamentSelectorRejectsInvalidInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := (TournamentSelector{Size: 2}).Select(rng, nil); err == nil {
		t.Fatal("expected error for empty population")
	}
	if _, err := (TournamentSelector{Size: 0}).Select(rng, populationWithErrors(1)); err == nil {
		t.Fatal("expected error for tournament size 0")
	}
	if _, err := (TournamentSelector{Size: 2}).Select(nil, populationWithErrors(1)); err == nil {
		t.Fatal("expected error for missing random source")
	}
}
