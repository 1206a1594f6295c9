package evo

import (
	"fmt"
	"math/rand"
)

// TournamentSelector samples Size individuals with replacement and picks the
// one with the lowest error.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

// Select returns the index of the tournament winner. The first drawn
// individual wins ties, so a fixed seed always yields the same index.
func (s TournamentSelector) Select(rng *rand.Rand, pop Population) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(pop) == 0 {
		return 0, fmt.Errorf("cannot select from an empty population")
	}
	if s.Size < 1 {
		return 0, fmt.Errorf("invalid tournament size: %d", s.Size)
	}

	best := rng.Intn(len(pop))
	for i := 1; i < s.Size; i++ {
		candidate := rng.Intn(len(pop))
		if pop[candidate].Error < pop[best].Error {
			best = candidate
		}
	}
	return best, nil
}
