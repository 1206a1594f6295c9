package evo

import (
	"fmt"
	"math/rand"

	"bitsearch/internal/genome"
)

// Population is an ordered set of scored individuals. Order carries no
// meaning beyond tie-breaking, which always favors the lower index.
type Population []genome.Individual

// InitPopulation draws n random genomes from rng and evaluates each one.
func InitPopulation(rng *rand.Rand, n int) Population {
	pop := make(Population, n)
	for i := range pop {
		pop[i] = genome.NewIndividual(genome.Random(rng))
	}
	return pop
}

// BestIndex returns the index of the minimum-error individual, keeping the
// first one on ties. It returns -1 for an empty population.
func (p Population) BestIndex() int {
	if len(p) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i].Error < p[best].Error {
			best = i
		}
	}
	return best
}

// Verify checks the population has size n and that every cached error
// matches its genome.
func (p Population) Verify(n int) error {
	if len(p) != n {
		return fmt.Errorf("%w: population size %d, want %d", ErrInvariant, len(p), n)
	}
	for i, ind := range p {
		if !ind.Coherent() {
			return fmt.Errorf("%w: individual %d caches error %d, genome %s evaluates to %d",
				ErrInvariant, i, ind.Error, ind.Genome, genome.Evaluate(ind.Genome))
		}
	}
	return nil
}
