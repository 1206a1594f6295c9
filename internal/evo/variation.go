package evo

import (
	"fmt"
	"math/rand"

	"bitsearch/internal/genome"
)

// Crossover recombines two parents at a cut point drawn uniformly from
// [1, genome.Length-1], so each child inherits at least one gene from both
// parents. Children are not evaluated.
func Crossover(rng *rand.Rand, p1, p2 genome.Genome) (genome.Genome, genome.Genome) {
	cut := rng.Intn(genome.Length-1) + 1
	return CrossoverAt(p1, p2, cut)
}

// CrossoverAt is the one-point crossover with a fixed cut:
// c1 = p1[:cut] ++ p2[cut:] and c2 = p2[:cut] ++ p1[cut:].
func CrossoverAt(p1, p2 genome.Genome, cut int) (genome.Genome, genome.Genome) {
	if cut < 1 || cut > genome.Length-1 {
		panic(fmt.Sprintf("evo: crossover cut %d outside [1, %d]", cut, genome.Length-1))
	}
	c1, c2 := p1, p2
	copy(c1[cut:], p2[cut:])
	copy(c2[cut:], p1[cut:])
	return c1, c2
}

// Mutate returns a copy of g where each gene is flipped independently with
// probability prob.
func Mutate(rng *rand.Rand, g genome.Genome, prob float64) genome.Genome {
	for i := range g {
		if rng.Float64() < prob {
			g[i] = 1 - g[i]
		}
	}
	return g
}
