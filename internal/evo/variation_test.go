package evo

import (
	"math/rand"
	"testing"

	"bitsearch/internal/genome"
)

func TestCrossoverAtIsSelfInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	for cut := 1; cut < genome.Length; cut++ {
		p1, p2 := genome.Random(rng), genome.Random(rng)
		c1, c2 := CrossoverAt(p1, p2, cut)
		r1, r2 := CrossoverAt(c1, c2, cut)
		if r1 != p1 || r2 != p2 {
			t.Fatalf("cut %d: crossover is not its own inverse", cut)
		}
	}
}

func TestCrossoverAtSplitsAtCut(t *testing.T) {
	var zeros genome.Genome
	ones := zeros.Complement()

	c1, c2 := CrossoverAt(zeros, ones, 10)
	for i := 0; i < genome.Length; i++ {
		want1, want2 := byte(0), byte(1)
		if i >= 10 {
			want1, want2 = 1, 0
		}
		if c1[i] != want1 || c2[i] != want2 {
			t.Fatalf("gene %d: got c1=%d c2=%d", i, c1[i], c2[i])
		}
	}
}

func TestCrossoverAtRejectsOutOfRangeCut(t *testing.T) {
	for _, cut := range []int{0, genome.Length} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic for cut %d", cut)
				}
			}()
			CrossoverAt(genome.Genome{}, genome.Genome{}, cut)
		}()
	}
}

func TestCrossoverChildrenInheritFromBothParents(t *testing.T) {
	var zeros genome.Genome
	ones := zeros.Complement()
	rng := rand.New(rand.NewSource(4))

	for i := 0; i < 1000; i++ {
		c1, c2 := Crossover(rng, zeros, ones)
		if c1[0] != 0 || c1[genome.Length-1] != 1 {
			t.Fatalf("child1 must start with parent1 and end with parent2: %s", c1)
		}
		if c2[0] != 1 || c2[genome.Length-1] != 0 {
			t.Fatalf("child2 must start with parent2 and end with parent1: %s", c2)
		}
		if c1.Complement() != c2 {
			t.Fatalf("children of complementary parents must be complementary: %s %s", c1, c2)
		}
	}
}

func TestMutateZeroProbabilityIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 100; i++ {
		g := genome.Random(rng)
		if got := Mutate(rng, g, 0); got != g {
			t.Fatalf("expected identity, got %s from %s", got, g)
		}
	}
}

func TestMutateFullProbabilityComplements(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 100; i++ {
		g := genome.Random(rng)
		if got := Mutate(rng, g, 1); got != g.Complement() {
			t.Fatalf("expected complement of %s, got %s", g, got)
		}
	}
}

func TestMutateDoesNotAliasInput(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var g genome.Genome
	before := g
	mutated := Mutate(rng, g, 1)
	if g != before {
		t.Fatal("input genome was modified")
	}
	mutated[0] = 0
	if g != before {
		t.Fatal("mutated genome aliases the input")
	}
}

func TestMutateRateIsRoughlyHonored(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	var g genome.Genome
	flipped := 0
	const rounds = 2000
	for i := 0; i < rounds; i++ {
		for _, bit := range Mutate(rng, g, 0.05) {
			flipped += int(bit)
		}
	}
	expected := rounds * genome.Length / 20
	if flipped < expected*8/10 || flipped > expected*12/10 {
		t.Fatalf("flipped %d genes, expected about %d", flipped, expected)
	}
}
