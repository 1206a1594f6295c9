// Package genome defines the fixed-length bit-vector searched by the
// optimizer and the objective it is scored against.
package genome

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	// Length is the number of bits in every genome.
	Length = 30
	// Target is the weighted bit-sum a perfect genome reaches.
	Target = 1977
)

// Genome is an ordered sequence of Length bits, each 0 or 1.
type Genome [Length]byte

// WeightedSum returns sum(g[i] * (i+1)^2).
func WeightedSum(g Genome) int {
	sum := 0
	for i, bit := range g {
		w := i + 1
		sum += int(bit) * w * w
	}
	return sum
}

// Evaluate returns the distance between the weighted sum and Target.
// Zero means g is a perfect solution.
func Evaluate(g Genome) int {
	diff := WeightedSum(g) - Target
	if diff < 0 {
		return -diff
	}
	return diff
}

// Random draws Length independent uniform bits from rng.
func Random(rng *rand.Rand) Genome {
	var g Genome
	for i := range g {
		g[i] = byte(rng.Intn(2))
	}
	return g
}

// Complement returns g with every bit flipped.
func (g Genome) Complement() Genome {
	for i := range g {
		g[i] = 1 - g[i]
	}
	return g
}

func (g Genome) String() string {
	var b strings.Builder
	b.Grow(Length)
	for _, bit := range g {
		if bit == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Parse converts a string of '0' and '1' characters in index order into a
// genome.
func Parse(s string) (Genome, error) {
	var g Genome
	if len(s) != Length {
		return g, fmt.Errorf("genome: expected %d bits, got %d", Length, len(s))
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			g[i] = 1
		default:
			return Genome{}, fmt.Errorf("genome: invalid character %q at position %d", s[i], i)
		}
	}
	return g, nil
}

// Individual pairs a genome with its error, computed once at construction.
type Individual struct {
	Genome Genome
	Error  int
}

// NewIndividual evaluates g and returns the scored individual.
func NewIndividual(g Genome) Individual {
	return Individual{Genome: g, Error: Evaluate(g)}
}

// Coherent reports whether the cached error still matches the genome.
func (ind Individual) Coherent() bool {
	return ind.Error == Evaluate(ind.Genome)
}
