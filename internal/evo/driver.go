package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"bitsearch/internal/genome"
)

const (
	DefaultGenerations    = 100
	DefaultPopulationSize = 40
	DefaultMutationRate   = 0.05
	DefaultTournamentSize = 5
)

var (
	// ErrInvalidConfig marks run parameters rejected before any allocation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvariant marks a population that failed a transition check.
	ErrInvariant = errors.New("population invariant violated")
)

type Config struct {
	Generations    int
	PopulationSize int
	MutationRate   float64
	TournamentSize int
	Seed           int64

	// CheckInvariants verifies size and cache coherence after every
	// generation swap.
	CheckInvariants bool
}

func DefaultConfig() Config {
	return Config{
		Generations:    DefaultGenerations,
		PopulationSize: DefaultPopulationSize,
		MutationRate:   DefaultMutationRate,
		TournamentSize: DefaultTournamentSize,
	}
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("%w: generations must be > 0, got %d", ErrInvalidConfig, c.Generations)
	}
	if math.IsNaN(c.MutationRate) || c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1], got %v", ErrInvalidConfig, c.MutationRate)
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("%w: tournament size must be >= 1, got %d", ErrInvalidConfig, c.TournamentSize)
	}
	return nil
}

// Best is the lowest-error individual observed so far and the 1-based
// generation in which it was first seen.
type Best struct {
	genome.Individual
	Generation int
}

type GenerationReport struct {
	Generation  int
	Best        genome.Individual
	Diagnostics GenerationDiagnostics
}

type Result struct {
	Best           Best
	GenerationsRun int
	Evaluations    int
	Solved         bool
	History        []GenerationDiagnostics
}

// Reporter consumes per-generation summaries and the final result.
type Reporter interface {
	Generation(report GenerationReport)
	Final(result Result)
}

type NopReporter struct{}

func (NopReporter) Generation(GenerationReport) {}
func (NopReporter) Final(Result)                {}

// Driver runs the generational loop. A driver owns its random source; it is
// not safe for concurrent use.
type Driver struct {
	cfg      Config
	rng      *rand.Rand
	selector TournamentSelector
	reporter Reporter
}

func NewDriver(cfg Config, reporter Reporter) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Driver{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		selector: TournamentSelector{Size: cfg.TournamentSize},
		reporter: reporter,
	}, nil
}

func (d *Driver) Config() Config {
	return d.cfg
}

// Run evolves a freshly initialized random population.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	return d.RunPopulation(ctx, InitPopulation(d.rng, d.cfg.PopulationSize))
}

// RunPopulation evolves the given starting population until an individual
// with zero error is found or the generation budget is spent. The initial
// slice is copied; callers keep ownership of it.
func (d *Driver) RunPopulation(ctx context.Context, initial Population) (Result, error) {
	n := d.cfg.PopulationSize
	if err := initial.Verify(n); err != nil {
		return Result{}, fmt.Errorf("initial population: %w", err)
	}

	current := make(Population, n)
	copy(current, initial)
	next := make(Population, n)

	best := Best{Individual: current[current.BestIndex()], Generation: 1}
	result := Result{
		Evaluations: n,
		History:     make([]GenerationDiagnostics, 0, d.cfg.Generations),
	}

	for gen := 0; gen < d.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		leader := current[current.BestIndex()]
		diag := Diagnose(current, gen+1)
		result.History = append(result.History, diag)
		result.GenerationsRun = gen + 1
		d.reporter.Generation(GenerationReport{Generation: gen + 1, Best: leader, Diagnostics: diag})

		if leader.Error < best.Error {
			best = Best{Individual: leader, Generation: gen + 1}
		}
		if best.Error == 0 {
			break
		}

		if err := d.breed(current, next); err != nil {
			return Result{}, err
		}
		result.Evaluations += n
		current, next = next, current

		if d.cfg.CheckInvariants {
			if err := current.Verify(n); err != nil {
				return Result{}, fmt.Errorf("generation %d: %w", gen+1, err)
			}
		}
	}

	result.Best = best
	result.Solved = best.Error == 0
	d.reporter.Final(result)
	return result, nil
}

// breed overwrites every slot of next with offspring of current. Children
// are produced in pairs; with an odd size the last pair's second child is
// dropped without being evaluated.
func (d *Driver) breed(current, next Population) error {
	n := len(next)
	for i := 0; i < n; i += 2 {
		a, err := d.selector.Select(d.rng, current)
		if err != nil {
			return err
		}
		b, err := d.selector.Select(d.rng, current)
		if err != nil {
			return err
		}

		c1, c2 := Crossover(d.rng, current[a].Genome, current[b].Genome)
		c1 = Mutate(d.rng, c1, d.cfg.MutationRate)
		c2 = Mutate(d.rng, c2, d.cfg.MutationRate)

		next[i] = genome.NewIndividual(c1)
		if i+1 < n {
			next[i+1] = genome.NewIndividual(c2)
		}
	}
	return nil
}
