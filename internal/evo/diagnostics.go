package evo

import (
	"gonum.org/v1/gonum/stat"

	"bitsearch/internal/genome"
)

type GenerationDiagnostics struct {
	Generation      int     `json:"generation"`
	BestError       int     `json:"best_error"`
	MeanError       float64 `json:"mean_error"`
	ErrorStdDev     float64 `json:"error_std_dev"`
	WorstError      int     `json:"worst_error"`
	DistinctGenomes int     `json:"distinct_genomes"`
}

// Diagnose summarizes the error distribution and genome diversity of pop.
func Diagnose(pop Population, generation int) GenerationDiagnostics {
	if len(pop) == 0 {
		return GenerationDiagnostics{Generation: generation}
	}

	errs := make([]float64, len(pop))
	distinct := make(map[genome.Genome]struct{}, len(pop))
	best, worst := pop[0].Error, pop[0].Error
	for i, ind := range pop {
		errs[i] = float64(ind.Error)
		distinct[ind.Genome] = struct{}{}
		if ind.Error < best {
			best = ind.Error
		}
		if ind.Error > worst {
			worst = ind.Error
		}
	}

	diag := GenerationDiagnostics{
		Generation:      generation,
		BestError:       best,
		MeanError:       stat.Mean(errs, nil),
		WorstError:      worst,
		DistinctGenomes: len(distinct),
	}
	// The unbiased estimator is undefined for a single sample.
	if len(errs) > 1 {
		diag.ErrorStdDev = stat.StdDev(errs, nil)
	}
	return diag
}
