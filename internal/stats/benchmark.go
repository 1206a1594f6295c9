package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bitsearch/internal/model"
)

const benchmarksDir = "benchmarks"

// BenchmarkRun is one seeded run of a benchmark.
type BenchmarkRun struct {
	RunID           string `json:"run_id"`
	Seed            int64  `json:"seed"`
	Evaluations     int    `json:"evaluations"`
	Solved          bool   `json:"solved"`
	FoundGeneration int    `json:"found_generation"`
	BestError       int    `json:"best_error"`
}

// BenchmarkStats aggregates a set of runs. Evaluation figures cover solved
// runs only and stay zero when none solved.
type BenchmarkStats struct {
	TotalRuns      int            `json:"total_runs"`
	SuccessRuns    int            `json:"success_runs"`
	SuccessRate    float64        `json:"success_rate"`
	AvgEvaluations float64        `json:"avg_evaluations"`
	StdEvaluations float64        `json:"std_evaluations"`
	MinEvaluations float64        `json:"min_evaluations"`
	MaxEvaluations float64        `json:"max_evaluations"`
	MeanBestError  float64        `json:"mean_best_error"`
	Runs           []BenchmarkRun `json:"runs"`
}

type BenchmarkReport struct {
	ID          string          `json:"id"`
	GeneratedAt string          `json:"generated_at_utc"`
	Config      model.RunConfig `json:"config"`
	Stats       BenchmarkStats  `json:"stats"`
}

func BuildBenchmarkStats(runs []BenchmarkRun) BenchmarkStats {
	result := BenchmarkStats{
		TotalRuns: len(runs),
		Runs:      append([]BenchmarkRun(nil), runs...),
	}
	if len(runs) == 0 {
		return result
	}

	bestErrors := make([]float64, 0, len(runs))
	solvedEvaluations := make([]float64, 0, len(runs))
	for _, run := range runs {
		bestErrors = append(bestErrors, float64(run.BestError))
		if run.Solved {
			result.SuccessRuns++
			solvedEvaluations = append(solvedEvaluations, float64(run.Evaluations))
		}
	}
	result.SuccessRate = float64(result.SuccessRuns) / float64(result.TotalRuns)
	result.MeanBestError = stat.Mean(bestErrors, nil)
	if len(solvedEvaluations) > 0 {
		result.AvgEvaluations = stat.Mean(solvedEvaluations, nil)
		if len(solvedEvaluations) > 1 {
			result.StdEvaluations = stat.StdDev(solvedEvaluations, nil)
		}
		result.MinEvaluations = floats.Min(solvedEvaluations)
		result.MaxEvaluations = floats.Max(solvedEvaluations)
	}
	return result
}

// WriteBenchmarkReport stores report under <baseDir>/benchmarks and returns
// the file path.
func WriteBenchmarkReport(baseDir string, report BenchmarkReport) (string, error) {
	if report.ID == "" {
		return "", fmt.Errorf("benchmark id is required")
	}
	dir := filepath.Join(baseDir, benchmarksDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if report.GeneratedAt == "" {
		report.GeneratedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	path := benchmarkReportPath(baseDir, report.ID)
	if err := writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

func ReadBenchmarkReport(baseDir, id string) (BenchmarkReport, bool, error) {
	var report BenchmarkReport
	ok, err := readJSON(benchmarkReportPath(baseDir, id), &report)
	if err != nil || !ok {
		return BenchmarkReport{}, ok, err
	}
	return report, true, nil
}

func benchmarkReportPath(baseDir, id string) string {
	return filepath.Join(baseDir, benchmarksDir, id+".json")
}
