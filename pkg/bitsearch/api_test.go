package bitsearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bitsearch/internal/evo"
	"bitsearch/internal/stats"
)

type countingReporter struct {
	generations int
	finals      int
}

func (r *countingReporter) Generation(evo.GenerationReport) { r.generations++ }
func (r *countingReporter) Final(evo.Result)                { r.finals++ }

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.StoreKind == "" {
		opts.StoreKind = "memory"
	}
	if opts.ArtifactsDir == "" && !opts.NoArtifacts {
		opts.ArtifactsDir = filepath.Join(t.TempDir(), "runs")
	}
	client, err := New(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunRecordsArtifactsAndStore(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, Options{})

	req := DefaultRunRequest()
	req.Generations = 12
	req.Population = 10
	req.Seed = 5
	req.RunID = "run-a"
	req.PlotPath = filepath.Join(t.TempDir(), "convergence.png")
	reporter := &countingReporter{}

	summary, err := client.Run(ctx, req, reporter)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-a" || summary.Seed != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if reporter.generations != summary.Result.GenerationsRun || reporter.finals != 1 {
		t.Fatalf("reporter saw %d generations and %d finals", reporter.generations, reporter.finals)
	}
	for _, path := range []string{
		filepath.Join(summary.ArtifactsDir, "config.json"),
		filepath.Join(summary.ArtifactsDir, "generation_diagnostics.json"),
		summary.PlotPath,
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
	}

	detail, err := client.Show(ctx, ShowRequest{RunID: "run-a"})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if detail.Run.BestError != summary.Result.Best.Error || detail.Run.BestGenome != summary.Result.Best.Genome.String() {
		t.Fatalf("stored run does not match result: %+v", detail.Run)
	}
	if detail.Run.FoundGeneration != summary.Result.Best.Generation {
		t.Fatalf("expected found generation %d, got %d", summary.Result.Best.Generation, detail.Run.FoundGeneration)
	}
	if len(detail.Diagnostics) != summary.Result.GenerationsRun {
		t.Fatalf("expected %d diagnostics, got %d", summary.Result.GenerationsRun, len(detail.Diagnostics))
	}

	items, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(items) != 1 || items[0].RunID != "run-a" || items[0].Seed != 5 {
		t.Fatalf("unexpected runs: %+v", items)
	}
}

func TestClientShowFallsBackToArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "runs")

	writer := newTestClient(t, Options{ArtifactsDir: dir})
	req := DefaultRunRequest()
	req.Generations = 3
	req.Seed = 8
	summary, err := writer.Run(ctx, req, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	reader := newTestClient(t, Options{ArtifactsDir: dir})
	detail, err := reader.Show(ctx, ShowRequest{Latest: true})
	if err != nil {
		t.Fatalf("show latest: %v", err)
	}
	if detail.Run.ID != summary.RunID {
		t.Fatalf("expected run %s, got %s", summary.RunID, detail.Run.ID)
	}

	if _, err := reader.Show(ctx, ShowRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected missing run error")
	}
	if _, err := reader.Show(ctx, ShowRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected conflicting selector error")
	}
}

func TestClientRunsFromStoreWithoutArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, Options{NoArtifacts: true})

	for i := 0; i < 3; i++ {
		req := DefaultRunRequest()
		req.Generations = 2
		req.Seed = int64(i + 1)
		summary, err := client.Run(ctx, req, nil)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if summary.ArtifactsDir != "" {
			t.Fatalf("expected no artifacts, got %s", summary.ArtifactsDir)
		}
	}

	items, err := client.Runs(ctx, RunsRequest{Limit: 2})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(items))
	}
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client := newTestClient(t, Options{})
	req := DefaultRunRequest()
	req.Population = 0

	_, err := client.Run(context.Background(), req, nil)
	if !errors.Is(err, evo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	items, err := client.Runs(context.Background(), RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("rejected run must not be recorded: %+v", items)
	}
}

func TestClientRunAssignsWallClockSeed(t *testing.T) {
	client := newTestClient(t, Options{NoArtifacts: true})
	req := DefaultRunRequest()
	req.Generations = 1

	summary, err := client.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Seed == 0 {
		t.Fatal("expected a non-zero seed to be recorded")
	}
	if summary.RunID == "" {
		t.Fatal("expected a generated run id")
	}
}

func TestEvaluate(t *testing.T) {
	result, err := Evaluate("010001000000010000000000000011")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.WeightedSum != 1977 || result.Error != 0 {
		t.Fatalf("unexpected evaluation: %+v", result)
	}
	if _, err := Evaluate("012"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestClientBenchmarkRunsConsecutiveSeeds(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, Options{})

	req := DefaultRunRequest()
	req.Generations = 8
	req.Population = 10
	req.Seed = 40
	var seen []stats.BenchmarkRun
	summary, err := client.Benchmark(ctx, BenchmarkRequest{ID: "bench", Run: req, Runs: 3}, func(run stats.BenchmarkRun) {
		seen = append(seen, run)
	})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if summary.ID != "bench" || summary.Stats.TotalRuns != 3 || len(seen) != 3 {
		t.Fatalf("unexpected benchmark summary: %+v", summary)
	}
	for i, run := range seen {
		if run.Seed != int64(40+i) {
			t.Fatalf("run %d: expected seed %d, got %d", i, 40+i, run.Seed)
		}
		if run.Evaluations <= 0 || run.FoundGeneration < 1 {
			t.Fatalf("run %d: unexpected result %+v", i, run)
		}
	}
	if seen[0].RunID != "bench-run-001" {
		t.Fatalf("unexpected run id: %s", seen[0].RunID)
	}
	if summary.ReportPath == "" {
		t.Fatal("expected a benchmark report")
	}
	if _, err := os.Stat(summary.ReportPath); err != nil {
		t.Fatalf("expected report file: %v", err)
	}

	items, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected each benchmark run to be recorded, got %d", len(items))
	}
}

func TestClientBenchmarkRejectsInvalidRequest(t *testing.T) {
	client := newTestClient(t, Options{NoArtifacts: true})
	if _, err := client.Benchmark(context.Background(), BenchmarkRequest{Run: DefaultRunRequest()}, nil); !errors.Is(err, evo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for zero runs, got %v", err)
	}
	bad := DefaultRunRequest()
	bad.TournamentSize = 0
	if _, err := client.Benchmark(context.Background(), BenchmarkRequest{Run: bad, Runs: 2}, nil); !errors.Is(err, evo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad run config, got %v", err)
	}
}
