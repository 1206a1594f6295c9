package bitsearch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bitsearch/internal/evo"
	"bitsearch/internal/genome"
	"bitsearch/internal/model"
	"bitsearch/internal/stats"
	"bitsearch/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "bitsearch.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	// NoArtifacts skips writing run directories and the run index.
	NoArtifacts bool
}

type Client struct {
	store       storage.Store
	initialized bool

	artifactsDir string
	noArtifacts  bool
}

// RunRequest carries the four run parameters plus bookkeeping. A zero Seed
// is replaced by a wall-clock seed, which is reported back in RunSummary.
type RunRequest struct {
	RunID           string
	Generations     int
	Population      int
	MutationRate    float64
	TournamentSize  int
	Seed            int64
	PlotPath        string
	CheckInvariants bool
}

func DefaultRunRequest() RunRequest {
	return RunRequest{
		Generations:    evo.DefaultGenerations,
		Population:     evo.DefaultPopulationSize,
		MutationRate:   evo.DefaultMutationRate,
		TournamentSize: evo.DefaultTournamentSize,
	}
}

type RunSummary struct {
	RunID        string
	Seed         int64
	ArtifactsDir string
	PlotPath     string
	Elapsed      time.Duration
	Result       evo.Result
}

// BenchmarkRequest repeats Run with seeds Run.Seed, Run.Seed+1, ...
type BenchmarkRequest struct {
	ID   string
	Run  RunRequest
	Runs int
}

type BenchmarkSummary struct {
	ID         string
	ReportPath string
	Stats      stats.BenchmarkStats
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	Seed            int64
	Population      int
	Generations     int
	MutationRate    float64
	TournamentSize  int
	BestError       int
	FoundGeneration int
	Solved          bool
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type RunDetail struct {
	Run         model.RunRecord
	Diagnostics []model.GenerationDiagnostics
}

type Evaluation struct {
	Genome      genome.Genome
	WeightedSum int
	Error       int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		noArtifacts:  opts.NoArtifacts,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run executes one search. Invalid parameters are rejected with an error
// wrapping evo.ErrInvalidConfig before anything is allocated or recorded.
func (c *Client) Run(ctx context.Context, req RunRequest, reporter evo.Reporter) (RunSummary, error) {
	cfg := evo.Config{
		Generations:     req.Generations,
		PopulationSize:  req.Population,
		MutationRate:    req.MutationRate,
		TournamentSize:  req.TournamentSize,
		Seed:            req.Seed,
		CheckInvariants: req.CheckInvariants,
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	driver, err := evo.NewDriver(cfg, reporter)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	start := time.Now()
	result, err := driver.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	elapsed := time.Since(start)

	run := storage.StampRun(model.RunRecord{
		ID: runID,
		Config: model.RunConfig{
			Generations:    cfg.Generations,
			PopulationSize: cfg.PopulationSize,
			MutationRate:   cfg.MutationRate,
			TournamentSize: cfg.TournamentSize,
			Seed:           cfg.Seed,
		},
		BestGenome:      result.Best.Genome.String(),
		BestError:       result.Best.Error,
		FoundGeneration: result.Best.Generation,
		GenerationsRun:  result.GenerationsRun,
		Evaluations:     result.Evaluations,
		Solved:          result.Solved,
		ElapsedMS:       elapsed.Milliseconds(),
		CreatedAtUTC:    start.UTC().Format(time.RFC3339Nano),
	})
	diagnostics := modelDiagnostics(result.History)

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics %s: %w", runID, err)
	}

	summary := RunSummary{
		RunID:   runID,
		Seed:    cfg.Seed,
		Elapsed: elapsed,
		Result:  result,
	}
	if !c.noArtifacts {
		runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{Run: run, Diagnostics: diagnostics})
		if err != nil {
			return RunSummary{}, err
		}
		if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntryFor(run)); err != nil {
			return RunSummary{}, err
		}
		summary.ArtifactsDir = filepath.Clean(runDir)
	}
	if req.PlotPath != "" {
		if err := stats.WriteConvergencePlot(req.PlotPath, "run "+runID, diagnostics); err != nil {
			return RunSummary{}, fmt.Errorf("write plot: %w", err)
		}
		summary.PlotPath = filepath.Clean(req.PlotPath)
	}
	return summary, nil
}

// Benchmark records every run like Run does and aggregates the results.
// onRun, when set, is called after each completed run.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest, onRun func(stats.BenchmarkRun)) (BenchmarkSummary, error) {
	if req.Runs <= 0 {
		return BenchmarkSummary{}, fmt.Errorf("%w: benchmark runs must be > 0", evo.ErrInvalidConfig)
	}
	base := req.Run
	if err := (evo.Config{
		Generations:    base.Generations,
		PopulationSize: base.Population,
		MutationRate:   base.MutationRate,
		TournamentSize: base.TournamentSize,
	}).Validate(); err != nil {
		return BenchmarkSummary{}, err
	}
	if base.Seed == 0 {
		base.Seed = time.Now().UnixNano()
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	runs := make([]stats.BenchmarkRun, 0, req.Runs)
	for i := 0; i < req.Runs; i++ {
		runReq := base
		runReq.RunID = fmt.Sprintf("%s-run-%03d", id, i+1)
		runReq.Seed = base.Seed + int64(i)
		runReq.PlotPath = ""
		summary, err := c.Run(ctx, runReq, nil)
		if err != nil {
			return BenchmarkSummary{}, fmt.Errorf("benchmark run %d: %w", i+1, err)
		}
		run := stats.BenchmarkRun{
			RunID:           summary.RunID,
			Seed:            summary.Seed,
			Evaluations:     summary.Result.Evaluations,
			Solved:          summary.Result.Solved,
			FoundGeneration: summary.Result.Best.Generation,
			BestError:       summary.Result.Best.Error,
		}
		runs = append(runs, run)
		if onRun != nil {
			onRun(run)
		}
	}

	out := BenchmarkSummary{ID: id, Stats: stats.BuildBenchmarkStats(runs)}
	if !c.noArtifacts {
		path, err := stats.WriteBenchmarkReport(c.artifactsDir, stats.BenchmarkReport{
			ID: id,
			Config: model.RunConfig{
				Generations:    base.Generations,
				PopulationSize: base.Population,
				MutationRate:   base.MutationRate,
				TournamentSize: base.TournamentSize,
				Seed:           base.Seed,
			},
			Stats: out.Stats,
		})
		if err != nil {
			return BenchmarkSummary{}, err
		}
		out.ReportPath = filepath.Clean(path)
	}
	return out, nil
}

// Runs lists recorded runs newest first, from the artifact index or, when
// artifacts are disabled, from the store.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	var out []RunItem
	if c.noArtifacts {
		if err := c.ensureStore(ctx); err != nil {
			return nil, err
		}
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		for _, run := range runs {
			out = append(out, itemFromEntry(stats.IndexEntryFor(run)))
		}
	} else {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, itemFromEntry(e))
		}
	}

	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

// Show loads a run from the store, falling back to its artifacts on disk.
func (c *Client) Show(ctx context.Context, req ShowRequest) (RunDetail, error) {
	if req.RunID != "" && req.Latest {
		return RunDetail{}, errors.New("use either run id or latest")
	}

	runID := req.RunID
	if req.Latest {
		items, err := c.Runs(ctx, RunsRequest{Limit: 1})
		if err != nil {
			return RunDetail{}, err
		}
		if len(items) == 0 {
			return RunDetail{}, errors.New("no runs available")
		}
		runID = items[0].RunID
	}
	if runID == "" {
		return RunDetail{}, errors.New("show requires run id or latest")
	}

	if err := c.ensureStore(ctx); err != nil {
		return RunDetail{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if ok {
		diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, runID)
		if err != nil {
			return RunDetail{}, err
		}
		return RunDetail{Run: run, Diagnostics: diagnostics}, nil
	}

	if !c.noArtifacts {
		artifacts, ok, err := stats.ReadRunArtifacts(c.artifactsDir, runID)
		if err != nil {
			return RunDetail{}, err
		}
		if ok {
			return RunDetail{Run: artifacts.Run, Diagnostics: artifacts.Diagnostics}, nil
		}
	}
	return RunDetail{}, fmt.Errorf("run not found: %s", runID)
}

// Evaluate scores a bit string written in genome order.
func Evaluate(bits string) (Evaluation, error) {
	g, err := genome.Parse(bits)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Genome: g, WeightedSum: genome.WeightedSum(g), Error: genome.Evaluate(g)}, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func modelDiagnostics(history []evo.GenerationDiagnostics) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, 0, len(history))
	for _, diag := range history {
		out = append(out, model.GenerationDiagnostics{
			Generation:      diag.Generation,
			BestError:       diag.BestError,
			MeanError:       diag.MeanError,
			ErrorStdDev:     diag.ErrorStdDev,
			WorstError:      diag.WorstError,
			DistinctGenomes: diag.DistinctGenomes,
		})
	}
	return out
}

func itemFromEntry(e stats.RunIndexEntry) RunItem {
	return RunItem{
		RunID:           e.RunID,
		CreatedAtUTC:    e.CreatedAtUTC,
		Seed:            e.Seed,
		Population:      e.PopulationSize,
		Generations:     e.Generations,
		MutationRate:    e.MutationRate,
		TournamentSize:  e.TournamentSize,
		BestError:       e.BestError,
		FoundGeneration: e.FoundGeneration,
		Solved:          e.Solved,
	}
}
