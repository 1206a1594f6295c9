package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bitsearch/internal/evo"
	"bitsearch/internal/genome"
	"bitsearch/internal/report"
	"bitsearch/internal/stats"
	"bitsearch/internal/storage"
	"bitsearch/pkg/bitsearch"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCommand(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "bitsearchctl",
		Short:         "Search 30-bit combinations whose weighted square sum hits the target",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	pf.String("db-path", defaultDBPath, "sqlite database path")
	pf.String("artifacts-dir", defaultArtifactsDir, "directory for run artifacts and the run index")
	pf.Bool("no-artifacts", false, "skip run artifacts and the run index")

	root.AddCommand(newRunCommand(), newBenchmarkCommand(), newRunsCommand(), newShowCommand(), newEvalCommand())
	return root
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [generations [population [mutation [tournament]]]]",
		Short: "Run the genetic search",
		Args:  cobra.MaximumNArgs(len(positionalArgs)),
		RunE:  runSearch,
	}
	addSearchFlags(cmd)
	f := cmd.Flags()
	f.String("plot", "", "write a convergence chart (png) to this path")
	f.Bool("quiet", false, "only print the final summary")
	return cmd
}

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("gens", evo.DefaultGenerations, "number of generations")
	f.Int("pop", evo.DefaultPopulationSize, "population size")
	f.Float64("pmut", evo.DefaultMutationRate, "per-gene mutation probability")
	f.Int("k", evo.DefaultTournamentSize, "tournament size")
	f.Int64("seed", 0, "random seed; 0 picks a wall-clock seed")
	f.Bool("check-invariants", false, "verify the population after every generation")
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	client, err := bitsearch.New(s.options())
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out := cmd.OutOrStdout()
	req := s.runRequest()
	summary, err := client.Run(cmd.Context(), req, report.NewConsole(out, s.Quiet))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run completed run_id=%s pop=%d gens=%d pmut=%g k=%d seed=%d elapsed=%s\n",
		summary.RunID,
		req.Population,
		req.Generations,
		req.MutationRate,
		req.TournamentSize,
		summary.Seed,
		summary.Elapsed.Round(time.Millisecond),
	)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
	}
	if summary.PlotPath != "" {
		fmt.Fprintf(out, "plot=%s\n", summary.PlotPath)
	}
	return nil
}

func newBenchmarkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark [generations [population [mutation [tournament]]]]",
		Short: "Repeat the search over consecutive seeds and summarize",
		Args:  cobra.MaximumNArgs(len(positionalArgs)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			client, err := bitsearch.New(s.options())
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			out := cmd.OutOrStdout()
			index := 0
			summary, err := client.Benchmark(cmd.Context(), bitsearch.BenchmarkRequest{Run: s.runRequest(), Runs: s.Runs}, func(run stats.BenchmarkRun) {
				index++
				fmt.Fprintf(out, "run=%d run_id=%s seed=%d solved=%t best_error=%d found_generation=%d evaluations=%s\n",
					index,
					run.RunID,
					run.Seed,
					run.Solved,
					run.BestError,
					run.FoundGeneration,
					humanize.Comma(int64(run.Evaluations)),
				)
			})
			if err != nil {
				return err
			}
			st := summary.Stats
			fmt.Fprintf(out, "benchmark completed id=%s runs=%d solved=%d success_rate=%.2f avg_evaluations=%.1f std_evaluations=%.1f mean_best_error=%.2f\n",
				summary.ID,
				st.TotalRuns,
				st.SuccessRuns,
				st.SuccessRate,
				st.AvgEvaluations,
				st.StdEvaluations,
				st.MeanBestError,
			)
			if summary.ReportPath != "" {
				fmt.Fprintf(out, "report=%s\n", summary.ReportPath)
			}
			return nil
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().Int("runs", defaultBenchmarkRuns, "number of seeded runs")
	return cmd
}

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			s, err := loadSettings(cmd, nil)
			if err != nil {
				return err
			}
			client, err := bitsearch.New(s.options())
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			items, err := client.Runs(cmd.Context(), bitsearch.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(out, "run_id=%s created=%q seed=%d pop=%d gens=%d pmut=%g k=%d best_error=%d found_generation=%d solved=%t\n",
					it.RunID,
					relativeTime(it.CreatedAtUTC),
					it.Seed,
					it.Population,
					it.Generations,
					it.MutationRate,
					it.TournamentSize,
					it.BestError,
					it.FoundGeneration,
					it.Solved,
				)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "max runs to list")
	return cmd
}

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print a recorded run and its per-generation diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			latest, err := cmd.Flags().GetBool("latest")
			if err != nil {
				return err
			}
			req := bitsearch.ShowRequest{Latest: latest || len(args) == 0}
			if len(args) == 1 {
				req.RunID = args[0]
			}

			s, err := loadSettings(cmd, nil)
			if err != nil {
				return err
			}
			client, err := bitsearch.New(s.options())
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			detail, err := client.Show(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r := detail.Run
			fmt.Fprintf(out, "run_id=%s created=%q seed=%d pop=%d gens=%d pmut=%g k=%d\n",
				r.ID,
				relativeTime(r.CreatedAtUTC),
				r.Config.Seed,
				r.Config.PopulationSize,
				r.Config.Generations,
				r.Config.MutationRate,
				r.Config.TournamentSize,
			)
			fmt.Fprintf(out, "best_genome=%s best_error=%d found_generation=%d generations_run=%d evaluations=%s solved=%t elapsed_ms=%d\n",
				r.BestGenome,
				r.BestError,
				r.FoundGeneration,
				r.GenerationsRun,
				humanize.Comma(int64(r.Evaluations)),
				r.Solved,
				r.ElapsedMS,
			)
			for _, d := range detail.Diagnostics {
				fmt.Fprintf(out, "generation=%d best_error=%d mean_error=%.3f std_dev=%.3f worst_error=%d distinct_genomes=%d\n",
					d.Generation,
					d.BestError,
					d.MeanError,
					d.ErrorStdDev,
					d.WorstError,
					d.DistinctGenomes,
				)
			}
			return nil
		},
	}
	cmd.Flags().Bool("latest", false, "show the most recent run")
	return cmd
}

func newEvalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <bits>",
		Short: "Evaluate a bit string against the target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eval, err := bitsearch.Evaluate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "genome=%s weighted_sum=%d target=%d error=%d\n",
				eval.Genome, eval.WeightedSum, genome.Target, eval.Error)
			return nil
		},
	}
}

func relativeTime(createdAtUTC string) string {
	t, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(t)
}
