package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"bitsearch/internal/evo"
)

func parsedRunCommand(t *testing.T, args ...string) (*cobra.Command, []string) {
	t.Helper()
	root := newRootCommand(io.Discard)
	cmd, rest, err := root.Find(append([]string{"run"}, args...))
	if err != nil {
		t.Fatalf("find run command: %v", err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, cmd.Flags().Args()
}

func TestLoadSettingsDefaults(t *testing.T) {
	cmd, args := parsedRunCommand(t)
	s, err := loadSettings(cmd, args)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	req := s.runRequest()
	if req.Generations != evo.DefaultGenerations || req.Population != evo.DefaultPopulationSize ||
		req.MutationRate != evo.DefaultMutationRate || req.TournamentSize != evo.DefaultTournamentSize {
		t.Fatalf("unexpected defaults: %+v", req)
	}
	if req.Seed != 0 || req.PlotPath != "" || req.CheckInvariants {
		t.Fatalf("unexpected optional defaults: %+v", req)
	}
	opts := s.options()
	if opts.DBPath != defaultDBPath || opts.ArtifactsDir != defaultArtifactsDir || opts.NoArtifacts {
		t.Fatalf("unexpected default options: %+v", opts)
	}
}

func TestLoadSettingsMapsFlags(t *testing.T) {
	cmd, args := parsedRunCommand(t,
		"7", "30", "0.25",
		"--k", "9",
		"--seed", "123",
		"--plot", "chart.png",
		"--check-invariants",
		"--store", "memory",
		"--db-path", "other.db",
		"--artifacts-dir", "out",
		"--no-artifacts",
	)
	s, err := loadSettings(cmd, args)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	req := s.runRequest()
	if req.Generations != 7 || req.Population != 30 || req.MutationRate != 0.25 || req.TournamentSize != 9 {
		t.Fatalf("unexpected run parameters: %+v", req)
	}
	if req.Seed != 123 || req.PlotPath != "chart.png" || !req.CheckInvariants {
		t.Fatalf("unexpected run options: %+v", req)
	}
	opts := s.options()
	if opts.StoreKind != "memory" || opts.DBPath != "other.db" || opts.ArtifactsDir != "out" || !opts.NoArtifacts {
		t.Fatalf("unexpected client options: %+v", opts)
	}
}

func TestLoadSettingsRejectsMissingConfigFile(t *testing.T) {
	cmd, args := parsedRunCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := loadSettings(cmd, args); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
