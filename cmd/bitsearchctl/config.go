package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bitsearch/internal/evo"
	"bitsearch/internal/storage"
	"bitsearch/pkg/bitsearch"
)

const (
	envPrefix           = "BITSEARCH"
	defaultDBPath       = "bitsearch.db"
	defaultArtifactsDir = "runs"

	defaultBenchmarkRuns = 10
)

// settings is the merged view of defaults, config file, environment,
// positional arguments and flags.
type settings struct {
	Generations     int     `mapstructure:"generations"`
	Population      int     `mapstructure:"population"`
	MutationRate    float64 `mapstructure:"mutation_rate"`
	TournamentSize  int     `mapstructure:"tournament_size"`
	Seed            int64   `mapstructure:"seed"`
	Store           string  `mapstructure:"store"`
	DBPath          string  `mapstructure:"db_path"`
	ArtifactsDir    string  `mapstructure:"artifacts_dir"`
	NoArtifacts     bool    `mapstructure:"no_artifacts"`
	Plot            string  `mapstructure:"plot"`
	Quiet           bool    `mapstructure:"quiet"`
	CheckInvariants bool    `mapstructure:"check_invariants"`
	Runs            int     `mapstructure:"runs"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"gens":             "generations",
	"pop":              "population",
	"pmut":             "mutation_rate",
	"k":                "tournament_size",
	"seed":             "seed",
	"store":            "store",
	"db-path":          "db_path",
	"artifacts-dir":    "artifacts_dir",
	"no-artifacts":     "no_artifacts",
	"plot":             "plot",
	"quiet":            "quiet",
	"check-invariants": "check_invariants",
	"runs":             "runs",
}

// Positional run arguments, in order, and the flag that overrides each.
var positionalArgs = []struct {
	flag string
	key  string
}{
	{flag: "gens", key: "generations"},
	{flag: "pop", key: "population"},
	{flag: "pmut", key: "mutation_rate"},
	{flag: "k", key: "tournament_size"},
}

func newConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("generations", evo.DefaultGenerations)
	v.SetDefault("population", evo.DefaultPopulationSize)
	v.SetDefault("mutation_rate", evo.DefaultMutationRate)
	v.SetDefault("tournament_size", evo.DefaultTournamentSize)
	v.SetDefault("seed", 0)
	v.SetDefault("store", storage.DefaultStoreKind())
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("artifacts_dir", defaultArtifactsDir)
	v.SetDefault("no_artifacts", false)
	v.SetDefault("plot", "")
	v.SetDefault("quiet", false)
	v.SetDefault("check_invariants", false)
	v.SetDefault("runs", defaultBenchmarkRuns)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// loadSettings resolves the settings for cmd. Explicit flags win over
// positional arguments, which win over the environment, the config file and
// the defaults.
func loadSettings(cmd *cobra.Command, args []string) (settings, error) {
	v := newConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return settings{}, err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return settings{}, err
		}
	}

	if err := applyPositional(v, cmd, args); err != nil {
		return settings{}, err
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func applyPositional(v *viper.Viper, cmd *cobra.Command, args []string) error {
	if len(args) > len(positionalArgs) {
		return fmt.Errorf("expected at most %d arguments, got %d", len(positionalArgs), len(args))
	}
	for i, arg := range args {
		pos := positionalArgs[i]
		var (
			value any
			err   error
		)
		if pos.key == "mutation_rate" {
			value, err = strconv.ParseFloat(arg, 64)
		} else {
			value, err = strconv.Atoi(arg)
		}
		if err != nil {
			return fmt.Errorf("%w: %s argument %q is not a number", evo.ErrInvalidConfig, pos.key, arg)
		}
		if cmd.Flags().Changed(pos.flag) {
			continue
		}
		v.Set(pos.key, value)
	}
	return nil
}

func (s settings) options() bitsearch.Options {
	return bitsearch.Options{
		StoreKind:    s.Store,
		DBPath:       s.DBPath,
		ArtifactsDir: s.ArtifactsDir,
		NoArtifacts:  s.NoArtifacts,
	}
}

func (s settings) runRequest() bitsearch.RunRequest {
	return bitsearch.RunRequest{
		Generations:     s.Generations,
		Population:      s.Population,
		MutationRate:    s.MutationRate,
		TournamentSize:  s.TournamentSize,
		Seed:            s.Seed,
		PlotPath:        s.Plot,
		CheckInvariants: s.CheckInvariants,
	}
}
