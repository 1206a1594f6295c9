package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"bitsearch/internal/model"
)

const runIndexFile = "run_index.json"

type RunArtifacts struct {
	Run         model.RunRecord               `json:"run"`
	Diagnostics []model.GenerationDiagnostics `json:"generation_diagnostics"`
}

type RunIndexEntry struct {
	RunID           string  `json:"run_id"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	MutationRate    float64 `json:"mutation_rate"`
	TournamentSize  int     `json:"tournament_size"`
	Seed            int64   `json:"seed"`
	BestError       int     `json:"best_error"`
	FoundGeneration int     `json:"found_generation"`
	Solved          bool    `json:"solved"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}

// IndexEntryFor derives the run index entry for run.
func IndexEntryFor(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:           run.ID,
		PopulationSize:  run.Config.PopulationSize,
		Generations:     run.Config.Generations,
		MutationRate:    run.Config.MutationRate,
		TournamentSize:  run.Config.TournamentSize,
		Seed:            run.Config.Seed,
		BestError:       run.BestError,
		FoundGeneration: run.FoundGeneration,
		Solved:          run.Solved,
		CreatedAtUTC:    run.CreatedAtUTC,
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Run); err != nil {
		return "", err
	}
	bestByGeneration := make([]int, 0, len(artifacts.Diagnostics))
	for _, diag := range artifacts.Diagnostics {
		bestByGeneration = append(bestByGeneration, diag.BestError)
	}
	if err := writeJSON(filepath.Join(runDir, "history.json"), map[string]any{"best_by_generation": bestByGeneration, "final_best_error": artifacts.Run.BestError}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "generation_diagnostics.json"), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, "series.csv"), artifacts.Diagnostics); err != nil {
		return "", err
	}

	return runDir, nil
}

func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	var artifacts RunArtifacts
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &artifacts.Run)
	if err != nil || !ok {
		return RunArtifacts{}, ok, err
	}
	if _, err := readJSON(filepath.Join(baseDir, runID, "generation_diagnostics.json"), &artifacts.Diagnostics); err != nil {
		return RunArtifacts{}, false, err
	}
	return artifacts, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	ok, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RunIndexEntry{}, nil
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func writeSeries(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_error", "mean_error", "distinct_genomes"}); err != nil {
		return err
	}
	for _, diag := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(diag.Generation),
			strconv.Itoa(diag.BestError),
			strconv.FormatFloat(diag.MeanError, 'f', -1, 64),
			strconv.Itoa(diag.DistinctGenomes),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
