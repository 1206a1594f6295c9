package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunConfig is the parameter set a run was started with.
type RunConfig struct {
	Generations    int     `json:"generations"`
	PopulationSize int     `json:"population_size"`
	MutationRate   float64 `json:"mutation_rate"`
	TournamentSize int     `json:"tournament_size"`
	Seed           int64   `json:"seed"`
}

type RunRecord struct {
	VersionedRecord
	ID              string    `json:"id"`
	Config          RunConfig `json:"config"`
	BestGenome      string    `json:"best_genome"`
	BestError       int       `json:"best_error"`
	FoundGeneration int       `json:"found_generation"`
	GenerationsRun  int       `json:"generations_run"`
	Evaluations     int       `json:"evaluations"`
	Solved          bool      `json:"solved"`
	ElapsedMS       int64     `json:"elapsed_ms"`
	CreatedAtUTC    string    `json:"created_at_utc"`
}

type GenerationDiagnostics struct {
	Generation      int     `json:"generation"`
	BestError       int     `json:"best_error"`
	MeanError       float64 `json:"mean_error"`
	ErrorStdDev     float64 `json:"error_std_dev"`
	WorstError      int     `json:"worst_error"`
	DistinctGenomes int     `json:"distinct_genomes"`
}
