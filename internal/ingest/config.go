package ingest

// Config contains configuration options that control how
// mission folders are discovered and ingested.
type Config struct {
	// The path to the directory whose 'Mission*' sub-directories
	// should be ingested
	BaseFolder string

	// Controls the number of files within a single mission which
	// may be extracted at once. Values less than 1 are treated as 1,
	// which processes files strictly one at a time.
	ExtractParallelism int

	// When enabled, the first mission to fail aborts the whole run. Otherwise
	// the failure is recorded and the remaining missions are still processed.
	AbortOnError bool
}

func (config *Config) parallelism() int {
	return max(1, config.ExtractParallelism)
}
