// Package config is the Go shape of the engine's recognized configuration
// keys. Loading and merging a JSON file with environment overrides is an
// external collaborator (the CLI); this package only declares the struct
// and its defaults, filling zero-valued fields in its constructor rather
// than owning a loader.
package config

import (
	"path/filepath"
	"time"
)

// Store holds vector-store location settings.
type Store struct {
	Path string
}

// Embedding holds embedding-model settings.
type Embedding struct {
	Model     string
	CachePath string
}

// Ingestion holds ingestion-pipeline tuning.
type Ingestion struct {
	BatchSize             int
	MaxFileBytes          int64
	ConverterTimeout      time.Duration
	MaxConcurrentConverts int
}

// Chunker holds chunker tuning.
type Chunker struct {
	MaxChars     int
	OverlapChars int
	MaxTokens    int
}

// Search holds search-engine tuning.
type Search struct {
	DefaultMaxResults int
	CacheTTL          time.Duration
}

// Config is the full set of recognized options from the external interface
// table. SchemaVersion is the process-wide constant embedded in table names.
type Config struct {
	DataRoot      string
	Store         Store
	Embedding     Embedding
	Ingestion     Ingestion
	Chunker       Chunker
	Search        Search
	SchemaVersion string
}

const DefaultSchemaVersion = "1.0.0"

// Default returns a Config with every field set to the defaults in the
// external-interface table, rooted at dataRoot (an OS-appropriate
// per-user location is the caller's responsibility to resolve).
func Default(dataRoot string) *Config {
	return &Config{
		DataRoot: dataRoot,
		Store: Store{
			Path: filepath.Join(dataRoot, "store"),
		},
		Embedding: Embedding{
			Model:     "nomic-embed-text",
			CachePath: filepath.Join(dataRoot, "models"),
		},
		Ingestion: Ingestion{
			BatchSize:             100,
			MaxFileBytes:          10_485_760,
			ConverterTimeout:      30 * time.Second,
			MaxConcurrentConverts: 4,
		},
		Chunker: Chunker{
			MaxChars:     2000,
			OverlapChars: 400,
			MaxTokens:    512,
		},
		Search: Search{
			DefaultMaxResults: 50,
			CacheTTL:          60 * time.Second,
		},
		SchemaVersion: DefaultSchemaVersion,
	}
}
