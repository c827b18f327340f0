package config

import (
	"path/filepath"
	"time"

	"github.com/fedlink-ai/fedlink/internal/match"
	"github.com/fedlink-ai/fedlink/internal/semantic"
	"github.com/fedlink-ai/fedlink/internal/semantic/embedder"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Debug:   false,
		},
		Database: DBConfig{
			Path:           filepath.Join(homeDir, "fedlink.db"),
			MaxConnections: 10,
			BusyTimeout:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Embedder: embedder.DefaultConfig(),
		Match: MatchConfig{
			Parallelism: match.DefaultParallelism,
		},
		Semantic: SemanticConfig{
			TopK:          semantic.DefaultTopK,
			MinScore:      semantic.DefaultMinScore,
			BatchSize:     semantic.DefaultBatchSize,
			MaxInputChars: semantic.DefaultMaxInputChars,
		},
	}
}
