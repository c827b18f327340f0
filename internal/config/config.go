// Package config defines the fedlink configuration file format and its
// loader. Configuration is YAML with ${VAR} environment interpolation,
// validated on load. Sections map one-to-one onto the components they
// configure; the embedder section is only validated when a provider is set,
// so deterministic-only installs never need embedding credentials.
package config

import (
	"time"

	"github.com/fedlink-ai/fedlink/internal/semantic/embedder"
)

// Config is the root configuration for fedlink.
type Config struct {
	Core     CoreConfig      `mapstructure:"core" yaml:"core" validate:"required"`
	Database DBConfig        `mapstructure:"database" yaml:"database" validate:"required"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Embedder embedder.Config `mapstructure:"embedder" yaml:"embedder"`
	Match    MatchConfig     `mapstructure:"match" yaml:"match"`
	Semantic SemanticConfig  `mapstructure:"semantic" yaml:"semantic"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string `mapstructure:"home_dir" yaml:"home_dir"`
	Debug   bool   `mapstructure:"debug" yaml:"debug"`
}

// DBConfig contains database settings.
type DBConfig struct {
	Path           string        `mapstructure:"path" yaml:"path" validate:"required"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`
	BusyTimeout    time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" validate:"min=1s"`
}

// MarshalYAML renders BusyTimeout as a duration string ("5s") instead of
// nanoseconds, so written config files stay human-editable. The loader's
// duration hook parses the string form back.
func (c DBConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Path           string `yaml:"path"`
		MaxConnections int    `yaml:"max_connections"`
		BusyTimeout    string `yaml:"busy_timeout"`
	}{
		Path:           c.Path,
		MaxConnections: c.MaxConnections,
		BusyTimeout:    c.BusyTimeout.String(),
	}, nil
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// MatchConfig contains deterministic matcher settings.
type MatchConfig struct {
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism" validate:"min=1,max=64"`
}

// SemanticConfig contains embedding pipeline settings. TopK bounds how many
// semantic matches each source keeps; MinScore is the cosine similarity
// floor; BatchSize is how many texts go to the provider per request;
// MaxInputChars caps the text built for each entity before embedding.
type SemanticConfig struct {
	TopK          int     `mapstructure:"top_k" yaml:"top_k" validate:"min=1"`
	MinScore      float64 `mapstructure:"min_score" yaml:"min_score" validate:"gte=-1,lte=1"`
	BatchSize     int     `mapstructure:"batch_size" yaml:"batch_size" validate:"min=1"`
	MaxInputChars int     `mapstructure:"max_input_chars" yaml:"max_input_chars" validate:"min=1"`
}
