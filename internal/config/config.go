// Package config loads the analyzer configuration from a YAML file, layered
// over built-in defaults. Every knob the pipeline exposes lives here so the
// CLI and tests construct runs the same way.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/schemalens/schemalens/internal/errs"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full analyzer configuration.
type Config struct {
	Log       Log       `yaml:"log"`
	Database  Database  `yaml:"database"`
	Detect    Detect    `yaml:"detect"`
	Embedding Embedding `yaml:"embedding"`
	Verify    Verify    `yaml:"verify"`
	Output    Output    `yaml:"output"`
	Storage   Storage   `yaml:"storage"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Database selects and tunes the connection to the inspected database.
type Database struct {
	Driver         string   `yaml:"driver"` // postgres, mysql, sqlite
	DSN            string   `yaml:"dsn"`
	Schema         string   `yaml:"schema"` // namespace for postgres, default "public"
	MaxConns       int      `yaml:"max_conns"`
	MinConns       int      `yaml:"min_conns"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	QueryTimeout   Duration `yaml:"query_timeout"`
}

// Detect tunes the candidate generators.
type Detect struct {
	// TokenSimilarity is the minimum token-overlap score for the pattern
	// matcher's similarity path.
	TokenSimilarity float64 `yaml:"token_similarity"`

	// SemanticThreshold is the minimum cosine similarity for the semantic
	// matcher.
	SemanticThreshold float64 `yaml:"semantic_threshold"`

	// SampleRows is how many example rows to fetch per table for the
	// verification oracle. 0 disables sampling.
	SampleRows int `yaml:"sample_rows"`
}

// Embedding selects the embedding provider for the semantic matcher.
type Embedding struct {
	Provider   string   `yaml:"provider"` // hashing or ollama
	Host       string   `yaml:"host"`
	Model      string   `yaml:"model"`
	Dimensions int      `yaml:"dimensions"`
	Timeout    Duration `yaml:"timeout"`
}

// Verify configures the verification oracle.
type Verify struct {
	Enabled   bool     `yaml:"enabled"` // false means the rule-based oracle
	Host      string   `yaml:"host"`
	Model     string   `yaml:"model"`
	MaxChecks int      `yaml:"max_checks"`
	Delay     Duration `yaml:"delay"`
	Timeout   Duration `yaml:"timeout"`
}

// Output controls where and how artifacts are rendered.
type Output struct {
	Dir            string `yaml:"dir"`
	ProjectName    string `yaml:"project_name"`
	IncludeIndexes bool   `yaml:"include_indexes"`
	IncludeNotes   bool   `yaml:"include_notes"`
	IncludeGroups  bool   `yaml:"include_groups"`
}

// Storage optionally mirrors artifacts to object storage.
type Storage struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// Default returns the built-in configuration: local analysis with the
// hashing embedder, the rule-based oracle, and DBML written to ./output.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Database: Database{
			Driver:         "postgres",
			Schema:         "public",
			MaxConns:       4,
			MinConns:       1,
			ConnectTimeout: Duration(10 * time.Second),
			QueryTimeout:   Duration(30 * time.Second),
		},
		Detect: Detect{
			TokenSimilarity:   0.6,
			SemanticThreshold: 0.7,
			SampleRows:        5,
		},
		Embedding: Embedding{
			Provider:   "hashing",
			Host:       "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 128,
			Timeout:    Duration(30 * time.Second),
		},
		Verify: Verify{
			Enabled:   false,
			Host:      "http://localhost:11434",
			Model:     "llama2",
			MaxChecks: 10,
			Delay:     Duration(500 * time.Millisecond),
			Timeout:   Duration(30 * time.Second),
		},
		Output: Output{
			Dir:            "output",
			ProjectName:    "Database Schema",
			IncludeIndexes: true,
			IncludeNotes:   true,
			IncludeGroups:  true,
		},
		Storage: Storage{
			Enabled: false,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config file", err)
	}
	return cfg, nil
}
