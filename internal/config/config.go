package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type GoldConfig struct {
	NamesFile       string `toml:"names_file"`
	TypesFile       string `toml:"types_file"`
	RelationsFile   string `toml:"relations_file"`
	NamesOutput     string `toml:"names_output"`
	TypesOutput     string `toml:"types_output"`
	RelationsOutput string `toml:"relations_output"`
	Manifest        string `toml:"manifest"`

	EnglishOnly      bool `toml:"english_only"`
	LowerCase        bool `toml:"lower_case"`
	ROOnly           bool `toml:"ro_only"`
	RequirePredicate bool `toml:"require_predicate"`
}

type SilverConfig struct {
	PredictionsFile string  `toml:"predictions_file"`
	Output          string  `toml:"output"`
	Threshold       float64 `toml:"threshold"`
	SkipMalformed   bool    `toml:"skip_malformed"`
	DedupBackend    string  `toml:"dedup_backend"`
	DedupDir        string  `toml:"dedup_dir"`
	Manifest        string  `toml:"manifest"`
}

type MemgraphConfig struct {
	URI       string `toml:"uri"`
	User      string `toml:"user"`
	Password  string `toml:"password"`
	BatchSize int    `toml:"batch_size"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type LogConfig struct {
	Level         string `toml:"level"`
	JSON          bool   `toml:"json"`
	File          string `toml:"file"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
	ProgressEvery int    `toml:"progress_every"`
}

type Config struct {
	AllowList string         `toml:"allowlist"`
	Gold      GoldConfig     `toml:"gold"`
	Silver    SilverConfig   `toml:"silver"`
	Memgraph  MemgraphConfig `toml:"memgraph"`
	Server    ServerConfig   `toml:"server"`
	Log       LogConfig      `toml:"log"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		AllowList: "umls_concepts_v2.csv",
		Gold: GoldConfig{
			NamesFile:        "MRCONSO.RRF",
			TypesFile:        "MRSTY.RRF",
			RelationsFile:    "MRREL.RRF",
			NamesOutput:      "clarify_has_name_triples.tsv",
			TypesOutput:      "clarify_has_type_triples.tsv",
			RelationsOutput:  "gold_triples_with_sources.tsv",
			EnglishOnly:      true,
			LowerCase:        true,
			ROOnly:           true,
			RequirePredicate: true,
		},
		Silver: SilverConfig{
			PredictionsFile: "predictions.large.jsonl.gz",
			Output:          "silver_triples.tsv",
			Threshold:       0.5,
			DedupBackend:    "memory",
		},
		Memgraph: MemgraphConfig{
			URI:       "bolt://localhost:7687",
			BatchSize: 1000,
		},
		Server: ServerConfig{Port: "8080"},
		Log: LogConfig{
			Level:         "info",
			MaxSizeMB:     100,
			MaxBackups:    3,
			ProgressEvery: 1_000_000,
		},
	}
}

// Load reads a TOML file over the defaults, so keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides selected values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("KBSLICE_ALLOWLIST"); v != "" {
		c.AllowList = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Silver.Threshold < 0 {
		errs = append(errs, fmt.Errorf("silver.threshold must be >= 0, got %v", c.Silver.Threshold))
	}
	switch strings.ToLower(c.Silver.DedupBackend) {
	case "", "memory":
	case "badger":
		if c.Silver.DedupDir == "" {
			errs = append(errs, errors.New("silver.dedup_dir is required for the badger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("silver.dedup_backend %q is not memory or badger", c.Silver.DedupBackend))
	}
	if c.Memgraph.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("memgraph.batch_size must be positive, got %d", c.Memgraph.BatchSize))
	}
	if c.Log.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("log.progress_every must be >= 0, got %d", c.Log.ProgressEvery))
	}
	return errors.Join(errs...)
}
