package config

import (
	"fmt"
	"os"

	"github.com/conceptatlas/backend/internal/util"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the full pipeline configuration. Values come from an optional
// YAML file with environment variables taking precedence for credentials and
// endpoints.
type Config struct {
	ProcessingMode    string   `yaml:"processing_mode" validate:"oneof=section subsection paragraph"`
	GlobalThreshold   int      `yaml:"global_threshold" validate:"gte=1"`
	SkipSections      []string `yaml:"skip_sections"`
	MaxUnitTokens     int      `yaml:"max_unit_tokens" validate:"gte=0"`
	TokenEncoder      string   `yaml:"token_encoder"`
	MaxRetries        int      `yaml:"max_retries" validate:"gte=1"`
	ParallelArticles  int      `yaml:"parallel_articles" validate:"gte=1"`
	OutputDir         string   `yaml:"output_dir"`
	CachePath         string   `yaml:"cache_path"`
	CacheVersion      string   `yaml:"cache_version"`
	AIAdapter         string   `yaml:"ai_adapter" validate:"oneof=openai ollama"`
	ExtractionModel   string   `yaml:"extraction_model"`
	ComparisonModel   string   `yaml:"comparison_model"`
	ChatURL           string   `yaml:"chat_url"`
	ChatKey           string   `yaml:"-"`
	Debug             bool     `yaml:"debug"`
}

// DefaultSkipSections lists section titles excluded from processing entirely.
var DefaultSkipSections = []string{
	"See also",
	"Notes",
	"References",
	"Works cited",
	"External links",
}

// Default returns the baseline configuration before file and env overrides.
func Default() Config {
	return Config{
		ProcessingMode:   "section",
		GlobalThreshold:  3,
		SkipSections:     DefaultSkipSections,
		MaxUnitTokens:    2000,
		TokenEncoder:     "cl100k_base",
		MaxRetries:       3,
		ParallelArticles: 1,
		OutputDir:        "output",
		CachePath:        "cache/conceptmap.db",
		CacheVersion:     "14.0",
		AIAdapter:        "openai",
		ExtractionModel:  "gpt-4o-mini",
		ComparisonModel:  "gpt-4o-mini",
	}
}

// Load reads the YAML file at path (if non-empty), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.AIAdapter = util.GetEnvString("AI_ADAPTER", cfg.AIAdapter)
	cfg.ExtractionModel = util.GetEnvString("AI_EXTRACT_MODEL", cfg.ExtractionModel)
	cfg.ComparisonModel = util.GetEnvString("AI_COMPARE_MODEL", cfg.ComparisonModel)
	cfg.ChatURL = util.GetEnvString("AI_CHAT_URL", cfg.ChatURL)
	cfg.ChatKey = util.GetEnv("AI_CHAT_KEY")
	if cfg.ChatKey == "" {
		cfg.ChatKey = util.GetEnv("OPENAI_API_KEY")
	}
	cfg.CachePath = util.GetEnvString("CACHE_PATH", cfg.CachePath)
	cfg.CacheVersion = util.GetEnvString("CACHE_VERSION", cfg.CacheVersion)
	cfg.OutputDir = util.GetEnvString("OUTPUT_DIR", cfg.OutputDir)
	cfg.Debug = util.GetEnvBool("DEBUG", cfg.Debug)
}
