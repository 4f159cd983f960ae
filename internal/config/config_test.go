package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.ProcessingMode != "section" {
		t.Errorf("unexpected default mode %q", cfg.ProcessingMode)
	}
	if cfg.GlobalThreshold != 3 {
		t.Errorf("unexpected default threshold %d", cfg.GlobalThreshold)
	}
	if len(cfg.SkipSections) == 0 {
		t.Error("expected a default skip list")
	}
}

func TestLoadAppliesFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
processing_mode: paragraph
global_threshold: 5
skip_sections:
  - References
output_dir: /tmp/results
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProcessingMode != "paragraph" || cfg.GlobalThreshold != 5 {
		t.Errorf("file overrides not applied: %+v", cfg)
	}
	if len(cfg.SkipSections) != 1 || cfg.SkipSections[0] != "References" {
		t.Errorf("unexpected skip list: %v", cfg.SkipSections)
	}
	// Untouched keys keep their defaults.
	if cfg.AIAdapter != "openai" {
		t.Errorf("unexpected adapter %q", cfg.AIAdapter)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "bad mode", payload: "processing_mode: chapter"},
		{name: "zero threshold", payload: "global_threshold: 0"},
		{name: "bad adapter", payload: "ai_adapter: anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.payload), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AI_ADAPTER", "ollama")
	t.Setenv("AI_EXTRACT_MODEL", "llama3")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AIAdapter != "ollama" || cfg.ExtractionModel != "llama3" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.ChatKey != "sk-test" {
		t.Errorf("expected OPENAI_API_KEY fallback, got %q", cfg.ChatKey)
	}
}

func TestLoadMissingFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
