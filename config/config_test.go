package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sprintrag/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Index.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Index.ChunkOverlap != 200 {
		t.Errorf("expected ChunkOverlap=200, got %d", cfg.Index.ChunkOverlap)
	}
	if cfg.Index.BatchSize != 5 {
		t.Errorf("expected BatchSize=5, got %d", cfg.Index.BatchSize)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Store.Path != "./chroma_db" {
		t.Errorf("expected store path ./chroma_db, got %s", cfg.Store.Path)
	}
	if cfg.Embedding.MaxInputChars != 8000 {
		t.Errorf("expected MaxInputChars=8000, got %d", cfg.Embedding.MaxInputChars)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rag.yaml")

	content := `
index:
  chunk_size: 500
  embed_failure_policy: skip
retrieve:
  top_k: 10
generation:
  temperature: 0.2
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Index.ChunkSize != 500 {
		t.Errorf("expected ChunkSize=500, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Index.ChunkOverlap != 200 {
		t.Errorf("expected default ChunkOverlap=200, got %d", cfg.Index.ChunkOverlap)
	}
	if cfg.Index.EmbedFailurePolicy != PolicySkip {
		t.Errorf("expected policy skip, got %s", cfg.Index.EmbedFailurePolicy)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Generation.Temperature != 0.2 {
		t.Errorf("expected Temperature=0.2, got %f", cfg.Generation.Temperature)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".rag"), 0755); err != nil {
		t.Fatal(err)
	}
	content := `
store:
  collection: q3_reports
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".rag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Collection != "q3_reports" {
		t.Errorf("expected collection q3_reports, got %s", cfg.Store.Collection)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"overlap equals size": func(c *Config) { c.Index.ChunkOverlap = c.Index.ChunkSize },
		"negative overlap":    func(c *Config) { c.Index.ChunkOverlap = -1 },
		"zero batch":          func(c *Config) { c.Index.BatchSize = 0 },
		"unknown policy":      func(c *Config) { c.Index.EmbedFailurePolicy = "drop" },
		"no collection":       func(c *Config) { c.Store.Collection = "" },
		"zero dimension":      func(c *Config) { c.Embedding.Dimension = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")
	cfg := DefaultConfig()
	cfg.Store.Metric = "cosine"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Store.Metric != "cosine" {
		t.Errorf("expected metric cosine, got %s", loaded.Store.Metric)
	}
}

func TestResolveStorePath(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.ResolveStorePath("/srv/reports")
	if want := filepath.Join("/srv/reports", "chroma_db"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	cfg.Store.Path = "/var/lib/rag"
	if got := cfg.ResolveStorePath("/srv/reports"); got != "/var/lib/rag" {
		t.Errorf("expected absolute path to be kept, got %s", got)
	}
}
