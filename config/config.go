package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"sprintrag/internal/domain"
)

// Embedding failure policies.
const (
	PolicyZeroFill = "zero_fill"
	PolicySkip     = "skip"
)

// Config holds all configuration for the report assistant.
type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Router     RouterConfig     `yaml:"router"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// IndexConfig holds corpus and chunking configuration.
type IndexConfig struct {
	Folder       string   `yaml:"folder"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`    // characters
	ChunkOverlap int      `yaml:"chunk_overlap"` // characters
	BatchSize    int      `yaml:"batch_size"`
	Workers      int      `yaml:"workers"` // concurrent embedding batches, 1 = sequential
	// EmbedFailurePolicy decides what happens to a chunk whose embedding
	// failed: "zero_fill" stores it with a zero vector, "skip" drops it.
	EmbedFailurePolicy string `yaml:"embed_failure_policy"`
}

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	Metric     string `yaml:"metric"` // "l2" or "cosine"
}

// EmbeddingConfig holds embedding service configuration.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"` // "openai", "ollama", "local", "mock"
	Model         string `yaml:"model"`
	BaseURL       string `yaml:"base_url"`
	APIKeyEnv     string `yaml:"api_key_env"`
	Dimension     int    `yaml:"dimension"`
	MaxInputChars int    `yaml:"max_input_chars"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
}

// GenerationConfig holds text generation configuration.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "ollama", "mock"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int `yaml:"top_k"`
	SummarizeTopK   int `yaml:"summarize_top_k"`
	SummaryMaxChars int `yaml:"summary_max_chars"`
	CacheSize       int `yaml:"cache_size"` // 0 disables the serving cache
	CacheTTLSecs    int `yaml:"cache_ttl_secs"`
}

// RouterConfig holds the summarize intent matching rule.
type RouterConfig struct {
	ReportExtensions  []string `yaml:"report_extensions"`
	ReportNameMarkers []string `yaml:"report_name_markers"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Folder:             "./data",
			Includes:           []string{"*.pdf"},
			ChunkSize:          1000,
			ChunkOverlap:       200,
			BatchSize:          5,
			Workers:            1,
			EmbedFailurePolicy: PolicyZeroFill,
		},
		Store: StoreConfig{
			Path:       "./chroma_db",
			Collection: "sprint_reports",
			Metric:     "l2",
		},
		Embedding: EmbeddingConfig{
			Provider:      "openai",
			Model:         "text-embedding-3-small",
			APIKeyEnv:     "OPENAI_API_KEY",
			Dimension:     1536,
			MaxInputChars: 8000,
			TimeoutSecs:   60,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   512,
			Temperature: 0.7,
			TopP:        0.9,
			TimeoutSecs: 120,
		},
		Retrieve: RetrieveConfig{
			TopK:            3,
			SummarizeTopK:   5,
			SummaryMaxChars: 3000,
			CacheSize:       100,
			CacheTTLSecs:    300,
		},
		Router: RouterConfig{
			ReportExtensions:  []string{".pdf"},
			ReportNameMarkers: []string{"sprint_report"},
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("%w: index.chunk_size must be positive", domain.ErrInvalidConfig)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("%w: index.chunk_overlap must be in [0, chunk_size)", domain.ErrInvalidConfig)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("%w: index.batch_size must be positive", domain.ErrInvalidConfig)
	}
	switch c.Index.EmbedFailurePolicy {
	case PolicyZeroFill, PolicySkip:
	default:
		return fmt.Errorf("%w: unknown index.embed_failure_policy %q", domain.ErrInvalidConfig, c.Index.EmbedFailurePolicy)
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("%w: store.collection must be set", domain.ErrInvalidConfig)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding.dimension must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

func (r RetrieveConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSecs) * time.Second
}

// ResolveStorePath makes a relative store path relative to dir.
func (c *Config) ResolveStorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}
