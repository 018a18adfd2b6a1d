package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Clustering method selectors.
const (
	MethodLLM    = "llm"
	MethodKMeans = "kmeans"
	MethodDBSCAN = "dbscan"
)

// Config holds all configuration for the clustering tool.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chat       ChatConfig       `yaml:"chat"`
	Output     OutputConfig     `yaml:"output"`
}

// InputConfig describes the tabular input.
type InputConfig struct {
	Path       string `yaml:"path"`        // file path or doublestar glob
	IDColumn   string `yaml:"id_column"`   // grouping identifier column
	TextColumn string `yaml:"text_column"` // text payload column
}

// ClusteringConfig selects and tunes the clustering strategy.
type ClusteringConfig struct {
	Method     string  `yaml:"method"`      // "llm", "kmeans" or "dbscan"
	Clusters   int     `yaml:"clusters"`    // target K (ignored by dbscan)
	SampleSize int     `yaml:"sample_size"` // texts sampled for theme identification
	BatchSize  int     `yaml:"batch_size"`  // assignment batch size
	MaxIter    int     `yaml:"max_iter"`    // kmeans iteration cap
	Seed       int64   `yaml:"seed"`        // kmeans init seed
	Eps        float64 `yaml:"eps"`         // dbscan neighborhood radius
	MinPoints  int     `yaml:"min_points"`  // dbscan core point threshold
}

// EmbeddingConfig holds embedding API configuration.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`    // "openai", "azure", "mock"
	Model      string `yaml:"model"`       // e.g. "text-embedding-3-small"
	BaseURL    string `yaml:"base_url"`    // endpoint or Azure resource URL
	APIKeyEnv  string `yaml:"api_key_env"` // environment variable for API key
	APIVersion string `yaml:"api_version"` // Azure only
	Dimension  int    `yaml:"dimension"`
	BatchSize  int    `yaml:"batch_size"`
	Cache      bool   `yaml:"cache"` // persist vectors across runs
}

// ChatConfig holds chat-completion API configuration.
type ChatConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "azure"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	APIVersion  string  `yaml:"api_version"` // Azure only
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// OutputConfig describes the clustered CSV output.
type OutputConfig struct {
	Path          string `yaml:"path"`
	ClusterColumn string `yaml:"cluster_column"`
	TitleColumn   string `yaml:"title_column"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			IDColumn:   "sequence_uuid",
			TextColumn: "semantic_data",
		},
		Clustering: ClusteringConfig{
			Method:     MethodLLM,
			Clusters:   5,
			SampleSize: 20,
			BatchSize:  5,
			MaxIter:    100,
			Seed:       42,
			Eps:        0.5,
			MinPoints:  5,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
			Cache:     true,
		},
		Chat: ChatConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.3,
			MaxTokens:   500,
		},
		Output: OutputConfig{
			Path:          "clustered.csv",
			ClusterColumn: "cluster",
			TitleColumn:   "cluster_title",
		},
	}
}

// Validate checks invariants that must hold before any API call is made.
func (c *Config) Validate() error {
	switch c.Clustering.Method {
	case MethodLLM, MethodKMeans, MethodDBSCAN:
	default:
		return fmt.Errorf("unknown clustering method: %q (want %s, %s or %s)",
			c.Clustering.Method, MethodLLM, MethodKMeans, MethodDBSCAN)
	}
	if c.Clustering.Method != MethodDBSCAN && c.Clustering.Clusters <= 0 {
		return fmt.Errorf("cluster count must be positive, got %d", c.Clustering.Clusters)
	}
	if c.Clustering.Method == MethodDBSCAN {
		if c.Clustering.Eps <= 0 {
			return fmt.Errorf("dbscan eps must be positive, got %g", c.Clustering.Eps)
		}
		if c.Clustering.MinPoints <= 0 {
			return fmt.Errorf("dbscan min_points must be positive, got %d", c.Clustering.MinPoints)
		}
	}
	if c.Input.IDColumn == "" || c.Input.TextColumn == "" {
		return fmt.Errorf("input id_column and text_column must be set")
	}
	return nil
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

// LoadFromDir loads configuration from a directory (looks for semcluster.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "semcluster.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".semcluster", "config.yaml")
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

// CacheDBPath returns the path to the embedding cache database.
func CacheDBPath(dir string) string {
	return filepath.Join(dir, ".semcluster", "embeddings.db")
}

// EnsureStateDir ensures the .semcluster directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".semcluster"), 0755)
}
