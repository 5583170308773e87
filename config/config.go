// Package config loads the application configuration from a YAML file.
// Secrets never live in the file; the config names the environment variables
// that carry them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AIConfig configures the OpenAI-compatible model endpoints.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	ExtractorHost  string `yaml:"extractor_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	ExtractorModel string `yaml:"extractor_model"`
	TokenEnv       string `yaml:"token_env"`
}

// PineconeConfig contains connection details for the hosted index.
type PineconeConfig struct {
	Host        string `yaml:"host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// BadgerConfig configures the embedded index.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend   string          `yaml:"backend"` // "badger" or "pinecone"
	Namespace string          `yaml:"namespace"`
	Pinecone  *PineconeConfig `yaml:"pinecone,omitempty"`
	Badger    *BadgerConfig   `yaml:"badger,omitempty"`
}

// IngestConfig configures the batch ingestion run.
type IngestConfig struct {
	PoolSize        int    `yaml:"pool_size"`
	SuccessLog      string `yaml:"success_log"`
	FailureLog      string `yaml:"failure_log"`
	UniverseCache   string `yaml:"universe_cache"`
	CallTimeoutSecs int    `yaml:"call_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	AI     AIConfig     `yaml:"ai"`
	Index  IndexConfig  `yaml:"index"`
	Ingest IngestConfig `yaml:"ingest"`
	Server ServerConfig `yaml:"server"`
}

// Load reads a config from the specified path. A missing file returns
// defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &AppConfig{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if cfg.AI.ExtractorHost == "" {
		cfg.AI.ExtractorHost = "http://localhost:11434/v1"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "embeddinggemma"
	}
	if cfg.AI.ExtractorModel == "" {
		cfg.AI.ExtractorModel = "qwen2.5:3b"
	}
	if cfg.AI.TokenEnv == "" {
		cfg.AI.TokenEnv = "STOCKSCOPE_AI_TOKEN"
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "badger"
	}
	if cfg.Index.Namespace == "" {
		cfg.Index.Namespace = "stock-descriptions"
	}
	if cfg.Index.Backend == "badger" {
		if cfg.Index.Badger == nil {
			cfg.Index.Badger = &BadgerConfig{}
		}
		if cfg.Index.Badger.Path == "" {
			cfg.Index.Badger.Path = "stockscope-index"
		}
	}
	if cfg.Index.Backend == "pinecone" && cfg.Index.Pinecone != nil {
		if cfg.Index.Pinecone.APIKeyEnv == "" {
			cfg.Index.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.Index.Pinecone.TimeoutSecs == 0 {
			cfg.Index.Pinecone.TimeoutSecs = 30
		}
	}

	if cfg.Ingest.PoolSize == 0 {
		cfg.Ingest.PoolSize = 4
	}
	if cfg.Ingest.SuccessLog == "" {
		cfg.Ingest.SuccessLog = "successful_tickers.txt"
	}
	if cfg.Ingest.FailureLog == "" {
		cfg.Ingest.FailureLog = "unsuccessful_tickers.txt"
	}
	if cfg.Ingest.UniverseCache == "" {
		cfg.Ingest.UniverseCache = "company_tickers.json"
	}
	if cfg.Ingest.CallTimeoutSecs == 0 {
		cfg.Ingest.CallTimeoutSecs = 30
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
}

func validate(cfg *AppConfig) error {
	switch cfg.Index.Backend {
	case "badger":
	case "pinecone":
		if cfg.Index.Pinecone == nil || cfg.Index.Pinecone.Host == "" {
			return errors.New("index.pinecone.host is required for the pinecone backend")
		}
	default:
		return fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
	return nil
}
