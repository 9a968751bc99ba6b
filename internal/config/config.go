// Package config layers the triage service configuration: built-in defaults,
// then an optional YAML file, then environment variables. Flags on top of that
// are wired per-command in cmd/triage.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gemini   GeminiConfig   `yaml:"gemini"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	KB       KBConfig       `yaml:"kb"`
}

type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	BaseURL        string `yaml:"base_url"`
}

type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	SearchTopK     int           `yaml:"search_top_k"`
	RerankTopK     int           `yaml:"rerank_top_k"`
}

type StoreConfig struct {
	// Backend is "memory" or "pgvector".
	Backend    string `yaml:"backend"`
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
	Dims       int    `yaml:"dims"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type KBConfig struct {
	CorpusPath string `yaml:"corpus_path"`
	ChunkSize  int    `yaml:"chunk_size"`
	Overlap    int    `yaml:"overlap"`
}

// Load reads configuration from path (skipped when path is empty or missing)
// and applies environment overrides on top of built-in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			EmbeddingModel: "text-embedding-004",
		},
		Pipeline: PipelineConfig{
			Workers:        4,
			MaxAttempts:    3,
			RequestTimeout: 30 * time.Second,
			RateLimitRPS:   0,
			SearchTopK:     10,
			RerankTopK:     3,
		},
		Store: StoreConfig{
			Backend: "memory",
			Table:   "support_kb",
			Dims:    768,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "triage-escalations",
		},
		KB: KBConfig{
			CorpusPath: "kb.yaml",
			ChunkSize:  1000,
			Overlap:    100,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); v != "" {
		cfg.Gemini.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_EMBEDDING_MODEL")); v != "" {
		cfg.Gemini.EmbeddingModel = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")); v != "" {
		cfg.Gemini.BaseURL = v
	}

	var err error
	if cfg.Pipeline.Workers, err = envInt("WORKERS", cfg.Pipeline.Workers); err != nil {
		return err
	}
	if cfg.Pipeline.MaxAttempts, err = envInt("MAX_ATTEMPTS", cfg.Pipeline.MaxAttempts); err != nil {
		return err
	}
	if cfg.Pipeline.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.Pipeline.RequestTimeout); err != nil {
		return err
	}
	if cfg.Pipeline.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.Pipeline.RateLimitRPS); err != nil {
		return err
	}
	if cfg.Pipeline.SearchTopK, err = envInt("SEARCH_TOP_K", cfg.Pipeline.SearchTopK); err != nil {
		return err
	}
	if cfg.Pipeline.RerankTopK, err = envInt("RERANK_TOP_K", cfg.Pipeline.RerankTopK); err != nil {
		return err
	}

	if v := strings.TrimSpace(os.Getenv("STORE_BACKEND")); v != "" {
		cfg.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.Store.ConnString = v
	}
	if v := strings.TrimSpace(os.Getenv("STORE_TABLE")); v != "" {
		cfg.Store.Table = v
	}
	if cfg.Store.Dims, err = envInt("STORE_DIMS", cfg.Store.Dims); err != nil {
		return err
	}

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); v != "" {
		cfg.Kafka.Topic = v
	}

	if v := strings.TrimSpace(os.Getenv("KB_CORPUS_PATH")); v != "" {
		cfg.KB.CorpusPath = v
	}
	if cfg.KB.ChunkSize, err = envInt("KB_CHUNK_SIZE", cfg.KB.ChunkSize); err != nil {
		return err
	}
	if cfg.KB.Overlap, err = envInt("KB_OVERLAP", cfg.KB.Overlap); err != nil {
		return err
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
