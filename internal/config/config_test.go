package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("workers = %d, want 4", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.SearchTopK != 10 || cfg.Pipeline.RerankTopK != 3 {
		t.Fatalf("top-k defaults = %d/%d, want 10/3", cfg.Pipeline.SearchTopK, cfg.Pipeline.RerankTopK)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
pipeline:
  workers: 8
  request_timeout: 10s
store:
  backend: pgvector
  conn_string: postgres://localhost/kb
kafka:
  brokers: [kafka-a:9092, kafka-b:9092]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Fatalf("workers = %d, want 8", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.RequestTimeout != 10*time.Second {
		t.Fatalf("request_timeout = %s, want 10s", cfg.Pipeline.RequestTimeout)
	}
	if cfg.Store.Backend != "pgvector" {
		t.Fatalf("backend = %q, want pgvector", cfg.Store.Backend)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("brokers = %v, want two entries", cfg.Kafka.Brokers)
	}
	// File omits rerank settings; defaults survive.
	if cfg.Pipeline.RerankTopK != 3 {
		t.Fatalf("rerank_top_k = %d, want 3", cfg.Pipeline.RerankTopK)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WORKERS", "12")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.Workers != 12 {
		t.Fatalf("workers = %d, want 12", cfg.Pipeline.Workers)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("api key not applied")
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("WORKERS", "lots")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid WORKERS")
	}
}
