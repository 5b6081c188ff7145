package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Metrics.Port != 9090 {
		t.Fatalf("ports = %d/%d", cfg.Server.Port, cfg.Metrics.Port)
	}
	if cfg.Postgres.Enabled || cfg.Kafka.Enabled || cfg.Redis.Enabled {
		t.Fatalf("integrations must be off by default")
	}
	if cfg.Search.DefaultPageSize != 2 {
		t.Fatalf("DefaultPageSize = %d", cfg.Search.DefaultPageSize)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
server:
  port: 8181
search:
  stopWords: [and, with]
  defaultPageSize: 3
redis:
  enabled: true
  cacheTTL: 5s
`
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SS_SERVER_PORT", "8282")
	t.Setenv("SS_KAFKA_ENABLED", "true")
	t.Setenv("SS_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8282 {
		t.Errorf("env override lost: port = %d", cfg.Server.Port)
	}
	if !slices.Equal(cfg.Search.StopWords, []string{"and", "with"}) || cfg.Search.DefaultPageSize != 3 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 5*time.Second || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !cfg.Kafka.Enabled || !slices.Equal(cfg.Kafka.Brokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("kafka = %+v", cfg.Kafka)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	cfg.Search.DefaultPageSize = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "search.defaultPageSize", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
