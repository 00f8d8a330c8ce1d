package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-result-service/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 5m
classification:
  strict: true
  bands:
    - {level: needs-improvement, min: 0, max: 50}
    - {level: good, min: 50, max: 100}
recommend:
  limit: 5
storage:
  type: minio
  minioEndpoint: localhost:9000
  minioBucket: reports
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected server/redis config: %+v", cfg)
	}
	if !cfg.Classification.Strict || len(cfg.Classification.Bands) != 2 {
		t.Fatalf("unexpected classification config: %+v", cfg.Classification)
	}
	if cfg.Classification.Bands[1].Level != domain.LevelGood {
		t.Fatalf("expected second band to be good, got %q", cfg.Classification.Bands[1].Level)
	}
	if cfg.Recommend.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", cfg.Recommend.Limit)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", got)
	}
}

func TestLoadRejectsBrokenBands(t *testing.T) {
	path := writeConfig(t, `
classification:
  bands:
    - {level: fair, min: 0, max: 40}
    - {level: good, min: 50, max: 100}
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected gap between bands to be rejected")
	}
}

func TestLoadRejectsIncompleteMinio(t *testing.T) {
	path := writeConfig(t, "storage:\n  type: minio\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected minio without endpoint to be rejected")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid duration, got %s", got)
	}
}
