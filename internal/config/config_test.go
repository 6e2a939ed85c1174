package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 9000, "log_level": "debug"},
		"providers": [
			{"type": "openai", "model": "gpt-4o"},
			{"type": "anthropic"}
		],
		"database": {"postgres": {"dsn": "postgres://localhost/ponder"}},
		"cache": {"redis": {"url": "redis://localhost:6379/0"}, "ttl_seconds": 600},
		"reasoning": {"default_provider": "openai", "default_strategy": "standard", "num_samples": 5}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("got port %d, want 9000", cfg.Server.Port)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0].Type != "openai" || cfg.Providers[0].Model != "gpt-4o" {
		t.Errorf("got providers %+v", cfg.Providers)
	}
	if cfg.Database.Postgres.DSN != "postgres://localhost/ponder" {
		t.Errorf("got dsn %q", cfg.Database.Postgres.DSN)
	}
	if cfg.Cache.TTLSeconds != 600 {
		t.Errorf("got ttl %d", cfg.Cache.TTLSeconds)
	}
	if cfg.Reasoning.NumSamples != 5 {
		t.Errorf("got num_samples %d", cfg.Reasoning.NumSamples)
	}
}

func TestLoadEnvSubstitution(t *testing.T) {
	t.Setenv("PONDER_TEST_KEY", "sk-secret")
	os.Unsetenv("PONDER_TEST_UNSET")

	path := writeConfig(t, `{
		"providers": [{"type": "openai", "api_key": "${PONDER_TEST_KEY}"}],
		"database": {"postgres": {"dsn": "${PONDER_TEST_UNSET:postgres://fallback/db}"}},
		"cache": {"redis": {"url": "${PONDER_TEST_UNSET}"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers[0].APIKey != "sk-secret" {
		t.Errorf("got api key %q, want env value", cfg.Providers[0].APIKey)
	}
	if cfg.Database.Postgres.DSN != "postgres://fallback/db" {
		t.Errorf("got dsn %q, want default value", cfg.Database.Postgres.DSN)
	}
	if cfg.Cache.Redis.URL != "" {
		t.Errorf("got url %q, want empty for unset var without default", cfg.Cache.Redis.URL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, "{not json")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
