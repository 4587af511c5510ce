package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SWEEPER_ADDR", "STORE_MODE", "DATABASE_URL", "SQLITE_PATH", "ORACLE",
		"PRESETS_FILE", "LOG_LEVEL", "HISTORY_LIMIT", "TABLE_IDLE_TTL", "CORS_ORIGINS",
		"MAX_CELLS",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv err: %v", err)
	}
	if cfg.Addr != defaultAddr || cfg.StoreMode != StoreMemory {
		t.Fatalf("unexpected defaults: addr=%q store=%q", cfg.Addr, cfg.StoreMode)
	}
	if cfg.LogLevel != logrus.InfoLevel || cfg.HistoryLimit != defaultHistoryLimit {
		t.Fatalf("unexpected defaults: level=%v history=%d", cfg.LogLevel, cfg.HistoryLimit)
	}
	if cfg.MaxCells != defaultMaxCells {
		t.Fatalf("unexpected max cells: %d", cfg.MaxCells)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_MODE", "local")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HISTORY_LIMIT", "7")
	t.Setenv("TABLE_IDLE_TTL", "90s")
	t.Setenv("MAX_CELLS", "400")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv err: %v", err)
	}
	if cfg.StoreMode != StoreSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Fatalf("store not applied: %q %q", cfg.StoreMode, cfg.SQLitePath)
	}
	if cfg.LogLevel != logrus.DebugLevel || cfg.HistoryLimit != 7 || cfg.TableIdleTTL != 90*time.Second || cfg.MaxCells != 400 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Rejects(t *testing.T) {
	cases := map[string][2]string{
		"store mode": {"STORE_MODE", "mongo"},
		"log level":  {"LOG_LEVEL", "loud"},
		"idle ttl":   {"TABLE_IDLE_TTL", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", kv[0], kv[1])
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("ORACLE")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ORACLE=random:seed=3\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Oracle != "random:seed=3" {
		t.Fatalf("expected oracle from env file, got %q", cfg.Oracle)
	}
	os.Unsetenv("ORACLE")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}
}
