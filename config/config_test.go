package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Store != StoreFile || c.Currency != "USD" || c.Tick != 2*time.Second || c.Log.Level != "warn" {
		t.Errorf("Load() = %+v", c)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "bkr.yaml")
	if err := os.WriteFile(cfg, []byte("store: sqlite\ndata: /tmp/a.db\ncurrency: eur\nlog:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("BKR_PLAIN=true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BKR_DATA", "/tmp/b.db")
	t.Setenv("BKR_LOG_FORMAT", "json")
	// godotenv never overrides an existing variable; register it for cleanup.
	t.Setenv("BKR_PLAIN", "")
	os.Unsetenv("BKR_PLAIN")

	c, err := Load(cfg, env, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Store != StoreSQLite || c.Currency != "EUR" || c.Log.Level != "debug" {
		t.Errorf("file values not applied: %+v", c)
	}
	if c.Data != "/tmp/b.db" || c.Log.Format != "json" {
		t.Errorf("environment does not override the file: %+v", c)
	}
	if !c.Plain {
		t.Errorf(".env value not applied: %+v", c)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := map[string]string{
		"BKR_STORE":     "redis",
		"BKR_AUTH_COST": "2",
		"BKR_TICK":      "-1s",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(""); err == nil {
				t.Errorf("Load() with %s=%s succeeded", k, v)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("Load() of a missing explicit file succeeded")
	}
}

func TestLoad_ConfigFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(cfg, []byte("store: memory\ntick: 250ms\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BKR_CONFIG", cfg)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Store != StoreMemory || c.Tick != 250*time.Millisecond {
		t.Errorf("BKR_CONFIG file not applied: %+v", c)
	}
}
