package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Mode != "concurrent" {
		t.Errorf("expected Mode to be concurrent, got %q", cfg.Mode)
	}
	if cfg.GroupDelay != 3*time.Second {
		t.Errorf("expected GroupDelay to be 3s, got %v", cfg.GroupDelay)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("expected MaxRetries to be 2, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 3*time.Second || cfg.RetryMultiplier != 1 {
		t.Errorf("expected retry delay 3s x1, got %v x%v", cfg.RetryDelay, cfg.RetryMultiplier)
	}
	if cfg.ConnectRetries != 3 || cfg.ConnectRetryDelay != 3*time.Second {
		t.Errorf("expected 3 connect retries every 3s, got %d every %v", cfg.ConnectRetries, cfg.ConnectRetryDelay)
	}
	if !cfg.EscapeDuplicates {
		t.Error("expected EscapeDuplicates to be true")
	}
	if !cfg.IgnorePathDomains || cfg.AllowPathDomains {
		t.Error("expected URLs with paths to be rejected by default")
	}
	if cfg.LivenessInterval != time.Second {
		t.Errorf("expected LivenessInterval to be 1s, got %v", cfg.LivenessInterval)
	}
	if cfg.CacheScope != "group" {
		t.Errorf("expected CacheScope to be group, got %q", cfg.CacheScope)
	}
	if cfg.HeaderConcurrency != 4 {
		t.Errorf("expected HeaderConcurrency to be 4, got %d", cfg.HeaderConcurrency)
	}
	if cfg.HistoryDir != XDGDataDir() {
		t.Errorf("expected HistoryDir to be %q, got %q", XDGDataDir(), cfg.HistoryDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "empty output dir", modify: func(c *Config) { c.OutputDir = "" }, want: ErrNoOutputDir},
		{name: "unknown mode", modify: func(c *Config) { c.Mode = "async" }, want: ErrInvalidMode},
		{name: "sequential mode", modify: func(c *Config) { c.Mode = "sequential" }},
		{name: "negative concurrency", modify: func(c *Config) { c.Concurrency = -1 }, want: ErrInvalidConcurrency},
		{name: "negative group delay", modify: func(c *Config) { c.GroupDelay = -time.Second }, want: ErrInvalidGroupDelay},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "zero retries", modify: func(c *Config) { c.MaxRetries = 0 }},
		{name: "negative retries", modify: func(c *Config) { c.MaxRetries = -1 }, want: ErrInvalidMaxRetries},
		{name: "negative multiplier", modify: func(c *Config) { c.RetryMultiplier = -0.5 }, want: ErrInvalidRetryDelay},
		{name: "no connect retries", modify: func(c *Config) { c.ConnectRetries = 0 }},
		{name: "negative connect retries", modify: func(c *Config) { c.ConnectRetries = -1 }, want: ErrInvalidConnectRetry},
		{name: "negative connect retry delay", modify: func(c *Config) { c.ConnectRetryDelay = -time.Second }, want: ErrInvalidConnectRetry},
		{name: "negative liveness interval", modify: func(c *Config) { c.LivenessInterval = -1 }, want: ErrInvalidLivenessInterval},
		{name: "unknown cache scope", modify: func(c *Config) { c.CacheScope = "global" }, want: ErrInvalidCacheScope},
		{name: "zero header concurrency", modify: func(c *Config) { c.HeaderConcurrency = 0 }, want: ErrInvalidHeaderConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("overrides fields", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(envMap(map[string]string{
			"MIRRORSYNC_MODE":              "sequential",
			"MIRRORSYNC_GROUP_DELAY":       "500ms",
			"MIRRORSYNC_MAX_RETRIES":       "5",
			"MIRRORSYNC_RETRY_MULTIPLIER":  "1.5",
			"MIRRORSYNC_ESCAPE_DUPLICATES": "false",
			"MIRRORSYNC_GROUPS_ONLY":       " Piped, nitter ,,",
			"MIRRORSYNC_MAX_BODY_SIZE":     "2048",
			"MIRRORSYNC_TOR_PROXY":         "127.0.0.1:9150",
			"MIRRORSYNC_CONNECT_RETRIES":   "1",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Mode != "sequential" {
			t.Errorf("expected Mode sequential, got %q", cfg.Mode)
		}
		if cfg.GroupDelay != 500*time.Millisecond {
			t.Errorf("expected GroupDelay 500ms, got %v", cfg.GroupDelay)
		}
		if cfg.MaxRetries != 5 || cfg.RetryMultiplier != 1.5 {
			t.Errorf("expected retries 5 x1.5, got %d x%v", cfg.MaxRetries, cfg.RetryMultiplier)
		}
		if cfg.EscapeDuplicates {
			t.Error("expected EscapeDuplicates to be false")
		}
		if len(cfg.GroupsOnly) != 2 || cfg.GroupsOnly[0] != "Piped" || cfg.GroupsOnly[1] != "nitter" {
			t.Errorf("expected [Piped nitter], got %v", cfg.GroupsOnly)
		}
		if cfg.MaxBodySize != 2048 {
			t.Errorf("expected MaxBodySize 2048, got %d", cfg.MaxBodySize)
		}
		if cfg.ConnectRetries != 1 {
			t.Errorf("expected ConnectRetries 1, got %d", cfg.ConnectRetries)
		}
		if cfg.TorProxyAddress != "127.0.0.1:9150" {
			t.Errorf("expected TorProxyAddress override, got %q", cfg.TorProxyAddress)
		}
	})

	t.Run("leaves unset fields alone", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ApplyEnv(envMap(nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Mode != DefaultMode || cfg.Timeout != DefaultTimeout {
			t.Errorf("expected defaults to survive, got mode %q timeout %v", cfg.Mode, cfg.Timeout)
		}
	})

	t.Run("reports parse failures", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(envMap(map[string]string{"MIRRORSYNC_TIMEOUT": "soon"}))
		if !errors.Is(err, ErrInvalidEnv) {
			t.Errorf("expected ErrInvalidEnv, got %v", err)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MIRRORSYNC_TEST_A=env\nMIRRORSYNC_TEST_B=env\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("MIRRORSYNC_TEST_A=local\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("MIRRORSYNC_TEST_A")
		os.Unsetenv("MIRRORSYNC_TEST_B")
	})

	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("MIRRORSYNC_TEST_A"); got != "local" {
		t.Errorf("expected .env.local to win, got %q", got)
	}
	if got := os.Getenv("MIRRORSYNC_TEST_B"); got != "env" {
		t.Errorf("expected .env value, got %q", got)
	}

	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Errorf("expected missing files to be skipped, got %v", err)
	}
}

func TestFindCatalogFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path must exist", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
		if _, err := cfg.FindCatalogFile(); !errors.Is(err, ErrCatalogNotFound) {
			t.Errorf("expected ErrCatalogNotFound, got %v", err)
		}
	})

	t.Run("explicit path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("groups: []\n"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg := NewConfig()
		cfg.CatalogPath = path
		got, err := cfg.FindCatalogFile()
		if err != nil || got != path {
			t.Errorf("expected %q, got %q (%v)", path, got, err)
		}
	})

	t.Run("catalog in output dir", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, CatalogFileName)
		if err := os.WriteFile(path, []byte("groups: []\n"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg := NewConfig()
		cfg.OutputDir = dir
		got, err := cfg.FindCatalogFile()
		if err != nil || got != path {
			t.Errorf("expected %q, got %q (%v)", path, got, err)
		}
	})
}
