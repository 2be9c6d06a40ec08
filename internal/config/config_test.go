package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkstream.toml")
	body := `
[link]
max_write_size = 512
write_timeout_ms = 2000

[stream]
message_id_bound = 1000
compress = false

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Link.MaxWriteSize != 512 {
		t.Fatalf("max_write_size: %d", cfg.Link.MaxWriteSize)
	}
	if cfg.Link.WriteTimeout() != 2*time.Second {
		t.Fatalf("write timeout: %v", cfg.Link.WriteTimeout())
	}
	if cfg.Stream.MessageIDBound != 1000 || cfg.Stream.Compress {
		t.Fatalf("stream config: %+v", cfg.Stream)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level: %q", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected load failure")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"max write too small", func(c *Config) { c.Link.MaxWriteSize = 8 }, ErrMaxWriteTooSmall},
		{"id bound of one", func(c *Config) { c.Stream.MessageIDBound = 1 }, ErrIDBoundTooSmall},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
