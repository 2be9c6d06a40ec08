// Package config loads and validates linkstream TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mvrik/linkstream/internal/protocol/packet"
)

var (
	ErrMaxWriteTooSmall = errors.New("config: link max_write_size too small")
	ErrIDBoundTooSmall  = errors.New("config: stream message_id_bound must be at least 2")
)

type Config struct {
	Link   LinkConfig   `toml:"link"`
	Stream StreamConfig `toml:"stream"`
	Log    LogConfig    `toml:"log"`
}

type LinkConfig struct {
	MaxWriteSize   int `toml:"max_write_size"`
	ReadTimeoutMS  int `toml:"read_timeout_ms"`
	WriteTimeoutMS int `toml:"write_timeout_ms"`
}

type StreamConfig struct {
	// MessageIDBound is the wrap bound for outbound message ids;
	// zero selects the built-in default.
	MessageIDBound uint32 `toml:"message_id_bound"`
	Compress       bool   `toml:"compress"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Link: LinkConfig{
			MaxWriteSize:   1024,
			ReadTimeoutMS:  0,
			WriteTimeoutMS: 10_000,
		},
		Stream: StreamConfig{
			Compress: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Link.MaxWriteSize < packet.MinWriteSize {
		return fmt.Errorf("%w: %d < %d", ErrMaxWriteTooSmall, c.Link.MaxWriteSize, packet.MinWriteSize)
	}
	if c.Stream.MessageIDBound == 1 {
		return ErrIDBoundTooSmall
	}
	return nil
}

func (c LinkConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

func (c LinkConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}
