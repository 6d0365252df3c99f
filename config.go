package packet

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the deployment settings shared by every parser of a process.
type Config struct {
	// MaxBodyLength bounds the length field of every frame, in and out.
	MaxBodyLength int `toml:"max_body_length"`
	// BufferSize is the initial capacity of pooled buffers.
	BufferSize int `toml:"buffer_size"`
	// LogLevel is a zerolog level name.
	LogLevel string `toml:"log_level"`
	// RateLimit caps dispatched frames per second for each session; zero disables it.
	RateLimit float64 `toml:"rate_limit"`
	// RateBurst is the token bucket size used with RateLimit.
	RateBurst int `toml:"rate_burst"`
}

// DefaultConfig returns the settings used when no file overrides them.
func DefaultConfig() Config {
	return Config{
		MaxBodyLength: PacketBodyMaxLength,
		BufferSize:    DefaultBufferSize,
		LogLevel:      "info",
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := DecodeConfig(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig parses TOML text on top of DefaultConfig. Unknown keys are
// rejected so a misspelled limit does not silently fall back to its default.
func DecodeConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for internal consistency.
func (c Config) Validate() error {
	if c.MaxBodyLength <= 0 {
		return fmt.Errorf("max_body_length must be positive, got %d", c.MaxBodyLength)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive, got %d", c.BufferSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive when rate_limit is set")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, l := range []Layout{c.InnerLayout(), c.OuterLayout()} {
		if err := ValidateLayout(l); err != nil {
			return err
		}
	}
	return nil
}

// InnerLayout returns the server-internal header shape with the configured limit.
func (c Config) InnerLayout() InnerLayout { return InnerLayout{MaxBody: c.MaxBodyLength} }

// OuterLayout returns the client-facing header shape with the configured limit.
func (c Config) OuterLayout() OuterLayout { return OuterLayout{MaxBody: c.MaxBodyLength} }
