package lrkservice

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// MinSecretSize is the minimum acceptable length, in bytes, of a
	// configured JWT secret.
	MinSecretSize = 32
)

// Config is a configuration for an lrkserver instance, loaded from a TOML
// file mirroring the shape the teacher's internal/tqw package uses for its
// own resource files.
type Config struct {
	// Listen is the address to bind the HTTP server to, e.g. ":8080".
	Listen string `toml:"listen"`

	// Secret is the server's JWT signing secret.
	Secret string `toml:"secret"`

	// DataDir is the directory the SQLite database file lives in.
	DataDir string `toml:"data_dir"`

	// DefaultK is the lookahead bound used for a build request that does not
	// specify one.
	DefaultK int `toml:"default_k"`

	// UnauthDelayMillis delays HTTP-401/403/500 responses by this many
	// milliseconds, to deprioritize malformed or malicious traffic.
	UnauthDelayMillis int `toml:"unauth_delay_millis"`
}

// LoadConfigFile reads and parses a Config from a TOML file at path.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg.FillDefaults(), nil
}

// FillDefaults returns a copy of cfg with unset fields replaced by their
// defaults.
func (cfg Config) FillDefaults() Config {
	out := cfg
	if out.Listen == "" {
		out.Listen = ":8080"
	}
	if out.DataDir == "" {
		out.DataDir = "."
	}
	if out.DefaultK == 0 {
		out.DefaultK = 1
	}
	if out.UnauthDelayMillis == 0 {
		out.UnauthDelayMillis = 1000
	}
	return out
}

// Validate returns an error if cfg has invalid or missing required fields.
func (cfg Config) Validate() error {
	if len(cfg.Secret) < MinSecretSize {
		return fmt.Errorf("secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.Secret))
	}
	return nil
}

// UnauthDelay returns the configured delay as a time.Duration.
func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		return 0
	}
	return time.Millisecond * time.Duration(cfg.UnauthDelayMillis)
}

