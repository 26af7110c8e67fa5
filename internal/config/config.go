// Package config loads the switchboard configuration: the serving address,
// the notification-channel heartbeat interval, and the credentials and base
// URLs for each upstream collaborator. Values are read once at startup and
// treated as immutable for the process lifetime.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loopwork-ai/switchboard/internal"
)

// Duration wraps time.Duration so intervals can be written as "30s" in YAML
type Duration time.Duration

var _ yaml.Unmarshaler = (*Duration)(nil)

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// BraveConfig configures the Brave Search collaborator
type BraveConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig configures the managed-database REST collaborator
type DatabaseConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Config is the top-level switchboard configuration
type Config struct {
	// Address the HTTP transport listens on
	Address string `yaml:"address"`

	// Token, when set, is required as a bearer token on HTTP requests.
	// When empty the endpoints are open.
	Token string `yaml:"token"`

	// HeartbeatInterval is the cadence of the notification channel's
	// heartbeat events
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`

	Brave    BraveConfig    `yaml:"brave"`
	Database DatabaseConfig `yaml:"database"`
}

// Default returns the configuration used when no file is provided
func Default() *Config {
	return &Config{
		Address:           ":8787",
		HeartbeatInterval: Duration(30 * time.Second),
		Brave: BraveConfig{
			BaseURL: "https://api.search.brave.com/res/v1",
		},
	}
}

// LoadFile loads configuration from a YAML file, falling back to defaults
// when the path is empty or the file does not exist
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return applyEnv(Default()), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(Default()), nil
		}
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader on top of the defaults
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config YAML: %w", err)
	}

	return applyEnv(cfg), nil
}

// applyEnv overlays environment variables onto a loaded configuration.
// Environment wins over file values so deployments can keep credentials out
// of the config file entirely.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("SWITCHBOARD_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := os.Getenv("MCP_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		cfg.Brave.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_API_KEY"); v != "" {
		cfg.Database.APIKey = v
	}
	return cfg
}

// ResolveSecrets resolves any op:// secret references among the credential
// fields. It is called once at startup, before the configuration is handed
// to the tool collaborators.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	fields := []*string{&c.Token, &c.Brave.APIKey, &c.Database.APIKey}
	for _, field := range fields {
		resolved, _, err := internal.ResolveSecretReference(ctx, *field)
		if err != nil {
			return err
		}
		*field = resolved
	}
	return nil
}
