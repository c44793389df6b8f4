// Package config loads clipnote settings from a YAML file, CLIPNOTE_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CLIPNOTE"

// AIConfig configures the remote classifier
type AIConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type RemindersConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// AuthConfig configures bearer token verification. With no secret every
// request acts as DevOwner.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	DevOwner  string `mapstructure:"dev_owner"`
}

type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subject         string `mapstructure:"subject"`
}

// Enabled reports whether web push can be used
func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != "" && p.Subject != ""
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds application configuration
type Config struct {
	DB          string          `mapstructure:"db"`
	Owner       string          `mapstructure:"owner"`
	FetchTitles bool            `mapstructure:"fetch_titles"`
	Server      ServerConfig    `mapstructure:"server"`
	AI          AIConfig        `mapstructure:"ai"`
	Reminders   RemindersConfig `mapstructure:"reminders"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Push        PushConfig      `mapstructure:"push"`
	NATS        NATSConfig      `mapstructure:"nats"`
	Log         LogConfig       `mapstructure:"log"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		DB:          "clipnote.db",
		Owner:       "local",
		FetchTitles: false,
		Server:      ServerConfig{Addr: ":8080"},
		AI: AIConfig{
			Endpoint:        "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			Timeout:         30 * time.Second,
			MaxOutputTokens: 500,
			Temperature:     0.1,
		},
		Reminders: RemindersConfig{Interval: time.Minute},
		Auth:      AuthConfig{DevOwner: "local"},
		NATS:      NATSConfig{Subject: "clipnote.reminders"},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// SetDefaults registers every default key on v so environment variables
// can override keys that appear in no config file
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db", d.DB)
	v.SetDefault("owner", d.Owner)
	v.SetDefault("fetch_titles", d.FetchTitles)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("ai.endpoint", d.AI.Endpoint)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.max_output_tokens", d.AI.MaxOutputTokens)
	v.SetDefault("ai.temperature", d.AI.Temperature)
	v.SetDefault("reminders.interval", d.Reminders.Interval)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.dev_owner", d.Auth.DevOwner)
	v.SetDefault("push.vapid_public_key", d.Push.VAPIDPublicKey)
	v.SetDefault("push.vapid_private_key", d.Push.VAPIDPrivateKey)
	v.SetDefault("push.subject", d.Push.Subject)
	v.SetDefault("nats.url", d.NATS.URL)
	v.SetDefault("nats.subject", d.NATS.Subject)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration into a Config. path may be empty, in which case
// $CLIPNOTE_CONFIG or ~/.config/clipnote/config.yaml is used when present.
// Environment variables (CLIPNOTE_AI_API_KEY, ...) take precedence over the
// file; flags bound on v take precedence over both.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if !missing || explicit {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return errors.New("config: db path is required")
	}
	if c.Reminders.Interval <= 0 {
		return fmt.Errorf("config: reminders.interval must be positive, got %s", c.Reminders.Interval)
	}
	if c.AI.Temperature < 0 {
		return fmt.Errorf("config: ai.temperature must not be negative, got %v", c.AI.Temperature)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// DefaultPath returns $CLIPNOTE_CONFIG or ~/.config/clipnote/config.yaml
func DefaultPath() string {
	if p := os.Getenv(envPrefix + "_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clipnote", "config.yaml")
}

// WriteExample writes the default configuration to path. An existing file
// is left untouched unless force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	v := viper.New()
	SetDefaults(v)
	settings := v.AllSettings()
	stringifyDurations(settings)

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// stringifyDurations rewrites durations as "30s" style strings, which
// read back through viper unchanged
func stringifyDurations(m map[string]any) {
	for k, val := range m {
		switch x := val.(type) {
		case time.Duration:
			m[k] = x.String()
		case map[string]any:
			stringifyDurations(x)
		}
	}
}
