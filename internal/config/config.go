package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/haxagon/internal/board"
)

// EnvPrefix prefixes every environment override, e.g. HAXAGON_SERVER_PORT.
const EnvPrefix = "HAXAGON_"

// Config holds all server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	JWT     JWTConfig     `yaml:"jwt" envPrefix:"JWT_"`
	Redis   RedisConfig   `yaml:"redis" envPrefix:"REDIS_"`
	Session SessionConfig `yaml:"session" envPrefix:"SESSION_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	TickRate int    `yaml:"tick_rate" env:"TICK_RATE"` // Hz
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer" env:"ISSUER"`
	PublicKeyURL        string `yaml:"public_key_url" env:"PUBLIC_KEY_URL"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours" env:"PUBLIC_KEY_REFRESH_HOURS"`
	// Anonymous players are refused when set.
	Required bool `yaml:"required" env:"REQUIRED"`
}

// RedisConfig holds Redis connection settings. An empty address keeps
// scores in memory.
type RedisConfig struct {
	Address         string `yaml:"address" env:"ADDRESS"`
	Password        string `yaml:"password" env:"PASSWORD"`
	DB              int    `yaml:"db" env:"DB"`
	KeyPrefix       string `yaml:"key_prefix" env:"KEY_PREFIX"`
	BlacklistPrefix string `yaml:"blacklist_prefix" env:"BLACKLIST_PREFIX"`
}

// SessionConfig holds game session settings
type SessionConfig struct {
	MaxSessions   int           `yaml:"max_sessions" env:"MAX_SESSIONS"`
	SnapshotEvery int           `yaml:"snapshot_every" env:"SNAPSHOT_EVERY"` // ticks
	DefaultMode   board.ModeKey `yaml:"default_mode" env:"DEFAULT_MODE"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // text or json
}

// Load reads configuration from a YAML file, then applies overrides from the
// environment and an optional .env file in the working directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TickRate == 0 {
		cfg.Server.TickRate = 60
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "haxagon:"
	}
	if cfg.Redis.BlacklistPrefix == "" {
		cfg.Redis.BlacklistPrefix = "jwt:blacklist:"
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 100
	}
	if cfg.Session.SnapshotEvery == 0 {
		cfg.Session.SnapshotEvery = 1
	}
	if cfg.Session.DefaultMode == "" {
		cfg.Session.DefaultMode = board.ModeClassic
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate rejects values the server cannot run with.
func (cfg *Config) Validate() error {
	switch {
	case cfg.Server.Port < 0 || cfg.Server.Port > 65535:
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	case cfg.Server.TickRate < 1 || cfg.Server.TickRate > 240:
		return fmt.Errorf("tick rate %d outside [1, 240]", cfg.Server.TickRate)
	case cfg.Session.MaxSessions < 1:
		return fmt.Errorf("max sessions must be positive, got %d", cfg.Session.MaxSessions)
	case cfg.Session.SnapshotEvery < 1:
		return fmt.Errorf("snapshot interval must be positive, got %d", cfg.Session.SnapshotEvery)
	case !cfg.Session.DefaultMode.Ranked():
		return fmt.Errorf("unknown default mode %q", cfg.Session.DefaultMode)
	case cfg.Log.Format != "text" && cfg.Log.Format != "json":
		return fmt.Errorf("log format must be text or json, got %q", cfg.Log.Format)
	case cfg.JWT.Required && cfg.JWT.PublicKeyURL == "":
		return errors.New("jwt.required needs jwt.public_key_url")
	}
	return nil
}
