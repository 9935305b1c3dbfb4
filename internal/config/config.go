// Package config loads settings from flags, an optional YAML file and
// STUDYDECK_ environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/pkg/validator"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "STUDYDECK_"

type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	DB        DBConfig        `koanf:"db"`
	Auth      AuthConfig      `koanf:"auth"`
	Study     StudyConfig     `koanf:"study"`
	Generator GeneratorConfig `koanf:"generator"`
	Import    ImportConfig    `koanf:"import"`
	Log       LogConfig       `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

type DBConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	// DevUser, when set, authenticates every request as this subject.
	DevUser string `koanf:"dev_user"`
}

type StudyConfig struct {
	CardSeconds int           `koanf:"card_seconds" validate:"gte=5,lte=300"`
	TimeBudget  int           `koanf:"time_budget"`
	IdleTimeout time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	// HeartbeatTimeout pauses a session whose page stopped polling.
	HeartbeatTimeout time.Duration `koanf:"heartbeat_timeout" validate:"gt=0"`
}

type GeneratorConfig struct {
	Provider      string `koanf:"provider" validate:"oneof=http openai none"`
	URL           string `koanf:"url" validate:"required_if=Provider http"`
	APIKey        string `koanf:"api_key"`
	Model         string `koanf:"model"`
	MaxCards      int    `koanf:"max_cards" validate:"gte=1,lte=50"`
	RatePerMinute int    `koanf:"rate_per_minute" validate:"gte=1"`
}

type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// RegisterFlags declares every setting as a flag. Flag defaults are the
// configuration defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")

	fs.String("http.addr", ":8080", "HTTP listen address")
	fs.String("db.driver", "sqlite", "database driver (sqlite or postgres)")
	fs.String("db.dsn", "studydeck.db", "database DSN or sqlite file path")
	fs.Int("db.max_open_conns", 10, "max open connections (postgres)")
	fs.String("auth.jwt_secret", "", "HS256 secret for bearer tokens")
	fs.String("auth.dev_user", "", "authenticate every request as this subject (development only)")
	fs.Int("study.card_seconds", 30, "per-card countdown in seconds")
	fs.Int("study.time_budget", 300, "session length in seconds used for scoring")
	fs.Duration("study.idle_timeout", 30*time.Minute, "evict study sessions idle for longer than this")
	fs.Duration("study.heartbeat_timeout", 10*time.Second, "pause study sessions whose page stopped polling for this long")
	fs.String("generator.provider", "none", "card generator (http, openai or none)")
	fs.String("generator.url", "", "base URL of the http generator")
	fs.String("generator.api_key", "", "OpenAI API key")
	fs.String("generator.model", "gpt-4o-mini", "OpenAI chat model")
	fs.Int("generator.max_cards", 10, "max cards per generate request")
	fs.Int("generator.rate_per_minute", 6, "generate requests per user per minute")
	fs.String("import.repos_dir", "repos", "checkout directory for git sources")
	fs.String("log.level", "info", "log level (debug, info, warn, error)")
	fs.String("log.format", "text", "log format (text or json)")
}

// Load merges the config file, the environment and the flags, in rising
// order of precedence for explicitly set flags. Unset flags only supply
// defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// STUDYDECK_DB_MAX_OPEN_CONNS -> db.max_open_conns
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		section, rest, found := strings.Cut(key, "_")
		if !found {
			return key
		}
		return section + "." + rest
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLogger builds the process logger.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
