package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/tote/internal/state"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the resolved tote configuration.
type Config struct {
	APIBase        string
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       slog.Level
	ReturnBase     string
	Storage        StorageConfig
	Sync           SyncConfig
}

// StorageConfig selects where the session slots live.
type StorageConfig struct {
	Backend       string
	Path          string
	WatchInterval time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SyncConfig tunes store behaviour.
type SyncConfig struct {
	Ordering      state.Ordering
	VerifyOnStart bool
}

const (
	defaultConfigPath     = "~/.config/tote/config.toml"
	defaultAPIBase        = "https://ecommerce.routemisr.com/api"
	defaultRequestTimeout = 15 * time.Second
	defaultLogFile        = "~/.local/state/tote/tote.log"
	defaultReturnBase     = "http://localhost:3000"
	defaultSessionPath    = "~/.local/state/tote/session.toml"
	defaultWatchInterval  = time.Second
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultRedisPrefix    = "tote:"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		RequestTimeout: defaultRequestTimeout,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       slog.LevelInfo,
		ReturnBase:     defaultReturnBase,
		Storage: StorageConfig{
			Backend:       BackendFile,
			Path:          mustExpand(defaultSessionPath),
			WatchInterval: defaultWatchInterval,
			RedisAddr:     defaultRedisAddr,
			RedisPrefix:   defaultRedisPrefix,
		},
		Sync: SyncConfig{Ordering: state.LastResponseWins, VerifyOnStart: true},
	}
}

type rawConfig struct {
	APIBase        string `toml:"api_base"`
	RequestTimeout string `toml:"request_timeout"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
	ReturnBase     string `toml:"return_base"`
	Storage        struct {
		Backend       string `toml:"backend"`
		Path          string `toml:"path"`
		WatchInterval string `toml:"watch_interval"`
		RedisAddr     string `toml:"redis_addr"`
		RedisPassword string `toml:"redis_password"`
		RedisDB       int    `toml:"redis_db"`
		RedisPrefix   string `toml:"redis_prefix"`
	} `toml:"storage"`
	Sync struct {
		Ordering      string `toml:"ordering"`
		VerifyOnStart *bool  `toml:"verify_on_start"`
	} `toml:"sync"`
}

// Load locates and parses the tote config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if cfg.RequestTimeout, err = duration(raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, fmt.Errorf("parse request_timeout: %w", err)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("parse log_level: %w", err)
		}
	}
	if v := strings.TrimSpace(raw.ReturnBase); v != "" {
		cfg.ReturnBase = v
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Storage.Backend)); v != "" {
		switch v {
		case BackendFile, BackendMemory, BackendRedis:
			cfg.Storage.Backend = v
		default:
			return Config{}, fmt.Errorf("parse storage.backend: unknown backend %q", raw.Storage.Backend)
		}
	}
	if v := strings.TrimSpace(raw.Storage.Path); v != "" {
		cfg.Storage.Path = mustExpand(v)
	}
	if cfg.Storage.WatchInterval, err = duration(raw.Storage.WatchInterval, defaultWatchInterval); err != nil {
		return Config{}, fmt.Errorf("parse storage.watch_interval: %w", err)
	}
	if v := strings.TrimSpace(raw.Storage.RedisAddr); v != "" {
		cfg.Storage.RedisAddr = v
	}
	cfg.Storage.RedisPassword = raw.Storage.RedisPassword
	cfg.Storage.RedisDB = raw.Storage.RedisDB
	if v := strings.TrimSpace(raw.Storage.RedisPrefix); v != "" {
		cfg.Storage.RedisPrefix = v
	}

	if cfg.Sync.Ordering, err = state.ParseOrdering(raw.Sync.Ordering); err != nil {
		return Config{}, fmt.Errorf("parse sync.ordering: %w", err)
	}
	if raw.Sync.VerifyOnStart != nil {
		cfg.Sync.VerifyOnStart = *raw.Sync.VerifyOnStart
	}

	return cfg, nil
}

func duration(raw string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", trimmed)
	}
	return d, nil
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
