package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/Mshel/lightcycle/internal/game"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// File is the whole lightcycle configuration. Engine keys live at the top
// level so a bare engine config is also a valid file.
type File struct {
	LogLevel string      `yaml:"log_level"`
	Engine   game.Config `yaml:",inline"`
	Server   Server      `yaml:"server"`
	Arena    Arena       `yaml:"arena"`
}

type Server struct {
	SSHAddress          string `yaml:"ssh_address"`
	HostKeyPath         string `yaml:"host_key_path"`
	HTTPAddress         string `yaml:"http_address"`
	MaxConnectionsPerIP int    `yaml:"max_connections_per_ip"`
	TickMS              int    `yaml:"tick_ms"`
}

func (s Server) Tick() time.Duration {
	return time.Duration(s.TickMS) * time.Millisecond
}

type Arena struct {
	DBPath        string             `yaml:"db_path"`
	PruneSchedule string             `yaml:"prune_schedule"`
	RetentionDays int                `yaml:"retention_days"`
	Opponent      string             `yaml:"opponent"`
	Series        arena.SeriesConfig `yaml:"series"`
}

func (a Arena) RetentionAge() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

func Default() File {
	return File{
		LogLevel: "info",
		Engine:   game.DefaultConfig(),
		Server: Server{
			SSHAddress:          "0.0.0.0:6996",
			HostKeyPath:         ".ssh/id_ed25519",
			HTTPAddress:         ":8080",
			MaxConnectionsPerIP: 2,
			TickMS:              120,
		},
		Arena: Arena{
			DBPath:        "lightcycle.db",
			PruneSchedule: "0 3 * * *",
			RetentionDays: 30,
			Opponent:      "random",
			Series:        arena.DefaultSeriesConfig(),
		},
	}
}

// Load reads path over the defaults, applies LIGHTCYCLE_* environment
// overrides and validates the result. An empty path loads the defaults.
func Load(path string) (*File, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	cfg.applyDefaults()
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (f *File) applyDefaults() {
	defaults := Default()
	f.Engine.ApplyDefaults()
	if f.LogLevel == "" {
		f.LogLevel = defaults.LogLevel
	}
	if f.Server.MaxConnectionsPerIP == 0 {
		f.Server.MaxConnectionsPerIP = defaults.Server.MaxConnectionsPerIP
	}
	if f.Server.TickMS == 0 {
		f.Server.TickMS = defaults.Server.TickMS
	}
	if f.Arena.Opponent == "" {
		f.Arena.Opponent = defaults.Arena.Opponent
	}
	series, fallback := &f.Arena.Series, defaults.Arena.Series
	if series.Width == 0 {
		series.Width = fallback.Width
	}
	if series.Height == 0 {
		series.Height = fallback.Height
	}
	if series.MaxTurns == 0 {
		series.MaxTurns = fallback.MaxTurns
	}
}

func applyEnvOverrides(cfg *File) {
	if val := os.Getenv("LIGHTCYCLE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("LIGHTCYCLE_TIME_BUDGET_MS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.TimeBudgetMS = i
		} else {
			log.Warn("Ignoring malformed LIGHTCYCLE_TIME_BUDGET_MS", "value", val)
		}
	}
	if val := os.Getenv("LIGHTCYCLE_DB_PATH"); val != "" {
		cfg.Arena.DBPath = val
	}
	if val := os.Getenv("LIGHTCYCLE_SSH_ADDRESS"); val != "" {
		cfg.Server.SSHAddress = val
	}
	if val := os.Getenv("LIGHTCYCLE_HOST_KEY_PATH"); val != "" {
		cfg.Server.HostKeyPath = val
	}
	if val := os.Getenv("LIGHTCYCLE_HTTP_ADDRESS"); val != "" {
		cfg.Server.HTTPAddress = val
	}
}

func (f *File) Validate() error {
	var errs []error
	if err := f.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	if _, err := log.ParseLevel(f.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if f.Server.MaxConnectionsPerIP < 1 {
		errs = append(errs, fmt.Errorf("server.max_connections_per_ip must be at least 1, got %d", f.Server.MaxConnectionsPerIP))
	}
	if f.Server.TickMS < 1 {
		errs = append(errs, fmt.Errorf("server.tick_ms must be positive, got %d", f.Server.TickMS))
	}
	if f.Arena.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("arena.retention_days must not be negative, got %d", f.Arena.RetentionDays))
	}
	series := f.Arena.Series
	if series.Games < 0 {
		errs = append(errs, fmt.Errorf("arena.series.games must not be negative, got %d", series.Games))
	}
	if series.Width < 2 || series.Height < 1 {
		errs = append(errs, fmt.Errorf("arena.series board %dx%d is too small", series.Width, series.Height))
	}
	if series.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("arena.series.max_turns must be positive, got %d", series.MaxTurns))
	}
	return errors.Join(errs...)
}

// Level is the parsed log level. Validate has already checked it.
func (f *File) Level() log.Level {
	level, err := log.ParseLevel(f.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
