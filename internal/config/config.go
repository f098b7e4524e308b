package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"lol-autopilot/internal/domain"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Flags carries the command-line choices for this run.
type Flags struct {
	EnvFile       string
	Pick          string
	Ban           string
	Role          string
	NoLoadout     bool
	WaitForStart  bool
	ChampionsFile string
}

type Config struct {
	LockfilePath     string        `env:"LOCKFILE_PATH"`
	LogLevel         string        `env:"LOG_LEVEL"         envDefault:"info"`
	PollInterval     time.Duration `env:"POLL_INTERVAL"     envDefault:"1s"`
	LockInDelay      time.Duration `env:"LOCK_IN_DELAY"     envDefault:"0s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"   envDefault:"5s"`
	ReconnectBackoff time.Duration `env:"RECONNECT_BACKOFF" envDefault:"3s"`
	AutoQueue        bool          `env:"AUTO_QUEUE"        envDefault:"false"`
	AutoAccept       bool          `env:"AUTO_ACCEPT"       envDefault:"true"`
	AutoLoadout      bool          `env:"AUTO_LOADOUT"      envDefault:"true"`
	FlashOnF         bool          `env:"FLASH_ON_F"        envDefault:"true"`
	DBPath           string        `env:"DB_PATH"           envDefault:"autopilot.db"`
	ControlAddr      string        `env:"CONTROL_ADDR"      envDefault:"127.0.0.1:6175"`
	ChampionsFile    string        `env:"CHAMPIONS_FILE"`
	RunePagePrefix   string        `env:"RUNE_PAGE_PREFIX"  envDefault:"Auto:"`

	Champions    Champions `env:"-"`
	Request      Request   `env:"-"`
	WaitForStart bool      `env:"-"`
}

// DefaultChampionsFile may be missing; a file named explicitly may not.
const DefaultChampionsFile = "champions.yaml"

// Request is the operator's original ask for this session.
type Request struct {
	Pick string
	Ban  string
	Role domain.Role
}

// LoadEnvFile loads a .env file into the process environment. A missing
// default file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load(logger zerolog.Logger, flags Flags) (*Config, error) {
	if err := LoadEnvFile(flags.EnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if flags.ChampionsFile != "" {
		cfg.ChampionsFile = flags.ChampionsFile
	}
	if flags.NoLoadout {
		cfg.AutoLoadout = false
	}
	cfg.WaitForStart = flags.WaitForStart

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.LockInDelay < 0 {
		return nil, fmt.Errorf("LOCK_IN_DELAY must not be negative, got %s", cfg.LockInDelay)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}

	role, err := domain.ParseRole(flags.Role)
	if err != nil {
		return nil, err
	}
	cfg.Request = Request{Pick: flags.Pick, Ban: flags.Ban, Role: role}

	optional := cfg.ChampionsFile == ""
	if optional {
		cfg.ChampionsFile = DefaultChampionsFile
	}
	champs, err := LoadChampions(cfg.ChampionsFile, optional)
	if err != nil {
		return nil, err
	}
	cfg.Champions = champs

	logger.Info().
		Str("lockfile", cfg.LockfilePath).
		Str("log_level", level.String()).
		Dur("poll_interval", cfg.PollInterval).
		Dur("lock_in_delay", cfg.LockInDelay).
		Bool("auto_queue", cfg.AutoQueue).
		Bool("auto_loadout", cfg.AutoLoadout).
		Str("db_path", cfg.DBPath).
		Str("control_addr", cfg.ControlAddr).
		Str("role", string(cfg.Request.Role)).
		Msg("configuration loaded")

	return cfg, nil
}

var Module = fx.Provide(Load)
