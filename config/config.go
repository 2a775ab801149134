// Package config loads the server settings from the environment, with an
// optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spexcher/Pictionary/game"
)

var (
	ErrMissingOrigins = errors.New("missing-allowed-origins")
	ErrInvalidConfig  = errors.New("invalid-config")
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Debug          bool   `mapstructure:"DEBUG"`

	JWTKey string        `mapstructure:"JWT_KEY"`
	JWTTTL time.Duration `mapstructure:"JWT_TTL"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	MinPlayers         int           `mapstructure:"MIN_PLAYERS"`
	MaxPlayers         int           `mapstructure:"MAX_PLAYERS"`
	EasyRoundSeconds   int           `mapstructure:"EASY_ROUND_SECONDS"`
	MediumRoundSeconds int           `mapstructure:"MEDIUM_ROUND_SECONDS"`
	HardRoundSeconds   int           `mapstructure:"HARD_ROUND_SECONDS"`
	MultiplierMin      float64       `mapstructure:"TIMER_MULTIPLIER_MIN"`
	MultiplierMax      float64       `mapstructure:"TIMER_MULTIPLIER_MAX"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TOKEN_TTL"`
	TransitionDelay    time.Duration `mapstructure:"ROUND_TRANSITION_DELAY"`

	Argon2MemoryKB uint32 `mapstructure:"ROOM_PASSWORD_ARGON2_MEMORY_KB"`
	Argon2Time     uint32 `mapstructure:"ROOM_PASSWORD_ARGON2_TIME"`
}

var defaults = map[string]any{
	"PORT":                           "5000",
	"ALLOWED_ORIGINS":                "",
	"DEBUG":                          false,
	"JWT_KEY":                        "",
	"JWT_TTL":                        7 * 24 * time.Hour,
	"REDIS_URL":                      "",
	"POSTGRES_URL":                   "",
	"MIN_PLAYERS":                    3,
	"MAX_PLAYERS":                    8,
	"EASY_ROUND_SECONDS":             60,
	"MEDIUM_ROUND_SECONDS":           90,
	"HARD_ROUND_SECONDS":             120,
	"TIMER_MULTIPLIER_MIN":           0.5,
	"TIMER_MULTIPLIER_MAX":           2.0,
	"SESSION_TOKEN_TTL":              time.Hour,
	"ROUND_TRANSITION_DELAY":         3 * time.Second,
	"ROOM_PASSWORD_ARGON2_MEMORY_KB": 16 * 1024,
	"ROOM_PASSWORD_ARGON2_TIME":      1,
}

// Load reads dir/.env if present and lets environment variables override it.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Origins()) == 0 {
		return ErrMissingOrigins
	}
	switch {
	case c.MinPlayers < 2:
		return fmt.Errorf("%w: MIN_PLAYERS must be at least 2", ErrInvalidConfig)
	case c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("%w: MAX_PLAYERS below MIN_PLAYERS", ErrInvalidConfig)
	case c.EasyRoundSeconds <= 0 || c.MediumRoundSeconds <= 0 || c.HardRoundSeconds <= 0:
		return fmt.Errorf("%w: round durations must be positive", ErrInvalidConfig)
	case c.SessionTTL <= 0 || c.TransitionDelay <= 0 || c.JWTTTL <= 0:
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	case c.MultiplierMin <= 0 || c.MultiplierMin > c.MultiplierMax:
		return fmt.Errorf("%w: need 0 < TIMER_MULTIPLIER_MIN <= TIMER_MULTIPLIER_MAX", ErrInvalidConfig)
	case c.Argon2MemoryKB == 0 || c.Argon2Time == 0:
		return fmt.Errorf("%w: argon2 parameters must be positive", ErrInvalidConfig)
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) Game() game.Config {
	return game.Config{
		MinPlayers:      c.MinPlayers,
		MaxPlayers:      c.MaxPlayers,
		EasyRound:       time.Duration(c.EasyRoundSeconds) * time.Second,
		MediumRound:     time.Duration(c.MediumRoundSeconds) * time.Second,
		HardRound:       time.Duration(c.HardRoundSeconds) * time.Second,
		MultiplierMin:   c.MultiplierMin,
		MultiplierMax:   c.MultiplierMax,
		SessionTTL:      c.SessionTTL,
		TransitionDelay: c.TransitionDelay,
	}
}
