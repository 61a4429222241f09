// internal/config/config.go
//
// Process configuration, read from the environment.
// A .env file in the working directory is loaded first when present
// (development convenience); real environment variables win.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

// Config holds every setting the server and CLI read from the environment.
type Config struct {
	Port          string        `env:"PORT" envDefault:"5175"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabasePath  string        `env:"DATABASE_PATH" envDefault:"./data/app.db"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	TokenTTL      time.Duration `env:"JWT_TTL" envDefault:"336h"`
	CookieName    string        `env:"COOKIE_NAME" envDefault:"chameleon_token"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	ClientOrigin  string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	DailySalt     string        `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	PaletteFile   string        `env:"PALETTE_FILE"`
	CodeLength    int           `env:"CODE_LENGTH" envDefault:"4"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"12"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.CodeLength < 1 {
		return fmt.Errorf("config: CODE_LENGTH must be positive, got %d", c.CodeLength)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// Game combines the configured dimensions with a palette size.
func (c Config) Game(colors int) game.Config {
	return game.Config{Length: c.CodeLength, Colors: colors, MaxAttempts: c.MaxAttempts}
}
