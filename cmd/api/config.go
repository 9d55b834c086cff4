package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/crashgame/internal/config"
	"github.com/fastprodman/crashgame/internal/services/ledger"
	"github.com/fastprodman/crashgame/pkg/envconf"
	"github.com/fastprodman/crashgame/pkg/money"
	"github.com/joho/godotenv"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	Postgres config.PostgresConfig
	Ledger   config.LedgerConfig
	Round    config.RoundConfig
	Guest    config.GuestConfig
}

// readConfig loads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func readConfig() (*apiConfig, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := new(apiConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	return cfg, nil
}

func (c *apiConfig) guestOpening() (ledger.Opening, error) {
	balance, err := money.Parse(c.Guest.OpeningBalance)
	if err != nil {
		return ledger.Opening{}, fmt.Errorf("GUEST_OPENING_BALANCE: %w", err)
	}

	if balance < 0 || c.Guest.FreeRounds < 0 {
		return ledger.Opening{}, fmt.Errorf("guest opening state must not be negative")
	}

	return ledger.Opening{BalanceMinor: balance, FreeRounds: c.Guest.FreeRounds}, nil
}
