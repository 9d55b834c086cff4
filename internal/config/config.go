package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

// LedgerConfig bounds how long a request waits for a user's mutation slot.
type LedgerConfig struct {
	LockWait time.Duration `env:"LEDGER_LOCK_WAIT" default:"2s"`
}

type RoundConfig struct {
	GrowthPerSecond       float64       `env:"ROUND_GROWTH_PER_SECOND" default:"0.2"`
	TrustClientMultiplier bool          `env:"ROUND_TRUST_CLIENT_MULTIPLIER" default:"false"`
	SweepInterval         time.Duration `env:"ROUND_SWEEP_INTERVAL" default:"5s"`
	SweepGrace            time.Duration `env:"ROUND_SWEEP_GRACE" default:"10s"`
	SweepBatch            uint64        `env:"ROUND_SWEEP_BATCH" default:"100"`
	CrashTablePath        string        `env:"CRASH_TABLE_PATH" default:""`
}

// GuestConfig is the opening state of accounts created through POST /user.
type GuestConfig struct {
	OpeningBalance string `env:"GUEST_OPENING_BALANCE" default:"0"`
	FreeRounds     int    `env:"GUEST_FREE_ROUNDS" default:"0"`
}
