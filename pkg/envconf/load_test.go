package envconf

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pgSection struct {
	DSN          string `env:"TEST_ENVCONF_PG_DSN"`
	MaxOpenConns int    `env:"TEST_ENVCONF_PG_MAX_OPEN" default:"10"`
}

type testConfig struct {
	Port     uint16        `env:"TEST_ENVCONF_PORT" default:"8080"`
	LogLevel slog.Level    `env:"TEST_ENVCONF_LOG_LEVEL" default:"INFO"`
	Wait     time.Duration `env:"TEST_ENVCONF_WAIT" default:"2s"`
	Growth   float64       `env:"TEST_ENVCONF_GROWTH" default:"0.2"`
	Trust    bool          `env:"TEST_ENVCONF_TRUST" default:"false"`
	Origins  []string      `env:"TEST_ENVCONF_ORIGINS" default:"*"`
	Limit    *int          `env:"TEST_ENVCONF_LIMIT" default:"5"`
	Postgres pgSection
	ignored  string
}

//nolint:paralleltest
func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("TEST_ENVCONF_PG_DSN", "postgres://u:p@localhost:5432/db")
	t.Setenv("TEST_ENVCONF_WAIT", "750ms")
	t.Setenv("TEST_ENVCONF_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("TEST_ENVCONF_LOG_LEVEL", "DEBUG")

	cfg := new(testConfig)
	require.NoError(t, Load(cfg))

	require.Equal(t, uint16(8080), cfg.Port)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, 750*time.Millisecond, cfg.Wait)
	require.InDelta(t, 0.2, cfg.Growth, 1e-9)
	require.False(t, cfg.Trust)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins)
	require.NotNil(t, cfg.Limit)
	require.Equal(t, 5, *cfg.Limit)
	require.Equal(t, "postgres://u:p@localhost:5432/db", cfg.Postgres.DSN)
	require.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	require.Empty(t, cfg.ignored)
}

//nolint:paralleltest
func TestLoad_MissingRequired(t *testing.T) {
	cfg := new(testConfig)

	err := Load(cfg)
	require.ErrorIs(t, err, ErrMissingRequired)
	require.Contains(t, err.Error(), "TEST_ENVCONF_PG_DSN")
}

//nolint:paralleltest
func TestLoad_BadValue(t *testing.T) {
	t.Setenv("TEST_ENVCONF_PG_DSN", "x")
	t.Setenv("TEST_ENVCONF_PORT", "not-a-port")

	err := Load(new(testConfig))
	require.Error(t, err)
	require.Contains(t, err.Error(), "TEST_ENVCONF_PORT")
}

func TestLoad_InvalidDestination(t *testing.T) {
	t.Parallel()

	require.Error(t, Load(nil))
	require.Error(t, Load(testConfig{}))

	n := 3
	require.Error(t, Load(&n))
}

func TestLoad_UnsupportedType(t *testing.T) {
	t.Parallel()

	type bad struct {
		M map[string]string `env:"TEST_ENVCONF_MAP" default:"a=b"`
	}

	err := Load(new(bad))
	require.ErrorIs(t, err, ErrUnsupportedType)
}
