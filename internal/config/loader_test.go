package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Engine.Type)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, int64(4), cfg.Scenario.MaxConcurrent)
	assert.False(t, cfg.Watch)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "careboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  type: postgres
  host: db.internal
  database: careops
server:
  addr: ":9090"
query_timeout: 5s
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Engine.Type)
	assert.Equal(t, "db.internal", cfg.Engine.Host)
	assert.Equal(t, 5432, cfg.Engine.Port, "default port survives partial engine config")
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "careboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("CAREBOARD_SERVER__ADDR", ":7070")
	t.Setenv("CAREBOARD_STORE_PATH", "/tmp/meta.db")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/tmp/meta.db", cfg.StorePath)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CAREBOARD_SERVER__ADDR", ":7070")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	flags.String("engine", "", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":6060", "--engine", "duckdb"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.Server.Addr)
	assert.Equal(t, "duckdb", cfg.Engine.Type)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":1111", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr, "flag default must not shadow config defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "careboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  type: oracle\n"), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine type")
}
