package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/config"
)

type cachedConfig struct {
	Name  string   `env:"CONFIG_TEST_NAME" envDefault:"default"`
	Size  int      `env:"CONFIG_TEST_SIZE" envDefault:"100"`
	Items []string `env:"CONFIG_TEST_ITEMS" envDefault:"a,b"`
}

type requiredConfig struct {
	Value string `env:"CONFIG_TEST_REQUIRED,required"`
}

type fileConfig struct {
	Value string `env:"CONFIG_TEST_FROM_FILE"`
}

func TestLoad_CachesPerType(t *testing.T) {
	config.Reset()
	t.Setenv("CONFIG_TEST_NAME", "first")

	var cfg cachedConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "first", cfg.Name)
	assert.Equal(t, 100, cfg.Size)
	assert.Equal(t, []string{"a", "b"}, cfg.Items)

	t.Setenv("CONFIG_TEST_NAME", "second")

	var again cachedConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "first", again.Name)

	config.Reset()
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "second", again.Name)
}

func TestLoad_Errors(t *testing.T) {
	config.Reset()

	assert.ErrorIs(t, config.Load[cachedConfig](nil), config.ErrNilPointer)

	var cfg requiredConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestParse_DoesNotCache(t *testing.T) {
	t.Setenv("CONFIG_TEST_SIZE", "7")

	cfg, err := config.Parse[cachedConfig]()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Size)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIG_TEST_FROM_FILE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CONFIG_TEST_FROM_FILE") })

	require.NoError(t, config.LoadEnv(path))

	cfg, err := config.Parse[fileConfig]()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Value)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(t.TempDir(), "missing.env")), config.ErrLoadingEnvFile)
}
