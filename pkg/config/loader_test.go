package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatchkit/pkg/config"
)

type workerDefaults struct {
	Concurrency int           `env:"CFG_TEST_DEFAULT_CONCURRENCY" envDefault:"10"`
	Timeout     time.Duration `env:"CFG_TEST_DEFAULT_TIMEOUT" envDefault:"5s"`
	Enabled     bool          `env:"CFG_TEST_DEFAULT_ENABLED" envDefault:"true"`
}

type workerOverrides struct {
	Concurrency int           `env:"CFG_TEST_OVERRIDE_CONCURRENCY" envDefault:"10"`
	Timeout     time.Duration `env:"CFG_TEST_OVERRIDE_TIMEOUT" envDefault:"5s"`
	Enabled     bool          `env:"CFG_TEST_OVERRIDE_ENABLED" envDefault:"true"`
}

type cachedConfig struct {
	Name string `env:"CFG_TEST_CACHED_NAME" envDefault:"default"`
}

type firstKind struct {
	Value string `env:"CFG_TEST_KIND_ONE" envDefault:"one"`
}

type secondKind struct {
	Value string `env:"CFG_TEST_KIND_TWO" envDefault:"two"`
}

type requiredConfig struct {
	Token string `env:"CFG_TEST_REQUIRED_TOKEN,required"`
}

type fileConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"CFG_TEST_FILE_MAX_ATTEMPTS" envDefault:"3"`
	BackoffBase time.Duration `yaml:"backoff_base" env:"CFG_TEST_FILE_BACKOFF_BASE" envDefault:"500ms"`
	BaseURL     string        `yaml:"base_url" env:"CFG_TEST_FILE_BASE_URL"`
	Service     string        `yaml:"service" env:"CFG_TEST_FILE_SERVICE" envDefault:"dispatcher"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("environment values", func(t *testing.T) {
		t.Setenv("CFG_TEST_OVERRIDE_CONCURRENCY", "25")
		t.Setenv("CFG_TEST_OVERRIDE_TIMEOUT", "2s")
		t.Setenv("CFG_TEST_OVERRIDE_ENABLED", "false")

		var cfg workerOverrides
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 25, cfg.Concurrency)
		assert.Equal(t, 2*time.Second, cfg.Timeout)
		assert.False(t, cfg.Enabled)
	})

	t.Run("defaults", func(t *testing.T) {
		var cfg workerDefaults
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 10, cfg.Concurrency)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.True(t, cfg.Enabled)
	})

	t.Run("missing required value", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *workerDefaults
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoadCachesPerType(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED_NAME", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFG_TEST_CACHED_NAME", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Name)

	config.Reset()

	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Name)
}

func TestLoadKeepsTypesApart(t *testing.T) {
	t.Setenv("CFG_TEST_KIND_ONE", "alpha")
	t.Setenv("CFG_TEST_KIND_TWO", "beta")

	var one firstKind
	var two secondKind
	require.NoError(t, config.Load(&one))
	require.NoError(t, config.Load(&two))

	assert.Equal(t, "alpha", one.Value)
	assert.Equal(t, "beta", two.Value)
}

func TestMustLoadPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("file values with defaults for the rest", func(t *testing.T) {
		path := writeFile(t, "max_attempts: 5\nbackoff_base: 250ms\nbase_url: http://email.local\n")

		var cfg fileConfig
		require.NoError(t, config.LoadFile(path, &cfg))
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.BackoffBase)
		assert.Equal(t, "http://email.local", cfg.BaseURL)
		assert.Equal(t, "dispatcher", cfg.Service)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("CFG_TEST_FILE_MAX_ATTEMPTS", "7")
		path := writeFile(t, "max_attempts: 5\n")

		var cfg fileConfig
		require.NoError(t, config.LoadFile(path, &cfg))
		assert.Equal(t, 7, cfg.MaxAttempts)
	})

	t.Run("missing file", func(t *testing.T) {
		var cfg fileConfig
		err := config.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
		assert.ErrorIs(t, err, config.ErrReadingFile)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "max_attempts: [\n")

		var cfg fileConfig
		err := config.LoadFile(path, &cfg)
		assert.ErrorIs(t, err, config.ErrParsingFile)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *fileConfig
		assert.ErrorIs(t, config.LoadFile("config.yaml", cfg), config.ErrNilPointer)
	})
}
