package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_KnownServices(t *testing.T) {
	echo, err := Default(ServiceEcho)
	require.NoError(t, err)
	assert.Equal(t, DefaultSourceAddress, echo.Source)
	assert.Equal(t, DefaultSinkAddress, echo.Sink)
	assert.Equal(t, 100_000, echo.MessageSize)
	assert.Equal(t, 60*time.Second, echo.Cooldown)
	assert.NoError(t, echo.Validate())

	tex, err := Default(ServiceTexToHTML)
	require.NoError(t, err)
	assert.Equal(t, "latexmlc", tex.Converter.Binary)
	assert.Equal(t, 300, tex.Converter.Timeout)

	engrafo, err := Default(ServiceEngrafo)
	require.NoError(t, err)
	assert.Equal(t, "arxivvanity/engrafo:2.0.0", engrafo.Converter.Image)
	assert.Equal(t, "4g", engrafo.Converter.Memory)
}

func TestDefault_UnknownService(t *testing.T) {
	_, err := Default("nope")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestValidate(t *testing.T) {
	valid := func() WorkerConfig {
		cfg, err := Default(ServiceEcho)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *WorkerConfig)
		field  string
	}{
		{"empty service", func(c *WorkerConfig) { c.Service = "" }, "service"},
		{"colon in service", func(c *WorkerConfig) { c.Service = "a:b" }, "service"},
		{"empty source", func(c *WorkerConfig) { c.Source = "" }, "source"},
		{"source without scheme", func(c *WorkerConfig) { c.Source = "127.0.0.1:51695" }, "source"},
		{"empty sink", func(c *WorkerConfig) { c.Sink = "" }, "sink"},
		{"zero message size", func(c *WorkerConfig) { c.MessageSize = 0 }, "message_size"},
		{"zero pool", func(c *WorkerConfig) { c.PoolSize = 0 }, "pool_size"},
		{"negative limit", func(c *WorkerConfig) { c.Limit = -1 }, "limit"},
		{"negative cooldown", func(c *WorkerConfig) { c.Cooldown = -time.Second }, "cooldown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Default(ServiceEngrafo)
	require.NoError(t, err)

	env := map[string]string{
		"CORTEX_SOURCE":       "tcp://10.0.0.1:1",
		"CORTEX_SINK":         "tcp://10.0.0.1:2",
		"CORTEX_POOL_SIZE":    "8",
		"CORTEX_MESSAGE_SIZE": "4096",
		"CORTEX_COOLDOWN":     "5s",
		"CORTEX_WORKDIR":      "/var/tmp/cortex",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "tcp://10.0.0.1:1", cfg.Source)
	assert.Equal(t, "tcp://10.0.0.1:2", cfg.Sink)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, 4096, cfg.MessageSize)
	assert.Equal(t, 5*time.Second, cfg.Cooldown)
	assert.Equal(t, "/var/tmp/cortex", cfg.TempDir())
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg, err := Default(ServiceEcho)
	require.NoError(t, err)

	err = cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "CORTEX_POOL_SIZE" {
			return "many", true
		}
		return "", false
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile_OverridesBase(t *testing.T) {
	base, err := Default(ServiceEngrafo)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "worker.yaml")
	content := `
source: tcp://131.188.48.209:51695
sink: tcp://131.188.48.209:51696
pool_size: 16
cooldown: 30s
converter:
  memory: 8g
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path, base)
	require.NoError(t, err)

	assert.Equal(t, ServiceEngrafo, cfg.Service)
	assert.Equal(t, "tcp://131.188.48.209:51695", cfg.Source)
	assert.Equal(t, 16, cfg.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.Cooldown)
	assert.Equal(t, "8g", cfg.Converter.Memory)
	// не указано в файле — остаётся из base
	assert.Equal(t, DefaultEngrafoImage, cfg.Converter.Image)
	assert.Equal(t, DefaultMessageSize, cfg.MessageSize)
}

func TestSaveAndLoadFile(t *testing.T) {
	cfg, err := Default(ServiceTexToHTML)
	require.NoError(t, err)
	cfg.PoolSize = 4

	path := filepath.Join(t.TempDir(), "tex.yaml")
	require.NoError(t, SaveFile(path, cfg))

	loaded, err := LoadFile(path, WorkerConfig{})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), WorkerConfig{})
	assert.ErrorIs(t, err, ErrConfigFile)
}

func TestTCPAddress(t *testing.T) {
	assert.Equal(t, "tcp://127.0.0.1:51695", TCPAddress("127.0.0.1", DefaultSourcePort))
}
