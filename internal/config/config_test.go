package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := NewViper()
	v.Set(FlagHome, t.TempDir())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "tcp://127.0.0.1:26658", cfg.ABCI.Addr)
	require.Equal(t, "socket", cfg.ABCI.Transport)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, LogFormatPlain, cfg.Log.Format)
	require.Equal(t, "goleveldb", cfg.DB.Backend)
	require.Equal(t, "127.0.0.1:8080", cfg.Feed.Addr)
	require.Equal(t, 500*time.Millisecond, cfg.Tap.Cooldown)
	require.Equal(t, 4096, cfg.Tap.CacheSize)
	require.Empty(t, cfg.Organizer)
}

func TestLoad_Precedence(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0o755))
	require.NoError(t, os.WriteFile(FilePath(home), []byte(`
organizer = "file-org"

[log]
level = "debug"
format = "json"

[tap]
cooldown = "2s"
`), 0o644))

	t.Setenv("TAPNAD_HOME", home)
	t.Setenv("TAPNAD_LOG_LEVEL", "warn")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--organizer=flag-org", "--tap.cache_size=16"}))

	v := NewViper()
	require.NoError(t, BindFlags(v, fs))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, home, cfg.Home)
	require.Equal(t, "flag-org", cfg.Organizer)
	require.Equal(t, 16, cfg.Tap.CacheSize)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, LogFormatJSON, cfg.Log.Format)
	require.Equal(t, 2*time.Second, cfg.Tap.Cooldown)
}

func TestLoad_InvalidFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0o755))
	require.NoError(t, os.WriteFile(FilePath(home), []byte("not = [valid"), 0o644))

	v := NewViper()
	v.Set(FlagHome, home)
	_, err := Load(v)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := NewViper()
		v.Set(FlagHome, t.TempDir())
		cfg, err := Load(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty home", func(c *Config) { c.Home = "" }},
		{"empty abci addr", func(c *Config) { c.ABCI.Addr = "" }},
		{"bad transport", func(c *Config) { c.ABCI.Transport = "http" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad backend", func(c *Config) { c.DB.Backend = "rocksdb" }},
		{"negative cooldown", func(c *Config) { c.Tap.Cooldown = -time.Second }},
		{"zero cache", func(c *Config) { c.Tap.CacheSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, valid().Validate())
}
