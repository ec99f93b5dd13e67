package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TAPNAD_FEED_ADDR.
const EnvPrefix = "TAPNAD"

const (
	FlagHome          = "home"
	FlagABCIAddr      = "abci.addr"
	FlagABCITransport = "abci.transport"
	FlagOrganizer     = "organizer"
	FlagLogLevel      = "log.level"
	FlagLogFormat     = "log.format"
	FlagDBBackend     = "db.backend"
	FlagFeedAddr      = "feed.addr"
	FlagTapCooldown   = "tap.cooldown"
	FlagTapCacheSize  = "tap.cache_size"
)

const (
	LogFormatJSON  = "json"
	LogFormatPlain = "plain"
)

type Config struct {
	Home      string `mapstructure:"home"`
	Organizer string `mapstructure:"organizer"`

	ABCI struct {
		Addr      string `mapstructure:"addr"`
		Transport string `mapstructure:"transport"`
	} `mapstructure:"abci"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	DB struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"db"`

	Feed struct {
		// Addr is the HTTP listen address of the event feed; empty disables it.
		Addr string `mapstructure:"addr"`
	} `mapstructure:"feed"`

	Tap struct {
		Cooldown  time.Duration `mapstructure:"cooldown"`
		CacheSize int           `mapstructure:"cache_size"`
	} `mapstructure:"tap"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(FlagHome, ".tapnad")
	v.SetDefault(FlagABCIAddr, "tcp://127.0.0.1:26658")
	v.SetDefault(FlagABCITransport, "socket")
	v.SetDefault(FlagOrganizer, "")
	v.SetDefault(FlagLogLevel, "info")
	v.SetDefault(FlagLogFormat, LogFormatPlain)
	v.SetDefault(FlagDBBackend, "goleveldb")
	v.SetDefault(FlagFeedAddr, "127.0.0.1:8080")
	v.SetDefault(FlagTapCooldown, 500*time.Millisecond)
	v.SetDefault(FlagTapCacheSize, 4096)
}

// AddFlags registers every config key on fs. Flag defaults are left empty so
// viper defaults, the config file and the environment apply unless a flag is
// set explicitly.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(FlagHome, "", "app home directory (state under <home>/data, config in <home>/config/app.toml)")
	fs.String(FlagABCIAddr, "", "ABCI listen address")
	fs.String(FlagABCITransport, "", "ABCI transport (socket|grpc)")
	fs.String(FlagOrganizer, "", "organizer account used when genesis does not name one (must have a genesis account)")
	fs.String(FlagLogLevel, "", "log level (trace|debug|info|warn|error)")
	fs.String(FlagLogFormat, "", "log format (plain|json)")
	fs.String(FlagDBBackend, "", "state database backend (goleveldb|memdb)")
	fs.String(FlagFeedAddr, "", "event feed HTTP listen address (empty string disables)")
	fs.Duration(FlagTapCooldown, 0, "minimum spacing of tap txs per signer at mempool admission")
	fs.Int(FlagTapCacheSize, 0, "number of signers tracked by the tap cooldown")
}

// BindFlags binds flags that were set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || !f.Changed {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FilePath returns the optional config file location under home.
func FilePath(home string) string {
	return filepath.Join(home, "config", "app.toml")
}

// Load resolves the effective config: flags, then environment, then
// <home>/config/app.toml, then defaults.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	path := FilePath(v.GetString(FlagHome))
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Home == "" {
		return errors.New("home must not be empty")
	}
	if c.ABCI.Addr == "" {
		return errors.New("abci.addr must not be empty")
	}
	switch c.ABCI.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("abci.transport: unsupported %q", c.ABCI.Transport)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case LogFormatJSON, LogFormatPlain:
	default:
		return fmt.Errorf("log.format: unsupported %q", c.Log.Format)
	}
	switch c.DB.Backend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("db.backend: unsupported %q", c.DB.Backend)
	}
	if c.Tap.Cooldown < 0 {
		return fmt.Errorf("tap.cooldown must not be negative, got %s", c.Tap.Cooldown)
	}
	if c.Tap.CacheSize <= 0 {
		return fmt.Errorf("tap.cache_size must be positive, got %d", c.Tap.CacheSize)
	}
	return nil
}
