package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/httputil"
	"github.com/matzehuels/melonchart/pkg/melon"
)

// Cache backends selectable in the [cache] table.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// defaultCacheTTL is how long a fetched chart body is reused. The upstream
// chart is recomputed hourly.
const defaultCacheTTL = 5 * time.Minute

// fileConfig is the on-disk TOML configuration.
type fileConfig struct {
	Endpoint       string   `toml:"endpoint"`
	CPID           string   `toml:"cp_id"`
	CPKey          string   `toml:"cp_key"`
	AppVersion     string   `toml:"app_version"`
	Platform       string   `toml:"platform"`
	DeviceModel    string   `toml:"device_model"`
	ImageSize      int      `toml:"image_size"`
	Timeout        duration `toml:"timeout"`
	RetryAttempts  int      `toml:"retry_attempts"`
	RetryDelay     duration `toml:"retry_delay"`
	UTCOffsetHours int      `toml:"utc_offset_hours"`

	Cache cacheConfig `toml:"cache"`
}

type cacheConfig struct {
	Backend  string   `toml:"backend"`
	TTL      duration `toml:"ttl"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
}

// duration is a time.Duration written as a string ("10s", "5m") in TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func defaultFileConfig() fileConfig {
	d := melon.DefaultConfig()
	return fileConfig{
		Endpoint:       d.Endpoint,
		CPID:           d.CPID,
		CPKey:          d.CPKey,
		AppVersion:     d.AppVersion,
		Platform:       d.Platform,
		DeviceModel:    d.DeviceModel,
		ImageSize:      d.ImageSize,
		Timeout:        duration{d.Timeout},
		RetryAttempts:  httputil.DefaultPolicy.Attempts,
		RetryDelay:     duration{httputil.DefaultPolicy.Delay},
		UTCOffsetHours: melon.DefaultUTCOffsetHours,
		Cache: cacheConfig{
			Backend: cacheBackendFile,
			TTL:     duration{defaultCacheTTL},
		},
	}
}

// readConfig decodes the TOML file at path over the defaults. A missing file
// yields the defaults unless required is set. Unknown keys are rejected.
func readConfig(path string, required bool) (fileConfig, error) {
	cfg := defaultFileConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, melonerrors.Wrap(melonerrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, melonerrors.Wrap(melonerrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, melonerrors.Wrap(melonerrors.ErrCodeInvalidConfig, err, "decode config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, melonerrors.New(melonerrors.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f fileConfig) validate() error {
	if f.UTCOffsetHours < -12 || f.UTCOffsetHours > 14 {
		return melonerrors.New(melonerrors.ErrCodeInvalidConfig, "utc_offset_hours must be between -12 and 14, got %d", f.UTCOffsetHours)
	}
	if f.Cache.TTL.Duration < 0 {
		return melonerrors.New(melonerrors.ErrCodeInvalidConfig, "cache ttl cannot be negative, got %s", f.Cache.TTL)
	}
	switch f.Cache.Backend {
	case cacheBackendFile, cacheBackendNone:
	case cacheBackendRedis:
		if f.Cache.RedisURL == "" {
			return melonerrors.New(melonerrors.ErrCodeInvalidConfig, "cache backend redis requires redis_url")
		}
	default:
		return melonerrors.New(melonerrors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", f.Cache.Backend)
	}
	return f.melonConfig().WithDefaults().Validate()
}

// melonConfig maps the file settings onto a client configuration.
func (f fileConfig) melonConfig() melon.Config {
	return melon.Config{
		Endpoint:      f.Endpoint,
		CPID:          f.CPID,
		CPKey:         f.CPKey,
		AppVersion:    f.AppVersion,
		Platform:      f.Platform,
		DeviceModel:   f.DeviceModel,
		ImageSize:     f.ImageSize,
		Timeout:       f.Timeout.Duration,
		RetryAttempts: f.RetryAttempts,
		RetryDelay:    f.RetryDelay.Duration,
		Location:      fixedZone(f.UTCOffsetHours),
	}
}

// fixedZone names the zone after its offset, e.g. "UTC+09".
func fixedZone(hours int) *time.Location {
	if hours == melon.DefaultUTCOffsetHours {
		return time.FixedZone("KST", hours*60*60)
	}
	return time.FixedZone(fmt.Sprintf("UTC%+03d", hours), hours*60*60)
}

// writeTOML encodes f to w.
func (f fileConfig) writeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}

// loadConfig reads the --config file, or the default path when unset.
func (c *CLI) loadConfig() error {
	path, required := c.configPath, true
	if path == "" {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return nil
		}
		required = false
	}
	cfg, err := readConfig(path, required)
	if err != nil {
		return err
	}
	c.config = cfg
	return nil
}

// configCommand creates the "config" command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.config.writeTOML(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return fmt.Errorf("get config path: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}
