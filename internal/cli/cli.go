// Package cli implements the melonchart command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/melonchart/pkg/buildinfo"
	"github.com/matzehuels/melonchart/pkg/cache"
	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/melon"
	"github.com/matzehuels/melonchart/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "melonchart"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	verbose    bool
	config     fileConfig
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: defaultFileConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "melonchart fetches the Melon real-time song chart",
		Long:          `melonchart fetches the Melon real-time song chart and prints, exports or serves it.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			registerHooks(c.Logger)
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/melonchart/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response cache")

	root.AddCommand(c.chartCommand())
	root.AddCommand(c.entryCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// ErrorMessage formats a command error for the terminal, showing the error
// code when there is one: "Error [INVALID_INPUT]: index must be an integer".
func ErrorMessage(err error) string {
	if code := melonerrors.GetCode(err); code != "" {
		return fmt.Sprintf("Error [%s]: %s", code, melonerrors.UserMessage(err))
	}
	return "Error: " + err.Error()
}

// registerHooks routes library events to the logger at debug level.
func registerHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetChartHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// =============================================================================
// Client Factory
// =============================================================================

// newClient builds a chart client from the loaded configuration.
// The caller closes the client, which closes its cache backend.
func (c *CLI) newClient(ctx context.Context) (*melon.Client, error) {
	backend, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}
	client, err := melon.NewClient(c.config.melonConfig(), backend, c.config.Cache.TTL.Duration)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return client, nil
}

// openCache returns the configured cache backend. A file cache that cannot
// be created degrades to no caching with a warning.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.config.Cache.Backend {
	case cacheBackendRedis:
		return cache.NewRedisCache(ctx, c.config.Cache.RedisURL)
	case cacheBackendNone:
		return cache.NewNullCache(), nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			loggerFromContext(ctx).Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			loggerFromContext(ctx).Warn("cache disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/melonchart/).
func (c *CLI) cacheDir() (string, error) {
	if c.config.Cache.Dir != "" {
		return c.config.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// defaultConfigPath returns ~/.config/melonchart/config.toml honoring
// XDG_CONFIG_HOME.
func defaultConfigPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
