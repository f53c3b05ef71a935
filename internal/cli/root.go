package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faceofmind/admin-sync/internal/config"
	"github.com/faceofmind/admin-sync/internal/output"
)

// globals holds the persistent flag values and what PersistentPreRunE
// builds from them.
type globals struct {
	cfgFile string
	envFile string
	verbose bool
	color   string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the adminsync command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "adminsync",
		Short: "Admin dashboard sync client",
		Long: `adminsync keeps a local, cached view of the admin dashboard analytics
in sync with the backend over a live WebSocket channel, falling back to
the REST API when the channel is unavailable.

Example usage:
  adminsync login --email admin@example.com
  adminsync fetch week          # cached data first, then a fresh copy
  adminsync watch month         # live updates until interrupted
  adminsync users list --status suspended
  adminsync users set-status 42 active`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&g.cfgFile, "config", "", "config file (default: built-in defaults plus ADMINSYNC_* environment)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&g.color, "color", "auto", "color output: auto, always, never")

	root.AddCommand(
		newLoginCommand(g),
		newLogoutCommand(g),
		newFetchCommand(g),
		newRefreshCommand(g),
		newWatchCommand(g),
		newUsersCommand(g),
		newThemeCommand(g),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errReported marks a failure that the command already printed.
var errReported = errors.New("failed")

func (g *globals) load(stderr io.Writer) error {
	if err := config.LoadDotEnv(g.envFile); err != nil {
		return fmt.Errorf("loading %s: %w", g.envFile, err)
	}

	cfg, err := config.LoadAndValidate(g.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	g.cfg = cfg

	level := cfg.Log.Level
	if g.verbose {
		level = "debug"
	}
	g.logger = newLogger(stderr, level, cfg.Log.Format)
	slog.SetDefault(g.logger)

	g.logger.Debug("configuration loaded",
		"base_url", cfg.API.BaseURL,
		"ws_url", cfg.API.WSURL,
		"store", cfg.Store.Driver,
	)
	return nil
}

func (g *globals) printer(cmd *cobra.Command, theme string) (*output.Printer, error) {
	mode, err := output.ParseColorMode(g.color)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode), theme), nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// passwordFromEnv is read when --password is not given.
const passwordFromEnv = "ADMINSYNC_PASSWORD"

func lookupPassword(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordFromEnv)
}
