// Package cli provides the command-line interface for xorm.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/go-mizu/xorm"
	"github.com/go-mizu/xorm/internal/config"
	"github.com/go-mizu/xorm/pool"
)

// Version information (set at build time).
var Version = "0.1.0"

// Opener opens the connection pool. pool.Open in production; tests inject a mock.
type Opener func(ctx context.Context, cfg pool.Config, logger *slog.Logger) (*sql.DB, error)

// app is the state shared by all commands after config loading.
type app struct {
	cfgFile string
	open    Opener
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCmd creates the root command backed by a real MySQL pool.
func NewRootCmd() *cobra.Command { return NewRootCmdWith(pool.Open) }

// NewRootCmdWith creates the root command with a custom pool opener.
func NewRootCmdWith(open Opener) *cobra.Command {
	a := &app{open: open}
	rootCmd := &cobra.Command{
		Use:   "xorm",
		Short: "xorm - model mapping over MySQL",
		Long: `xorm maps declared models onto MySQL tables.

Models and the connection pool are configured in xorm.yaml; the commands
print the generated statements and run simple lookups against the database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, used, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if used != "" {
				a.logger.Debug("using config file", "path", used)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./xorm.yaml)")
	pf.String("host", "", "database host")
	pf.Int("port", 0, "database port")
	pf.String("user", "", "database user")
	pf.String("password", "", "database password")
	pf.String("db", "", "database name")
	pf.BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newTemplatesCommand(a))
	rootCmd.AddCommand(newPingCommand(a))
	rootCmd.AddCommand(newFindCommand(a))
	rootCmd.AddCommand(newCountCommand(a))
	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// model registers the configured models and returns the named one.
func (a *app) model(name string) (*xorm.Model, error) {
	reg, err := a.cfg.Registry(a.logger)
	if err != nil {
		return nil, err
	}
	m, ok := reg[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	return m, nil
}

// withDB opens the pool, runs fn and closes the pool.
func (a *app) withDB(ctx context.Context, fn func(db *xorm.DB) error) error {
	sqlDB, err := a.open(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return err
	}
	db := xorm.New(sqlDB, xorm.WithLogger(a.logger))
	defer func() { _ = db.Close() }()
	return fn(db)
}
