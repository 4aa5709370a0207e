package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/render"
	"github.com/pthm-cable/hexgas/store"
	"github.com/pthm-cable/hexgas/telemetry"
)

func main() {
	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hexgas",
		Short: "Lattice gas on a hexagonal grid",
		Long: `hexgas simulates a repulsive lattice gas on a hexagonal grid with
Metropolis dynamics and tracks how particles order onto one of three
sublattices.

Results are written as SVG charts and CSV files, and optionally archived
to a SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize config before anything else
			configPath, _ := cmd.Flags().GetString("config")
			if err := config.Init(configPath); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().String("output-dir", "", "Output directory for charts, CSV logs and config snapshot (empty = current directory, no logs)")
	rootCmd.PersistentFlags().Bool("log-stats", false, "Output window stats via slog")
	rootCmd.PersistentFlags().String("db", "", "SQLite database to archive results in (empty = disabled)")
	rootCmd.PersistentFlags().Int("workers", 0, "Concurrent sweep runs (0 = GOMAXPROCS)")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newAllCmd(),
	)
	return rootCmd
}

// env holds what every subcommand shares: loaded config, outputs and the
// optional archive.
type env struct {
	cfg      *config.Config
	palette  render.Palette
	out      *telemetry.OutputManager
	db       *store.Store
	logStats bool
	workers  int
}

func openEnv(cmd *cobra.Command) (*env, error) {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	dbPath, _ := cmd.Flags().GetString("db")
	logStats, _ := cmd.Flags().GetBool("log-stats")
	workers, _ := cmd.Flags().GetInt("workers")

	cfg := config.Cfg()
	palette, err := render.PaletteFromConfig(cfg.Chart)
	if err != nil {
		return nil, fmt.Errorf("chart colours: %w", err)
	}

	e := &env{cfg: cfg, palette: palette, logStats: logStats, workers: workers}

	if e.out, err = telemetry.NewOutputManager(outputDir); err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if dbPath != "" {
		if e.db, err = store.Open(dbPath); err != nil {
			e.out.Close()
			return nil, err
		}
		slog.Info("archiving results", "db", e.db.Path())
	}
	return e, nil
}

// writeConfig saves the effective config next to the outputs.
func (e *env) writeConfig() error {
	if err := e.out.WriteConfig(e.cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}
	return nil
}

func (e *env) Close() error {
	err := e.out.Close()
	if e.db != nil {
		if dbErr := e.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}
	return err
}

// withEnv opens the shared environment around fn.
func withEnv(cmd *cobra.Command, fn func(*env) error) (err error) {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := e.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(e)
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the ordering run followed by every configured sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error {
				if err := e.writeConfig(); err != nil {
					return err
				}
				if err := runOrdering(cmd.Context(), e); err != nil {
					return err
				}
				return runSweeps(cmd.Context(), e, nil)
			})
		},
	}
}
