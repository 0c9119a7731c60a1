// Command jepsen is the shared harness binary for distributed-systems
// tests: it loads configuration, mints a run ID, optionally creates the
// run's journal file, and logs the resolved settings. It runs no
// workload, driver or checker of its own.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jepsengo/jepsen/config"
	"github.com/jepsengo/jepsen/jlog"
	"github.com/jepsengo/jepsen/op"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "jepsen",
		Short: "Run a distributed-systems orchestration test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("test-name", "jepsen", "name of the test run")
	flags.Int("concurrency", 5, "number of client worker threads")
	flags.Duration("time-limit", 60*time.Second, "bound on the main phase")
	flags.StringSlice("nodes", nil, "cluster node addresses")
	flags.String("log-level", "info", "zerolog level (debug, info, warn, error)")
	flags.Bool("pretty", false, "use zerolog's console writer instead of JSON lines")
	flags.String("fifo-dir", "", "FIFO directory for an externally driven run (loaded into the config; this binary starts no FIFO driver)")
	flags.String("results-dir", "", "if set, journal this run's history to <results-dir>/<run-id>.jsonl")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	return cmd
}

func runTest(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log := jlog.New(jlog.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty})

	runID := uuid.NewString()
	log = log.With().Str("run-id", runID).Logger()
	log.Info().
		Str("test", cfg.TestName).
		Int("concurrency", cfg.Concurrency).
		Dur("time-limit", cfg.TimeLimit).
		Strs("nodes", cfg.Nodes).
		Msg("starting run")

	if cfg.ResultsDir != "" {
		if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
		journalPath := filepath.Join(cfg.ResultsDir, runID+".jsonl")
		f, err := os.Create(journalPath)
		if err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		defer f.Close()
		writer := op.NewWriter(f)
		defer writer.Flush()
		log.Info().Str("path", journalPath).Msg("journaling history")
	}

	_, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// Wiring a concrete generator/client/checker graph is left to the
	// test author: this binary is the shared harness, not a fixed
	// workload. See the gen, worker, interp and check packages for the
	// building blocks a real test assembles here. A real test package
	// would pass runID through as testdef.Test.RunID and feed every
	// History.Append result into the *op.Writer above.
	log.Warn().Msg("no workload wired: jepsen is a library harness, supply a generator/client/checker graph via your own test package")
	return nil
}
