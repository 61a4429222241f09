package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KhashayarKhm/chameleon/internal/config"
)

// --- Global Command Variables ---
var (
	cfg       config.Config
	logPretty bool

	rootCmd = &cobra.Command{
		Use:           "chameleon",
		Short:         "Code-breaking game server and solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			return setupLogging(cfg.LogLevel, logPretty)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe, // cmd_serve.go
	}

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Solve one game locally or on a running server",
		Args:  cobra.NoArgs,
		RunE:  runSolve, // cmd_solve.go
	}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Solve every possible secret and report attempt statistics",
		Args:  cobra.NoArgs,
		RunE:  runBench, // cmd_bench.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "human-readable console logs instead of JSON")

	solveCmd.Flags().StringSliceVar(&solveSecret, "secret", nil, "secret as palette names, e.g. black,black,white,red (random when empty)")
	solveCmd.Flags().StringVar(&solveServer, "server", "", "solve on a chameleon server at this base URL")
	solveCmd.Flags().StringVar(&solveGame, "game", "", "existing game ID on --server (a new game is created when empty)")

	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "concurrent sessions (default: number of CPUs)")
	benchCmd.Flags().StringVar(&benchDB, "db", "", "record every run in this SQLite database")

	rootCmd.AddCommand(serveCmd, solveCmd, benchCmd)
}

// setupLogging sets the global zerolog level and output.
func setupLogging(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}
