package main

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KhashayarKhm/chameleon/internal/board"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/palette"
	"github.com/KhashayarKhm/chameleon/internal/solver"
	"github.com/KhashayarKhm/chameleon/internal/storage"
)

// maxBenchSecrets bounds the exhaustive run.
const maxBenchSecrets = 1 << 20

var (
	benchWorkers int
	benchDB      string
)

// benchResult is one solved (or failed) secret.
type benchResult struct {
	secret game.Code
	out    solver.Outcome
}

func runBench(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	pal, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		return err
	}
	gcfg := cfg.Game(pal.Len())
	secrets, err := allCodes(gcfg)
	if err != nil {
		return err
	}
	workers := benchWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	results, err := benchAll(ctx, gcfg, secrets, workers)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if benchDB != "" {
		if err := recordBench(cmd, pal, results); err != nil {
			return err
		}
	}

	sum := summarize(results)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "secrets   %d (%d workers, %s)\n", len(results), workers, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "solved    %d\n", sum.solved)
	fmt.Fprintf(w, "worst     %d\n", sum.worst)
	fmt.Fprintf(w, "mean      %.3f\n", sum.mean)
	for _, a := range sum.attempts {
		fmt.Fprintf(w, "  %2d  %6d  %s\n", a, sum.histogram[a], bar(sum.histogram[a], len(results)))
	}
	if len(sum.failed) > 0 {
		names := make([]string, 0, min(len(sum.failed), 10))
		for _, c := range sum.failed[:min(len(sum.failed), 10)] {
			names = append(names, strings.Join(pal.Format(c), ","))
		}
		return fmt.Errorf("%d secrets unsolved, e.g. %s", len(sum.failed), strings.Join(names, " "))
	}
	return nil
}

// allCodes enumerates every code of the configured dimensions in
// lexicographic palette order.
func allCodes(gcfg game.Config) ([]game.Code, error) {
	n := math.Pow(float64(gcfg.Colors), float64(gcfg.Length))
	if n > maxBenchSecrets {
		return nil, fmt.Errorf("bench: %d^%d secrets is too many", gcfg.Colors, gcfg.Length)
	}
	codes := make([]game.Code, 0, int(n))
	for i := 0; i < int(n); i++ {
		c := make(game.Code, gcfg.Length)
		v := i
		for slot := gcfg.Length - 1; slot >= 0; slot-- {
			c[slot] = game.Symbol(v % gcfg.Colors)
			v /= gcfg.Colors
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// benchAll solves every secret with at most workers sessions in flight.
// Sessions share nothing; each result lands in its own slot.
func benchAll(ctx context.Context, gcfg game.Config, secrets []game.Code, workers int) ([]benchResult, error) {
	results := make([]benchResult, len(secrets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, secret := range secrets {
		g.Go(func() error {
			gm, err := game.New(gcfg, secret)
			if err != nil {
				return err
			}
			s, err := solver.New(board.NewLocal(gm), gcfg, zerolog.Nop())
			if err != nil {
				return err
			}
			out, err := s.Solve(ctx)
			if err != nil {
				return fmt.Errorf("secret %s: %w", secret, err)
			}
			results[i] = benchResult{secret: secret, out: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type benchSummary struct {
	solved    int
	worst     int
	mean      float64
	histogram map[int]int
	attempts  []int // sorted histogram keys
	failed    []game.Code
}

func summarize(results []benchResult) benchSummary {
	s := benchSummary{histogram: map[int]int{}}
	total := 0
	for _, r := range results {
		if !r.out.Solved {
			s.failed = append(s.failed, r.secret)
			continue
		}
		s.solved++
		total += r.out.Attempts
		s.worst = max(s.worst, r.out.Attempts)
		s.histogram[r.out.Attempts]++
	}
	if s.solved > 0 {
		s.mean = float64(total) / float64(s.solved)
	}
	for a := range s.histogram {
		s.attempts = append(s.attempts, a)
	}
	sort.Ints(s.attempts)
	return s
}

func recordBench(cmd *cobra.Command, pal *palette.Palette, results []benchResult) error {
	db, err := storage.Open(cmd.Context(), benchDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs := make([]storage.Run, len(results))
	for i, r := range results {
		runs[i] = storage.Run{
			GameID:   "bench",
			Secret:   strings.Join(pal.Format(r.secret), ","),
			Solved:   r.out.Solved,
			Attempts: r.out.Attempts,
			Source:   "bench",
		}
	}
	if err := db.InsertRuns(cmd.Context(), runs); err != nil {
		return fmt.Errorf("record bench: %w", err)
	}
	log.Info().Int("runs", len(runs)).Str("db", benchDB).Msg("bench recorded")
	return nil
}

// bar renders n out of total as a short histogram bar.
func bar(n, total int) string {
	if total == 0 {
		return ""
	}
	return strings.Repeat("#", (n*60+total-1)/total)
}
