package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KhashayarKhm/chameleon/internal/board"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/palette"
	"github.com/KhashayarKhm/chameleon/internal/solver"
)

var (
	solveSecret []string
	solveServer string
	solveGame   string
)

func runSolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var (
		b    board.Board
		gcfg game.Config
		pal  *palette.Palette
	)
	if solveServer != "" {
		id := solveGame
		if id == "" {
			var err error
			if id, err = board.NewRemoteGame(ctx, nil, solveServer, solveSecret); err != nil {
				return fmt.Errorf("create game: %w", err)
			}
		}
		rb, err := board.Dial(ctx, nil, solveServer, id)
		if err != nil {
			return err
		}
		b, gcfg, pal = rb, rb.Config(), rb.Palette()
		log.Info().Str("server", solveServer).Str("gameId", rb.GameID()).Msg("solving remote game")
	} else {
		if solveGame != "" {
			return fmt.Errorf("--game requires --server")
		}
		var err error
		if pal, err = palette.Load(cfg.PaletteFile); err != nil {
			return err
		}
		gcfg = cfg.Game(pal.Len())
		g, err := localGame(gcfg, pal, solveSecret)
		if err != nil {
			return err
		}
		b = board.NewLocal(g)
	}

	s, err := solver.New(b, gcfg, log.Logger)
	if err != nil {
		return err
	}
	out, err := s.Solve(ctx)
	printOutcome(cmd.OutOrStdout(), pal, out)
	if err != nil {
		return err
	}
	if !out.Solved {
		return fmt.Errorf("not solved within %d attempts", gcfg.MaxAttempts)
	}
	return nil
}

// localGame builds an in-process game around the named secret, or a random one.
func localGame(gcfg game.Config, pal *palette.Palette, names []string) (*game.Game, error) {
	if len(names) == 0 {
		return game.NewRandom(gcfg)
	}
	code, err := pal.ParseCode(names)
	if err != nil {
		return nil, err
	}
	return game.New(gcfg, code)
}

// printOutcome writes one line per round, then the result.
func printOutcome(w io.Writer, pal *palette.Palette, out solver.Outcome) {
	for i, r := range out.Rounds {
		fmt.Fprintf(w, "%2d  %-8s %-40s %s\n", i+1, r.Phase, strings.Join(pal.Format(r.Guess), " "), r.Feedback)
	}
	if len(out.Census) > 0 {
		counts := make([]string, 0, len(out.Census))
		for _, sym := range out.Census.Present() {
			counts = append(counts, fmt.Sprintf("%s:%d", pal.Name(sym), out.Census.Count(sym)))
		}
		fmt.Fprintf(w, "census  %s\n", strings.Join(counts, " "))
	}
	if out.Solved {
		fmt.Fprintf(w, "solved %s in %d attempts\n", strings.Join(pal.Format(out.Code), ","), out.Attempts)
		return
	}
	fmt.Fprintf(w, "failed after %d attempts\n", out.Attempts)
}
