package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhashayarKhm/chameleon/internal/board"
	"github.com/KhashayarKhm/chameleon/internal/game"
)

func solveSecret(t *testing.T, cfg game.Config, secret game.Code) (Outcome, *game.Game) {
	t.Helper()
	g, err := game.New(cfg, secret)
	require.NoError(t, err)
	s, err := New(board.NewLocal(g), cfg, zerolog.Nop())
	require.NoError(t, err)
	out, err := s.Solve(context.Background())
	require.NoError(t, err, "secret %s", secret)
	return out, g
}

func guesses(out Outcome) []game.Code {
	var gs []game.Code
	for _, r := range out.Rounds {
		gs = append(gs, r.Guess)
	}
	return gs
}

// TestSolveRepeatedSymbols walks the A A B C scenario end to end.
func TestSolveRepeatedSymbols(t *testing.T) {
	out, g := solveSecret(t, game.DefaultConfig(), game.Code{0, 0, 1, 2})

	require.True(t, out.Solved)
	assert.Equal(t, Census{2, 1, 1, 0, 0, 0}, out.Census)
	assert.Equal(t, []game.Code{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{2, 2, 2, 2},
		{0, 3, 3, 3},
		{3, 0, 3, 3},
		{3, 3, 1, 3},
		{0, 0, 1, 2},
	}, guesses(out))
	assert.Equal(t, 7, out.Attempts)
	assert.Equal(t, game.Code{0, 0, 1, 2}, out.Code)
	assert.Equal(t, game.Feedback{Hits: 4}, out.Rounds[6].Feedback)
	assert.Equal(t, game.StateWon, g.State())
}

// TestSolveLastSymbolByElimination never guesses the last symbol during the census.
func TestSolveLastSymbolByElimination(t *testing.T) {
	out, _ := solveSecret(t, game.DefaultConfig(), game.Code{5, 5, 5, 5})

	require.True(t, out.Solved)
	assert.Equal(t, Census{0, 0, 0, 0, 0, 4}, out.Census)
	assert.Equal(t, 6, out.Attempts)
	for _, r := range out.Rounds[:5] {
		assert.Equal(t, phaseCensus, r.Phase)
		assert.NotContains(t, r.Guess, game.Symbol(5))
	}
	assert.Equal(t, phaseFinal, out.Rounds[5].Phase)
}

// TestSolveStopsOnCensusHit ends as soon as a census guess is the secret.
func TestSolveStopsOnCensusHit(t *testing.T) {
	out, _ := solveSecret(t, game.DefaultConfig(), game.Code{1, 1, 1, 1})

	require.True(t, out.Solved)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, game.Code{1, 1, 1, 1}, out.Code)
	assert.Equal(t, Census{0, 4, 0, 0, 0, 0}, out.Census)
}

func TestSolveDistinctSymbols(t *testing.T) {
	out, _ := solveSecret(t, game.DefaultConfig(), game.Code{1, 2, 3, 4})

	require.True(t, out.Solved)
	assert.Equal(t, 9, out.Attempts)
	assert.Equal(t, []game.Code{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{2, 2, 2, 0},
		{3, 3, 0, 0},
		{4, 0, 0, 0},
		{0, 0, 3, 0},
		{0, 4, 0, 0},
		{1, 0, 0, 0},
		{1, 2, 3, 4},
	}, guesses(out))
}

// TestSolveEverySecret checks the attempt budget holds for the whole 6^4 space.
func TestSolveEverySecret(t *testing.T) {
	cfg := game.DefaultConfig()
	worst := 0
	secret := make(game.Code, cfg.Length)

	var walk func(slot int)
	walk = func(slot int) {
		if slot == cfg.Length {
			out, _ := solveSecret(t, cfg, secret)
			require.True(t, out.Solved, "secret %s: %s", secret, out)
			require.Equal(t, secret, out.Code)
			require.Equal(t, cfg.Length, out.Census.Total())
			worst = max(worst, out.Attempts)
			return
		}
		for s := 0; s < cfg.Colors; s++ {
			secret[slot] = game.Symbol(s)
			walk(slot + 1)
		}
	}
	walk(0)

	assert.LessOrEqual(t, worst, cfg.MaxAttempts)
}

// TestSolveWithoutAbsentSymbol covers palettes no larger than the code, where
// every symbol may occur and the planner pads its guesses instead.
func TestSolveWithoutAbsentSymbol(t *testing.T) {
	cfg := game.Config{Length: 4, Colors: 4, MaxAttempts: 12}

	out, _ := solveSecret(t, cfg, game.Code{0, 1, 2, 3})
	require.True(t, out.Solved)
	assert.Equal(t, Census{1, 1, 1, 1}, out.Census)
	assert.Equal(t, []game.Code{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{2, 2, 2, 2},
		{0, 1, 1, 1},
		{0, 1, 0, 0},
		{0, 1, 2, 0},
		{0, 1, 2, 3},
	}, guesses(out))

	secret := make(game.Code, cfg.Length)
	var walk func(slot int)
	walk = func(slot int) {
		if slot == cfg.Length {
			out, _ := solveSecret(t, cfg, secret)
			require.True(t, out.Solved, "secret %s: %s", secret, out)
			require.Equal(t, cfg.Length, out.Census.Total())
			return
		}
		for s := 0; s < cfg.Colors; s++ {
			secret[slot] = game.Symbol(s)
			walk(slot + 1)
		}
	}
	walk(0)
}

// TestCensusIsolationSignal checks the isolation property the planner relies
// on: testing slot i with symbol s against absent fillers yields 1 hit iff the
// secret has s at i, 1 partial iff s is elsewhere, and nothing iff s is absent.
func TestCensusIsolationSignal(t *testing.T) {
	secret := game.Code{0, 0, 1, 2}
	const filler = game.Symbol(5)
	tests := []struct {
		slot int
		sym  game.Symbol
		want game.Feedback
	}{
		{0, 0, game.Feedback{Hits: 1}},
		{2, 0, game.Feedback{Partials: 1}},
		{2, 1, game.Feedback{Hits: 1}},
		{0, 1, game.Feedback{Partials: 1}},
		{1, 3, game.Feedback{}},
	}
	for _, tt := range tests {
		guess := game.Code{filler, filler, filler, filler}
		guess[tt.slot] = tt.sym
		assert.Equal(t, tt.want, game.Score(secret, guess), "slot %d symbol %d", tt.slot, tt.sym)
	}
}

func TestSolveReportsBudgetExhaustion(t *testing.T) {
	cfg := game.Config{Length: 4, Colors: 6, MaxAttempts: 3}
	g, err := game.New(cfg, game.Code{1, 2, 3, 4})
	require.NoError(t, err)
	s, err := New(board.NewLocal(g), cfg, zerolog.Nop())
	require.NoError(t, err)

	out, err := s.Solve(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Solved)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, "failed after 3 attempts", out.String())
}

func TestSolveRefusesReuse(t *testing.T) {
	cfg := game.DefaultConfig()
	g, err := game.New(cfg, game.Code{0, 1, 2, 3})
	require.NoError(t, err)
	s, err := New(board.NewLocal(g), cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSolved, s.State())

	_, err = s.Solve(context.Background())
	assert.Error(t, err)
}

func TestSolveHonoursCancellation(t *testing.T) {
	cfg := game.DefaultConfig()
	g, err := game.New(cfg, game.Code{0, 1, 2, 3})
	require.NoError(t, err)
	s, err := New(board.NewLocal(g), cfg, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Solve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, g.Attempts())
}

// lyingBoard reports a fixed feedback regardless of the guess.
type lyingBoard struct {
	fb      game.Feedback
	pending bool
}

func (b *lyingBoard) SubmitGuess(context.Context, game.Code) error {
	b.pending = true
	return nil
}

func (b *lyingBoard) ReadFeedback(context.Context) (game.Feedback, error) {
	if !b.pending {
		return game.Feedback{}, board.ErrNoPendingGuess
	}
	b.pending = false
	return b.fb, nil
}

func (b *lyingBoard) IsConcluded(context.Context) (bool, error) { return false, nil }

// TestSolveDetectsInconsistentFeedback aborts instead of guessing blindly.
func TestSolveDetectsInconsistentFeedback(t *testing.T) {
	cfg := game.DefaultConfig()
	s, err := New(&lyingBoard{fb: game.Feedback{Hits: 1}}, cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Solve(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlanningInvariant), "got %v", err)

	var inv *InvariantError
	assert.ErrorAs(t, err, &inv)
}
