package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

// modelAfterCensus builds the model a census of {0:2, 1:1, 2:1} leaves behind.
func modelAfterCensus() (*Model, Census) {
	m := NewModel(game.DefaultConfig())
	for s := game.Symbol(3); s < 6; s++ {
		m.Remove(s)
	}
	return m, Census{2, 1, 1, 0, 0, 0}
}

func TestBestSymbolPrefersLeastAmbiguous(t *testing.T) {
	m, c := modelAfterCensus()

	// 0: 4 open - 2 unplaced = 2; 1 and 2: 4 - 1 = 3.
	sym, ok := bestSymbol(m, c)
	require.True(t, ok)
	assert.Equal(t, game.Symbol(0), sym)

	// Once 0 is pinned to slots 0 and 1, 1 and 2 tie and palette order wins.
	m.Assign(0, 0)
	m.Assign(1, 0)
	m.Settle(c)
	sym, ok = bestSymbol(m, c)
	require.True(t, ok)
	assert.Equal(t, game.Symbol(1), sym)
}

func TestNextPlanBuildsIsolationGuess(t *testing.T) {
	m, c := modelAfterCensus()

	plan, err := nextPlan(m, c)
	require.NoError(t, err)
	assert.False(t, plan.Deduced)
	assert.Equal(t, 0, plan.Slot)
	assert.Equal(t, game.Symbol(0), plan.Target)
	assert.Equal(t, game.Code{0, 3, 3, 3}, plan.Guess)

	m.slots[0] &^= 1 << 0
	plan, err = nextPlan(m, c)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Slot)
	assert.Equal(t, game.Code{3, 0, 3, 3}, plan.Guess)
}

func TestNextPlanDeducesLastSlot(t *testing.T) {
	m, c := modelAfterCensus()
	m.Assign(0, 0)
	m.Assign(1, 1)
	m.Assign(2, 2)

	plan, err := nextPlan(m, c)
	require.NoError(t, err)
	assert.True(t, plan.Deduced)
	assert.Equal(t, 3, plan.Slot)
	assert.Equal(t, game.Symbol(0), plan.Target)
	assert.Nil(t, plan.Guess)
}

func TestNextPlanPadsWithoutFiller(t *testing.T) {
	cfg := game.Config{Length: 4, Colors: 4, MaxAttempts: 12}
	m := NewModel(cfg)
	c := Census{1, 1, 1, 1}

	plan, err := nextPlan(m, c)
	require.NoError(t, err)
	assert.True(t, plan.Padded)
	assert.Equal(t, game.Code{0, 1, 1, 1}, plan.Guess)
	assert.Equal(t, game.Symbol(1), plan.Pad)
	assert.Equal(t, 1, plan.PadUnplaced)
	assert.Zero(t, plan.Known)

	// Resolved slots echo their symbol; a fully placed symbol pads the rest.
	m.Assign(0, 0)
	m.Settle(c)
	plan, err = nextPlan(m, c)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Slot)
	assert.Equal(t, game.Symbol(1), plan.Target)
	assert.Equal(t, game.Code{0, 1, 0, 0}, plan.Guess)
	assert.Equal(t, game.Symbol(0), plan.Pad)
	assert.Zero(t, plan.PadUnplaced)
	assert.Equal(t, 1, plan.Known)
}

func TestPlanIsolateReducesPaddedFeedback(t *testing.T) {
	p := Plan{Padded: true, Pad: 1, Known: 1, PadUnplaced: 1}
	tests := []struct {
		name  string
		fb    game.Feedback
		want  game.Feedback
		padAt bool
	}{
		{"target at slot", game.Feedback{Hits: 3}, game.Feedback{Hits: 1}, false},
		{"target elsewhere", game.Feedback{Hits: 2, Partials: 1}, game.Feedback{Partials: 1}, false},
		{"pad at slot", game.Feedback{Hits: 1, Partials: 2}, game.Feedback{Partials: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, padAt, err := p.isolate(tt.fb)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.padAt, padAt)
		})
	}

	_, _, err := p.isolate(game.Feedback{Hits: 1})
	assert.ErrorIs(t, err, ErrPlanningInvariant)

	plain := Plan{}
	got, padAt, err := plain.isolate(game.Feedback{Partials: 1})
	require.NoError(t, err)
	assert.False(t, padAt)
	assert.Equal(t, game.Feedback{Partials: 1}, got)
}

func TestCensusHelpers(t *testing.T) {
	c := Census{2, 0, 1, 0, 1, 0}
	assert.Equal(t, 4, c.Total())
	assert.Equal(t, []game.Symbol{0, 2, 4}, c.Present())

	sym, ok := c.Absent()
	require.True(t, ok)
	assert.Equal(t, game.Symbol(1), sym)

	_, ok = Census{1, 1, 1, 1}.Absent()
	assert.False(t, ok)
}
