package board_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhashayarKhm/chameleon/internal/auth"
	"github.com/KhashayarKhm/chameleon/internal/board"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/httpserver"
	"github.com/KhashayarKhm/chameleon/internal/palette"
	"github.com/KhashayarKhm/chameleon/internal/solver"
	"github.com/KhashayarKhm/chameleon/internal/storage"
	"github.com/KhashayarKhm/chameleon/internal/store"
)

func startServer(t *testing.T) string {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	pal, err := palette.Default()
	require.NoError(t, err)

	srv, err := httpserver.New(httpserver.Deps{
		Store:   store.NewMemoryStore(0),
		DB:      db,
		Auth:    auth.NewService(db, auth.Options{Secret: "x", TTL: time.Hour, CookieName: "tok"}),
		Palette: pal,
		Game:    game.DefaultConfig(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestRemoteSolves(t *testing.T) {
	ctx := context.Background()
	base := startServer(t)

	id, err := board.NewRemoteGame(ctx, nil, base, []string{"black", "black", "white", "red"})
	require.NoError(t, err)

	b, err := board.Dial(ctx, nil, base, id)
	require.NoError(t, err)
	assert.Equal(t, game.DefaultConfig(), b.Config())
	assert.Equal(t, 6, b.Palette().Len())

	s, err := solver.New(b, b.Config(), zerolog.Nop())
	require.NoError(t, err)
	out, err := s.Solve(ctx)
	require.NoError(t, err)
	assert.True(t, out.Solved)
	assert.Equal(t, 7, out.Attempts)
	assert.Equal(t, game.Code{0, 0, 1, 2}, out.Code)

	done, err := b.IsConcluded(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	// A finished game cannot be dialled again.
	_, err = board.Dial(ctx, nil, base, id)
	assert.ErrorIs(t, err, board.ErrConcluded)
}

func TestRemoteContract(t *testing.T) {
	ctx := context.Background()
	base := startServer(t)

	id, err := board.NewRemoteGame(ctx, nil, base, []string{"blue", "red", "white", "black"})
	require.NoError(t, err)
	b, err := board.Dial(ctx, nil, base, id)
	require.NoError(t, err)

	_, err = b.ReadFeedback(ctx)
	assert.ErrorIs(t, err, board.ErrNoPendingGuess)

	assert.ErrorIs(t, b.SubmitGuess(ctx, game.Code{0, 1}), board.ErrInvalidGuess)

	require.NoError(t, b.SubmitGuess(ctx, game.Code{5, 1, 2, 3}))
	assert.ErrorIs(t, b.SubmitGuess(ctx, game.Code{5, 1, 2, 3}), board.ErrFeedbackUnread)
	fb, err := b.ReadFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.Feedback{Hits: 1, Partials: 2}, fb)

	_, err = board.Dial(ctx, nil, base, "missing")
	assert.Error(t, err)
}
