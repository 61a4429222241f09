package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhashayarKhm/chameleon/internal/auth"
	"github.com/KhashayarKhm/chameleon/internal/daily"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/palette"
	"github.com/KhashayarKhm/chameleon/internal/storage"
	"github.com/KhashayarKhm/chameleon/internal/store"
)

const testSalt = "test_salt"

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv *Server
	ts  *httptest.Server
	db  *storage.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pal, err := palette.Default()
	require.NoError(t, err)

	srv, err := New(Deps{
		Store:     store.NewMemoryStore(0),
		DB:        db,
		Auth:      auth.NewService(db, auth.Options{Secret: "s3cret", TTL: time.Hour, CookieName: "chameleon_token"}),
		Palette:   pal,
		Game:      game.DefaultConfig(),
		DailySalt: testSalt,
	})
	require.NoError(t, err)
	srv.now = func() time.Time { return testNow }

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, db: db}
}

// client returns an HTTP client with its own cookie jar (one browser).
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// call sends body as JSON and decodes the response into out (if non-nil).
func (e *testEnv) call(t *testing.T, c *http.Client, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestDiagnostics(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	var health map[string]any
	assert.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/health", nil, &health))
	assert.Equal(t, true, health["ok"])

	assert.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/metrics", nil, nil))

	var nf map[string]string
	assert.Equal(t, http.StatusNotFound, e.call(t, c, http.MethodGet, "/nope", nil, &nf))
	assert.Equal(t, "not_found", nf["error"])
}

func TestPlayGame(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	var ng newGameRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/new",
		newGameReq{Secret: []string{"black", "black", "white", "red"}}, &ng))
	assert.Equal(t, 4, ng.Length)
	assert.Equal(t, 6, ng.Colors)
	assert.Equal(t, 12, ng.MaxAttempts)
	assert.Equal(t, []string{"black", "white", "red", "orange", "yellow", "blue"}, ng.Palette)

	var gr guessRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/guess",
		guessReq{GameID: ng.GameID, Guess: []string{"black", "black", "black", "black"}}, &gr))
	assert.Equal(t, guessRes{Hits: 2, Partials: 0, State: game.StatePlaying, Attempts: 1}, gr)

	var v gameView
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/game/"+ng.GameID, nil, &v))
	assert.Empty(t, v.Secret, "secret hidden while playing")
	require.Len(t, v.Rounds, 1)
	assert.Equal(t, 2, v.Rounds[0].Hits)

	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/guess",
		guessReq{GameID: ng.GameID, Guess: []string{"Black", "black", "white", "red"}}, &gr))
	assert.Equal(t, game.StateWon, gr.State)

	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/game/"+ng.GameID, nil, &v))
	assert.Equal(t, []string{"black", "black", "white", "red"}, v.Secret)

	var er map[string]any
	assert.Equal(t, http.StatusConflict, e.call(t, c, http.MethodPost, "/game/guess",
		guessReq{GameID: ng.GameID, Guess: []string{"red", "red", "red", "red"}}, &er))
}

func TestGuessErrors(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	var ng newGameRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/new", nil, &ng))

	cases := []struct {
		name string
		body any
		code int
		err  string
	}{
		{"unknown symbol", guessReq{GameID: ng.GameID, Guess: []string{"pink", "red", "red", "red"}}, http.StatusBadRequest, "invalid_guess"},
		{"wrong length", guessReq{GameID: ng.GameID, Guess: []string{"red"}}, http.StatusBadRequest, "invalid_guess"},
		{"unknown game", guessReq{GameID: "missing", Guess: []string{"red", "red", "red", "red"}}, http.StatusNotFound, "not_found"},
		{"missing game id", guessReq{Guess: []string{"red", "red", "red", "red"}}, http.StatusBadRequest, "invalid_request"},
		{"empty guess", map[string]any{"gameId": ng.GameID, "guess": []string{}}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var er map[string]any
			assert.Equal(t, tc.code, e.call(t, c, http.MethodPost, "/game/guess", tc.body, &er))
			assert.Equal(t, tc.err, er["error"])
		})
	}

	var er map[string]any
	assert.Equal(t, http.StatusBadRequest, e.call(t, c, http.MethodPost, "/game/new",
		newGameReq{Secret: []string{"red"}}, &er))
	assert.Equal(t, "invalid_secret", er["error"])
}

func TestSolveEndpoint(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	var res solveRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/solve",
		solveReq{Secret: []string{"black", "black", "white", "red"}}, &res))
	assert.True(t, res.Solved)
	assert.Equal(t, 7, res.Attempts)
	assert.Equal(t, []string{"black", "black", "white", "red"}, res.Code)
	assert.Equal(t, map[string]int{"black": 2, "white": 1, "red": 1, "orange": 0, "yellow": 0, "blue": 0}, res.Census)
	require.Len(t, res.Rounds, 7)
	assert.Equal(t, "census", res.Rounds[0].Phase)
	assert.Equal(t, "final", res.Rounds[6].Phase)

	// The game is finished now; solving it again conflicts.
	var er map[string]any
	assert.Equal(t, http.StatusConflict, e.call(t, c, http.MethodPost, "/game/solve",
		solveReq{GameID: res.GameID}, &er))
	assert.Equal(t, "already_started", er["error"])

	// A game with a human guess on it is not handed to the solver.
	var ng newGameRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/new", nil, &ng))
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/guess",
		guessReq{GameID: ng.GameID, Guess: []string{"red", "red", "red", "red"}}, nil))
	assert.Equal(t, http.StatusConflict, e.call(t, c, http.MethodPost, "/game/solve",
		solveReq{GameID: ng.GameID}, nil))

	// Stats count the recorded run.
	var st storage.RunStats
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/solves/stats", nil, &st))
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Solved)
	assert.Equal(t, 7, st.Worst)
}

func TestAuthAndRuns(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	var er map[string]any
	assert.Equal(t, http.StatusUnauthorized, e.call(t, c, http.MethodGet, "/auth/me", nil, nil))

	var u map[string]any
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/auth/signup",
		credentialsReq{Username: "grace", Password: "password123"}, &u))
	assert.Equal(t, "grace", u["username"])

	assert.Equal(t, http.StatusConflict, e.call(t, c, http.MethodPost, "/auth/signup",
		credentialsReq{Username: "grace", Password: "password123"}, &er))
	assert.Equal(t, "username_taken", er["error"])

	var bad struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	assert.Equal(t, http.StatusBadRequest, e.call(t, c, http.MethodPost, "/auth/signup",
		credentialsReq{Username: "no spaces", Password: "password123"}, &bad))
	assert.Equal(t, "invalid_request", bad.Error)
	assert.Equal(t, []string{"username:username"}, bad.Fields)

	var me auth.User
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "grace", me.Username)

	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/game/solve",
		solveReq{Secret: []string{"blue", "blue", "blue", "blue"}}, nil))

	var runs []storage.Run
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/runs/mine", nil, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "blue,blue,blue,blue", runs[0].Secret)
	assert.Equal(t, 6, runs[0].Attempts)

	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, e.call(t, c, http.MethodGet, "/auth/me", nil, nil))

	assert.Equal(t, http.StatusUnauthorized, e.call(t, c, http.MethodPost, "/auth/login",
		credentialsReq{Username: "grace", Password: "wrong-password"}, &er))
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/auth/login",
		credentialsReq{Username: "grace", Password: "password123"}, nil))
	assert.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/auth/me", nil, nil))
}

func TestDailyChallenge(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)
	secret := e.srv.pal.Format(daily.Secret(testNow, testSalt, game.DefaultConfig()))

	var nr dailyNewRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/daily/new", nil, &nr))
	assert.Equal(t, "2026-10-15", nr.Date)
	assert.False(t, nr.Played)
	require.NotEmpty(t, nr.GameID)

	// Same player, same day: same session.
	var again dailyNewRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/daily/new", nil, &again))
	assert.Equal(t, nr.GameID, again.GameID)

	// Another player cannot guess on this session.
	other := e.client(t)
	assert.Equal(t, http.StatusConflict, e.call(t, other, http.MethodPost, "/daily/guess",
		guessReq{GameID: nr.GameID, Guess: secret}, nil))

	var gr dailyGuessRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/daily/guess",
		guessReq{GameID: nr.GameID, Guess: secret}, &gr))
	assert.Equal(t, game.StateWon, gr.State)
	assert.Equal(t, 1, gr.Attempts)
	assert.Equal(t, secret, gr.Secret)

	// A finished player gets no new session.
	var played dailyNewRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodPost, "/daily/new", nil, &played))
	assert.True(t, played.Played)
	assert.Empty(t, played.GameID)

	var lb leaderboardRes
	require.Equal(t, http.StatusOK, e.call(t, c, http.MethodGet, "/daily/leaderboard", nil, &lb))
	assert.Equal(t, "2026-10-15", lb.Date)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 1, lb.Top[0].Attempts)

	assert.Equal(t, http.StatusBadRequest, e.call(t, c, http.MethodGet, "/daily/leaderboard?date=yesterday", nil, nil))
}

func TestNewRejectsMismatchedPalette(t *testing.T) {
	pal, err := palette.New([]string{"a", "b", "c"})
	require.NoError(t, err)
	_, err = New(Deps{
		Store:   store.NewMemoryStore(0),
		DB:      &storage.DB{},
		Auth:    auth.NewService(nil, auth.Options{}),
		Palette: pal,
		Game:    game.DefaultConfig(),
	})
	assert.Error(t, err)
}
