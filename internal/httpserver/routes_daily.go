// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's game
//   - GET  /daily/leaderboard → best results for today (or ?date=YYYY-MM-DD)
//
// Each player can finish once per day (enforced by DB + in-memory session).
// Sessions are held in memory while playing and persisted when finished.
// The secret is derived from the date and DAILY_SALT.

package httpserver

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/KhashayarKhm/chameleon/internal/daily"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/storage"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	salt     string
	sessions map[string]*dailySession // keyed by playerID|date
	mu       sync.Mutex               // guards sessions and their games
}

// dailySession is an in-progress daily game.
type dailySession struct {
	Game     *game.Game
	PlayerID string
	Date     string
	Start    time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		salt:     s.dailySalt,
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// -----------------------------------------------------------------------------
// /daily/new

type dailyNewRes struct {
	GameID      string `json:"gameId,omitempty"`
	Date        string `json:"date"`
	Played      bool   `json:"played"`
	Length      int    `json:"length"`
	Colors      int    `json:"colors"`
	MaxAttempts int    `json:"maxAttempts"`
}

// handleNew creates or reuses today's session.
//   - Already finished today (DB row) → Played=true, no game.
//   - Otherwise reuse the in-memory session or start one.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	pid := d.srv.playerID(w, r)
	now := d.srv.now()
	date := daily.DateKey(now)
	res := dailyNewRes{
		Date:        date,
		Length:      d.srv.cfg.Length,
		Colors:      d.srv.cfg.Colors,
		MaxAttempts: d.srv.cfg.MaxAttempts,
	}

	played, err := d.srv.db.DailyPlayed(r.Context(), pid, date)
	if err != nil {
		log.Error().Err(err).Msg("daily played")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		res.Played = true
		writeJSON(w, http.StatusOK, res)
		return
	}

	key := pid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweep(date)
	if sess, ok := d.sessions[key]; ok {
		res.GameID = sess.Game.ID
		writeJSON(w, http.StatusOK, res)
		return
	}
	g, err := game.New(d.srv.cfg, daily.Secret(now, d.salt, d.srv.cfg))
	if err != nil {
		log.Error().Err(err).Msg("daily game")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	d.sessions[key] = &dailySession{Game: g, PlayerID: pid, Date: date, Start: now}
	res.GameID = g.ID
	writeJSON(w, http.StatusOK, res)
}

// sweep drops sessions from previous days. Caller holds mu.
func (d *dailyServer) sweep(today string) {
	for k, sess := range d.sessions {
		if sess.Date != today {
			delete(d.sessions, k)
		}
	}
}

// -----------------------------------------------------------------------------
// /daily/guess

type dailyGuessRes struct {
	Hits     int        `json:"hits"`
	Partials int        `json:"partials"`
	State    game.State `json:"state"`
	Attempts int        `json:"attempts"`
	Secret   []string   `json:"secret,omitempty"` // revealed once finished
}

// handleGuess applies a guess to today's session; a finished game is
// persisted and the session dropped.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	pid := d.srv.playerID(w, r)

	var req guessReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	code, err := d.srv.pal.ParseCode(req.Guess)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_guess")
		return
	}

	now := d.srv.now()
	date := daily.DateKey(now)
	key := pid + "|" + date

	d.mu.Lock()
	sess, ok := d.sessions[key]
	if !ok || sess.Game.ID != req.GameID {
		d.mu.Unlock()
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	fb, st, err := sess.Game.ApplyGuess(code)
	attempts := sess.Game.Attempts()
	finished := sess.Game.Finished
	if finished {
		delete(d.sessions, key)
	}
	d.mu.Unlock()

	switch {
	case errors.Is(err, game.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_guess")
		return
	case err != nil:
		writeError(w, http.StatusConflict, "locked")
		return
	}

	res := dailyGuessRes{Hits: fb.Hits, Partials: fb.Partials, State: st, Attempts: attempts}
	if finished {
		res.Secret = d.srv.pal.Format(sess.Game.Secret)
		d.finish(r, sess, now)
	}
	writeJSON(w, http.StatusOK, res)
}

// finish persists a finished daily game (best effort).
func (d *dailyServer) finish(r *http.Request, sess *dailySession, now time.Time) {
	result := "lost"
	if sess.Game.Won {
		result = "won"
	}
	dailyFinished.WithLabelValues(result).Inc()
	err := d.srv.db.InsertDailyResult(r.Context(), storage.DailyResult{
		PlayerID:  sess.PlayerID,
		Date:      sess.Date,
		Attempts:  sess.Game.Attempts(),
		Solved:    sess.Game.Won,
		ElapsedMs: now.Sub(sess.Start).Milliseconds(),
	})
	if err != nil {
		log.Warn().Err(err).Str("player", sess.PlayerID).Msg("insert daily result")
	}
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type leaderboardRes struct {
	Date string                `json:"date"`
	Top  []storage.DailyResult `json:"top"`
}

// handleLeaderboard returns the leaderboard for ?date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	rows, err := d.srv.db.DailyLeaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, leaderboardRes{Date: date, Top: rows})
}
