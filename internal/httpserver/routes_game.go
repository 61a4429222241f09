// internal/httpserver/routes_game.go
//
// Game and solver routes:
//   - POST /game/new     → start a game (random or fixed secret)
//   - POST /game/guess   → score a guess
//   - GET  /game/{id}    → public view of a game
//   - POST /game/solve   → let the solver play a fresh game
//   - GET  /solves/stats → aggregate recorded solver runs
//
// Codes travel as palette names; the secret is only revealed once a game
// is over.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/KhashayarKhm/chameleon/internal/auth"
	"github.com/KhashayarKhm/chameleon/internal/board"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/solver"
	"github.com/KhashayarKhm/chameleon/internal/store"
	"github.com/KhashayarKhm/chameleon/internal/storage"
)

var errAlreadyStarted = errors.New("game already started")

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Post("/game/guess", s.handleGuess)
	r.Get("/game/{id}", s.handleGetGame)
	r.Post("/game/solve", s.handleSolve)
	r.Get("/solves/stats", s.handleStats)
}

// -----------------------------------------------------------------------------
// /game/new

type newGameReq struct {
	Secret []string `json:"secret" validate:"omitempty,dive,required"`
}

type newGameRes struct {
	GameID      string   `json:"gameId"`
	Length      int      `json:"length"`
	Colors      int      `json:"colors"`
	MaxAttempts int      `json:"maxAttempts"`
	Palette     []string `json:"palette"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	g, err := s.newGame(req.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_secret")
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, newGameRes{
		GameID:      g.ID,
		Length:      g.Config.Length,
		Colors:      g.Config.Colors,
		MaxAttempts: g.Config.MaxAttempts,
		Palette:     s.pal.Names(),
	})
}

// newGame creates a game around the named secret, or a random one.
func (s *Server) newGame(secret []string) (*game.Game, error) {
	if len(secret) == 0 {
		return game.NewRandom(s.cfg)
	}
	code, err := s.pal.ParseCode(secret)
	if err != nil {
		return nil, err
	}
	return game.New(s.cfg, code)
}

// -----------------------------------------------------------------------------
// /game/guess

type guessReq struct {
	GameID string   `json:"gameId" validate:"required"`
	Guess  []string `json:"guess" validate:"required,min=1,dive,required"`
}

type guessRes struct {
	Hits     int        `json:"hits"`
	Partials int        `json:"partials"`
	State    game.State `json:"state"`
	Attempts int        `json:"attempts"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	code, err := s.pal.ParseCode(req.Guess)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_guess")
		return
	}

	var res guessRes
	_, err = s.store.Update(r.Context(), req.GameID, func(g *game.Game) error {
		fb, st, err := g.ApplyGuess(code)
		if err != nil {
			return err
		}
		res = guessRes{Hits: fb.Hits, Partials: fb.Partials, State: st, Attempts: g.Attempts()}
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrFinished):
		writeError(w, http.StatusConflict, "finished")
	case errors.Is(err, game.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_guess")
	case err != nil:
		log.Error().Err(err).Str("gameId", req.GameID).Msg("apply guess")
		writeError(w, http.StatusInternalServerError, "server_error")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// -----------------------------------------------------------------------------
// /game/{id}

type roundView struct {
	Guess    []string `json:"guess"`
	Hits     int      `json:"hits"`
	Partials int      `json:"partials"`
	Phase    string   `json:"phase,omitempty"`
}

type gameView struct {
	GameID      string      `json:"gameId"`
	Length      int         `json:"length"`
	Colors      int         `json:"colors"`
	MaxAttempts int         `json:"maxAttempts"`
	Palette     []string    `json:"palette"`
	State       game.State  `json:"state"`
	Attempts    int         `json:"attempts"`
	Rounds      []roundView `json:"rounds"`
	Secret      []string    `json:"secret,omitempty"`
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	var v gameView
	err := s.store.View(r.Context(), chi.URLParam(r, "id"), func(g *game.Game) { v = s.view(g) })
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// view renders g for clients. Callers hold the store lock.
func (s *Server) view(g *game.Game) gameView {
	v := gameView{
		GameID:      g.ID,
		Length:      g.Config.Length,
		Colors:      g.Config.Colors,
		MaxAttempts: g.Config.MaxAttempts,
		Palette:     s.pal.Names(),
		State:       g.State(),
		Attempts:    g.Attempts(),
		Rounds:      make([]roundView, len(g.Guesses)),
	}
	for i, guess := range g.Guesses {
		v.Rounds[i] = roundView{Guess: s.pal.Format(guess), Hits: g.Feedback[i].Hits, Partials: g.Feedback[i].Partials}
	}
	if g.Finished {
		v.Secret = s.pal.Format(g.Secret)
	}
	return v
}

// -----------------------------------------------------------------------------
// /game/solve

type solveReq struct {
	GameID string   `json:"gameId" validate:"omitempty,uuid"`
	Secret []string `json:"secret" validate:"omitempty,dive,required"`
}

type solveRes struct {
	GameID   string         `json:"gameId"`
	Solved   bool           `json:"solved"`
	Attempts int            `json:"attempts"`
	Code     []string       `json:"code,omitempty"`
	Census   map[string]int `json:"census"`
	Rounds   []roundView    `json:"rounds"`
}

// handleSolve runs the solver against a stored, untouched game. Without a
// gameId it creates one first (from secret, or random).
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	gameID := req.GameID
	if gameID == "" {
		g, err := s.newGame(req.Secret)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_secret")
			return
		}
		if err := s.store.Save(r.Context(), g); err != nil {
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}
		gameID = g.ID
	}

	var out solver.Outcome
	g, err := s.store.Update(r.Context(), gameID, func(g *game.Game) error {
		if g.Attempts() > 0 || g.Finished {
			return errAlreadyStarted
		}
		var err error
		out, err = solveGame(r.Context(), g)
		return err
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
		return
	case errors.Is(err, errAlreadyStarted):
		writeError(w, http.StatusConflict, "already_started")
		return
	case err != nil:
		log.Error().Err(err).Str("gameId", gameID).Msg("solve")
		writeError(w, http.StatusInternalServerError, "solver_error")
		return
	}

	s.recordRun(r.Context(), g, out, "api")
	writeJSON(w, http.StatusOK, s.solveView(g.ID, out))
}

// solveGame plays a solver session on g through a local board.
func solveGame(ctx context.Context, g *game.Game) (solver.Outcome, error) {
	sv, err := solver.New(board.NewLocal(g), g.Config, log.Logger.With().Str("gameId", g.ID).Logger())
	if err != nil {
		return solver.Outcome{}, err
	}
	return sv.Solve(ctx)
}

func (s *Server) solveView(gameID string, out solver.Outcome) solveRes {
	res := solveRes{
		GameID:   gameID,
		Solved:   out.Solved,
		Attempts: out.Attempts,
		Census:   make(map[string]int, len(out.Census)),
		Rounds:   make([]roundView, len(out.Rounds)),
	}
	if out.Solved {
		res.Code = s.pal.Format(out.Code)
	}
	for sym, n := range out.Census {
		res.Census[s.pal.Name(game.Symbol(sym))] = n
	}
	for i, rd := range out.Rounds {
		res.Rounds[i] = roundView{Guess: s.pal.Format(rd.Guess), Hits: rd.Feedback.Hits, Partials: rd.Feedback.Partials, Phase: rd.Phase}
	}
	return res
}

// recordRun persists a finished solver session (best effort).
func (s *Server) recordRun(ctx context.Context, g *game.Game, out solver.Outcome, source string) {
	run := &storage.Run{
		GameID:   g.ID,
		Secret:   strings.Join(s.pal.Format(g.Secret), ","),
		Solved:   out.Solved,
		Attempts: out.Attempts,
		Source:   source,
	}
	if me := auth.FromContext(ctx); me != nil {
		run.UserID = me.ID
	}
	if err := s.db.InsertRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("record run")
	}
}

// -----------------------------------------------------------------------------
// /solves/stats

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.db.Stats(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		log.Error().Err(err).Msg("solve stats")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
