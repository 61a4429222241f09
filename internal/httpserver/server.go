// internal/httpserver/server.go
//
// HTTP server wiring for the chameleon backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging and metrics).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game and solver endpoints (optional auth): /game/*, /solves/stats.
//   - Daily challenge endpoints (optional auth): mounted under /daily.
//   - Auth + history endpoints: /auth/*, /runs/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie for the daily challenge.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/KhashayarKhm/chameleon/internal/auth"
	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/palette"
	"github.com/KhashayarKhm/chameleon/internal/storage"
	"github.com/KhashayarKhm/chameleon/internal/store"
)

// validate checks decoded request payloads against their struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Deps are the collaborators a Server needs.
type Deps struct {
	Store        store.Store
	DB           *storage.DB
	Auth         *auth.Service
	Palette      *palette.Palette
	Game         game.Config // dimensions for new games; Colors must match the palette
	DailySalt    string
	ClientOrigin string
	Secure       bool // Secure cookies (production)
}

// Server bundles router, live game store and persistence.
type Server struct {
	r      *chi.Mux
	store  store.Store
	db     *storage.DB
	auth   *auth.Service
	pal    *palette.Palette
	cfg    game.Config
	origin string
	secure bool

	dailySalt string
	now       func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) (*Server, error) {
	if d.Store == nil || d.DB == nil || d.Auth == nil || d.Palette == nil {
		return nil, errors.New("httpserver: missing dependency")
	}
	if err := d.Game.Validate(); err != nil {
		return nil, err
	}
	if d.Game.Colors != d.Palette.Len() {
		return nil, fmt.Errorf("httpserver: game has %d colors, palette %d", d.Game.Colors, d.Palette.Len())
	}
	s := &Server{
		r:      chi.NewRouter(),
		store:  d.Store,
		db:     d.DB,
		auth:   d.Auth,
		pal:    d.Palette,
		cfg:    d.Game,
		origin: d.ClientOrigin,
		secure: d.Secure,

		dailySalt: d.DailySalt,
		now:       time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(observe)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "chameleon",
			"endpoints": []string{
				"/health", "/metrics",
				"POST /game/new", "POST /game/guess", "GET /game/{id}", "POST /game/solve",
				"GET /solves/stats", "/daily/*", "/auth/*", "GET /runs/mine",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "games": s.store.Len()})
	})
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Game + solver, OPTIONAL AUTH (guests can play and solve)
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.Optional)
		s.mountGame(r)
		s.mountDaily(r)
	})

	// Auth + history
	s.mountAuth()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s, nil
}

// Handler exposes the router (useful for tests and http.Server).
func (s *Server) Handler() http.Handler { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.origin != "" {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", s.origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe logs each request and records it in the HTTP metrics,
// labelled by route pattern rather than raw path.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		httpRequests.WithLabelValues(r.Method, route, fmt.Sprint(status)).Inc()
		httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

// ------------------------------- helpers -----------------------------------

var errBadJSON = errors.New("bad_json")

// decode reads a JSON body into v and validates it. An empty body decodes
// as the zero value, so optional payloads need no special casing.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return validate.Struct(v)
}

// writeDecodeError maps a decode failure to a 400 response.
func writeDecodeError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, len(ve))
		for i, fe := range ve {
			fields[i] = strings.ToLower(fe.Field()) + ":" + fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request", "fields": fields})
		return
	}
	writeError(w, http.StatusBadRequest, "bad_json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

const anonCookieName = "chameleon_anon"

// playerID returns the authenticated user ID, or a stable anonymous ID
// kept in a cookie for guests.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return "anon:" + c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return "anon:" + id
}
