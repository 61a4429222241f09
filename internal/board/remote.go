package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KhashayarKhm/chameleon/internal/game"
	"github.com/KhashayarKhm/chameleon/internal/palette"
)

// Remote is a Board backed by a game hosted on a chameleon server.
// Guesses travel as palette names; the palette and dimensions are read
// from the server when dialling.
type Remote struct {
	client  *http.Client
	base    string
	gameID  string
	pal     *palette.Palette
	cfg     game.Config
	pending *game.Feedback
}

// remoteView mirrors the subset of GET /game/{id} the board needs.
type remoteView struct {
	Length      int      `json:"length"`
	Colors      int      `json:"colors"`
	MaxAttempts int      `json:"maxAttempts"`
	Palette     []string `json:"palette"`
	State       string   `json:"state"`
	Attempts    int      `json:"attempts"`
}

type remoteGuess struct {
	Hits     int    `json:"hits"`
	Partials int    `json:"partials"`
	State    string `json:"state"`
}

type remoteError struct {
	Error string `json:"error"`
}

// NewRemoteGame asks the server at baseURL for a fresh game and returns its ID.
// An empty secret requests a random one.
func NewRemoteGame(ctx context.Context, client *http.Client, baseURL string, secret []string) (string, error) {
	var res struct {
		GameID string `json:"gameId"`
	}
	body := map[string]any{}
	if len(secret) > 0 {
		body["secret"] = secret
	}
	if err := do(ctx, client, http.MethodPost, strings.TrimRight(baseURL, "/")+"/game/new", body, &res); err != nil {
		return "", err
	}
	return res.GameID, nil
}

// Dial attaches to an untouched game on the server.
func Dial(ctx context.Context, client *http.Client, baseURL, gameID string) (*Remote, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	r := &Remote{client: client, base: strings.TrimRight(baseURL, "/"), gameID: gameID}
	v, err := r.view(ctx)
	if err != nil {
		return nil, err
	}
	if v.Attempts > 0 || v.State != string(game.StatePlaying) {
		return nil, fmt.Errorf("dial %s: %w", gameID, ErrConcluded)
	}
	if r.pal, err = palette.New(v.Palette); err != nil {
		return nil, fmt.Errorf("dial %s: %w", gameID, err)
	}
	r.cfg = game.Config{Length: v.Length, Colors: v.Colors, MaxAttempts: v.MaxAttempts}
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dial %s: %w", gameID, err)
	}
	return r, nil
}

// Config is the remote game's dimensions.
func (r *Remote) Config() game.Config { return r.cfg }

// Palette is the server's palette.
func (r *Remote) Palette() *palette.Palette { return r.pal }

// GameID identifies the remote game.
func (r *Remote) GameID() string { return r.gameID }

// SubmitGuess posts guess to /game/guess and holds the feedback until read.
func (r *Remote) SubmitGuess(ctx context.Context, guess game.Code) error {
	if r.pending != nil {
		return ErrFeedbackUnread
	}
	if err := r.cfg.CheckCode(guess); err != nil {
		return errors.Join(ErrInvalidGuess, err)
	}
	var res remoteGuess
	err := do(ctx, r.client, http.MethodPost, r.base+"/game/guess", map[string]any{
		"gameId": r.gameID,
		"guess":  r.pal.Format(guess),
	}, &res)
	if err != nil {
		return err
	}
	r.pending = &game.Feedback{Hits: res.Hits, Partials: res.Partials}
	return nil
}

// ReadFeedback returns and clears the outstanding feedback.
func (r *Remote) ReadFeedback(_ context.Context) (game.Feedback, error) {
	if r.pending == nil {
		return game.Feedback{}, ErrNoPendingGuess
	}
	fb := *r.pending
	r.pending = nil
	return fb, nil
}

// IsConcluded asks the server for the game's state.
func (r *Remote) IsConcluded(ctx context.Context) (bool, error) {
	v, err := r.view(ctx)
	if err != nil {
		return false, err
	}
	return v.State != string(game.StatePlaying), nil
}

func (r *Remote) view(ctx context.Context) (remoteView, error) {
	var v remoteView
	err := do(ctx, r.client, http.MethodGet, r.base+"/game/"+url.PathEscape(r.gameID), nil, &v)
	return v, err
}

// do sends one JSON request and decodes a 200 response into out.
// Error bodies are mapped onto the board's sentinel errors.
func do(ctx context.Context, client *http.Client, method, u string, body, out any) error {
	if client == nil {
		client = http.DefaultClient
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var e remoteError
		_ = json.NewDecoder(res.Body).Decode(&e)
		switch e.Error {
		case "invalid_guess":
			return ErrInvalidGuess
		case "finished":
			return ErrConcluded
		}
		return fmt.Errorf("%s %s: status %d %s", method, u, res.StatusCode, e.Error)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
