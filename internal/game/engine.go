// internal/game/engine.go
//
// Core game engine for a single code-breaking session.
// Responsibilities:
//   - Create new games with a given or random secret.
//   - Validate and apply guesses (length, palette membership).
//   - Score guesses using the two-pass hit/partial algorithm.
//   - Track state transitions: playing → won/lost.
//
// The engine owns the secret; solvers only ever see Feedback.
package game

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
)

const (
	defaultLength   = 4
	defaultColors   = 6
	defaultAttempts = 12
)

var (
	// ErrFinished is returned when guessing on a game that is over.
	ErrFinished = errors.New("game finished")
	// ErrInvalidCode is returned for codes of the wrong length or with unknown symbols.
	ErrInvalidCode = errors.New("invalid code")
)

// New constructs a game around a fixed secret.
func New(cfg Config, secret Code) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckCode(secret); err != nil {
		return nil, err
	}
	return &Game{
		ID:     uuid.NewString(),
		Secret: append(Code(nil), secret...),
		Config: cfg,
	}, nil
}

// NewRandom constructs a game with a cryptographically random secret.
func NewRandom(cfg Config) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(cfg, RandomCode(cfg))
}

// RandomCode draws every slot uniformly from the palette.
func RandomCode(cfg Config) Code {
	code := make(Code, cfg.Length)
	limit := big.NewInt(int64(cfg.Colors))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(err)
		}
		code[i] = Symbol(n.Int64())
	}
	return code
}

// ApplyGuess validates and scores a guess, mutating the game state.
// Returns the feedback, the new state, or an error.
//
// State transitions:
//   - All slots hit → Finished = true, Won = true.
//   - Else if the number of guesses reaches MaxAttempts → Finished = true (loss).
func (g *Game) ApplyGuess(guess Code) (Feedback, State, error) {
	if g.Finished {
		return Feedback{}, g.State(), ErrFinished
	}
	if err := g.Config.CheckCode(guess); err != nil {
		return Feedback{}, g.State(), err
	}

	fb := Score(g.Secret, guess)
	g.Guesses = append(g.Guesses, append(Code(nil), guess...))
	g.Feedback = append(g.Feedback, fb)

	if fb.Hits == len(g.Secret) {
		g.Finished, g.Won = true, true
	} else if len(g.Guesses) >= g.Config.MaxAttempts {
		g.Finished = true
	}
	return fb, g.State(), nil
}

// Attempts is the number of guesses applied so far.
func (g *Game) Attempts() int { return len(g.Guesses) }

// State reports the current game state.
func (g *Game) State() State {
	if g.Finished {
		if g.Won {
			return StateWon
		}
		return StateLost
	}
	return StatePlaying
}

// Score implements the two-pass evaluation.
//
// Pass 1:
//   - Count exact matches as hits.
//   - Tally the remaining (non-hit) secret and guess symbols.
//
// Pass 2:
//   - Each symbol contributes min(secret surplus, guess surplus) partials.
//
// This handles repeated symbols on both sides.
func Score(secret, guess Code) Feedback {
	var fb Feedback
	var inSecret, inGuess [MaxColors]int
	n := min(len(secret), len(guess))

	for i := 0; i < n; i++ {
		if secret[i] == guess[i] {
			fb.Hits++
			continue
		}
		inSecret[secret[i]]++
		inGuess[guess[i]]++
	}
	for s := range inSecret {
		fb.Partials += min(inSecret[s], inGuess[s])
	}
	return fb
}
