// internal/board/board.go
//
// The board is the only window a solver has onto a game.
// A session is a strict sequence of (SubmitGuess, ReadFeedback) pairs:
// a new guess may not be submitted until the previous feedback was read.
//
// Implementations:
//   - Local:  wraps an in-process *game.Game.
//   - Remote: drives a game hosted by the HTTP API.

package board

import (
	"context"
	"errors"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

var (
	// ErrInvalidGuess is returned for guesses of the wrong length or with symbols outside the palette.
	ErrInvalidGuess = errors.New("invalid guess")
	// ErrNoPendingGuess is returned by ReadFeedback when no guess is outstanding.
	ErrNoPendingGuess = errors.New("no pending guess")
	// ErrFeedbackUnread is returned by SubmitGuess while the previous feedback is unread.
	ErrFeedbackUnread = errors.New("previous feedback not read")
	// ErrConcluded is returned by SubmitGuess once the game is over.
	ErrConcluded = errors.New("game concluded")
)

// Board is the interface a solver plays through.
type Board interface {
	// SubmitGuess places a full guess on the board.
	SubmitGuess(ctx context.Context, guess game.Code) error

	// ReadFeedback returns the feedback for the outstanding guess.
	ReadFeedback(ctx context.Context) (game.Feedback, error)

	// IsConcluded reports whether the game signalled completion (won or lost).
	IsConcluded(ctx context.Context) (bool, error)
}

// Local is a Board backed by an in-process game.
// It is not safe for concurrent use; one solver owns it for a session.
type Local struct {
	g       *game.Game
	pending *game.Feedback
}

// NewLocal wraps g as a Board.
func NewLocal(g *game.Game) *Local {
	return &Local{g: g}
}

// SubmitGuess validates and applies guess, holding its feedback until read.
func (b *Local) SubmitGuess(_ context.Context, guess game.Code) error {
	if b.pending != nil {
		return ErrFeedbackUnread
	}
	if b.g.Finished {
		return ErrConcluded
	}
	if err := b.g.Config.CheckCode(guess); err != nil {
		return errors.Join(ErrInvalidGuess, err)
	}
	fb, _, err := b.g.ApplyGuess(guess)
	if err != nil {
		return err
	}
	b.pending = &fb
	return nil
}

// ReadFeedback returns and clears the outstanding feedback.
func (b *Local) ReadFeedback(_ context.Context) (game.Feedback, error) {
	if b.pending == nil {
		return game.Feedback{}, ErrNoPendingGuess
	}
	fb := *b.pending
	b.pending = nil
	return fb, nil
}

// IsConcluded reports the game's own completion flag.
func (b *Local) IsConcluded(_ context.Context) (bool, error) {
	return b.g.Finished, nil
}

// Game exposes the wrapped game (useful for tests and persistence).
func (b *Local) Game() *game.Game { return b.g }
