// internal/game/types.go
//
// Core type definitions for the code-breaking game engine.
// Defines:
//   - Symbol/Code: palette members and ordered sequences of them.
//   - Feedback: aggregate result of a guess (hits/partials).
//   - Config: game dimensions (code length, palette size, attempt budget).
//   - Game: state for a single in-progress or finished game.

package game

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Symbol is one member of the palette, identified by its palette index.
type Symbol uint8

// Code is an ordered sequence of symbols: a secret or a guess.
type Code []Symbol

// String renders the code as palette indexes, e.g. "0012".
// Indexes are comma separated once any of them needs two digits.
func (c Code) String() string {
	sep := ""
	for _, s := range c {
		if s > 9 {
			sep = ","
		}
	}
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = strconv.Itoa(int(s))
	}
	return strings.Join(parts, sep)
}

// Equal reports whether both codes hold the same symbols in the same order.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the code as an array of indexes instead of the
// base64 string encoding/json uses for byte slices.
func (c Code) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	ints := make([]int, len(c))
	for i, s := range c {
		ints[i] = int(s)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON accepts an array of indexes.
func (c *Code) UnmarshalJSON(b []byte) error {
	var ints []int
	if err := json.Unmarshal(b, &ints); err != nil {
		return err
	}
	if ints == nil {
		*c = nil
		return nil
	}
	out := make(Code, len(ints))
	for i, n := range ints {
		if n < 0 || n >= MaxColors {
			return fmt.Errorf("%w: symbol %d out of range", ErrInvalidCode, n)
		}
		out[i] = Symbol(n)
	}
	*c = out
	return nil
}

// HitWeight is the weight of a hit in the packed feedback score.
const HitWeight = 5

// Feedback is the aggregate evaluation of a guess.
//   - Hits:     slots matching in both symbol and position.
//   - Partials: surplus symbol matches in the wrong position.
type Feedback struct {
	Hits     int `json:"hits"`
	Partials int `json:"partials"`
}

// Matches is the number of guess symbols present in the secret at all.
func (f Feedback) Matches() int { return f.Hits + f.Partials }

// Empty reports whether the guess matched nothing.
func (f Feedback) Empty() bool { return f.Hits == 0 && f.Partials == 0 }

// Score packs the feedback as HitWeight*hits + partials.
// The packed form is only reversible while Partials < HitWeight,
// which holds for codes of length 4 or less.
func (f Feedback) Score() int { return f.Hits*HitWeight + f.Partials }

// FeedbackFromScore unpacks a weighted score. See Score for the precondition.
func FeedbackFromScore(score int) Feedback {
	return Feedback{Hits: score / HitWeight, Partials: score % HitWeight}
}

func (f Feedback) String() string {
	return fmt.Sprintf("%dH%dP", f.Hits, f.Partials)
}

// MaxColors bounds the palette so candidate sets fit a 64-bit mask.
const MaxColors = 64

// Config holds the game dimensions.
type Config struct {
	Length      int `json:"length"`      // Slots per code (typically 4).
	Colors      int `json:"colors"`      // Palette size (typically 6).
	MaxAttempts int `json:"maxAttempts"` // Guess budget (typically 12).
}

// DefaultConfig is the classic 4 slots, 6 colors, 12 attempts board.
func DefaultConfig() Config {
	return Config{Length: defaultLength, Colors: defaultColors, MaxAttempts: defaultAttempts}
}

// Validate rejects dimensions the engine cannot represent.
func (c Config) Validate() error {
	switch {
	case c.Length < 1:
		return fmt.Errorf("game: length must be positive, got %d", c.Length)
	case c.Colors < 2 || c.Colors > MaxColors:
		return fmt.Errorf("game: colors must be within 2..%d, got %d", MaxColors, c.Colors)
	case c.MaxAttempts < 1:
		return fmt.Errorf("game: max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// CheckCode verifies that code has the configured length and only palette symbols.
func (c Config) CheckCode(code Code) error {
	if len(code) != c.Length {
		return fmt.Errorf("%w: want %d symbols, got %d", ErrInvalidCode, c.Length, len(code))
	}
	for i, s := range code {
		if int(s) >= c.Colors {
			return fmt.Errorf("%w: symbol %d at slot %d outside palette of %d", ErrInvalidCode, s, i, c.Colors)
		}
	}
	return nil
}

// State is a coarse description of a game's progress.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Game holds the state of a single game session.
type Game struct {
	ID       string     // Unique game identifier.
	Secret   Code       // The hidden code.
	Config   Config     // Dimensions and attempt budget.
	Guesses  []Code     // Guesses made so far.
	Feedback []Feedback // Feedback per guess, parallel to Guesses.
	Finished bool       // True once the game is over (won or lost).
	Won      bool       // True if the game was finished with a win.
}
