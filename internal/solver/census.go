package solver

import (
	"context"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

// Census maps each palette symbol (by index) to its number of occurrences in
// the secret. A complete census sums to the code length.
type Census []int

// Count is the occurrence count of sym.
func (c Census) Count(sym game.Symbol) int { return c[sym] }

// Total is the number of slots accounted for.
func (c Census) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Absent returns the first symbol known not to occur, in palette order.
func (c Census) Absent() (game.Symbol, bool) {
	for s, v := range c {
		if v == 0 {
			return game.Symbol(s), true
		}
	}
	return 0, false
}

// Present lists the symbols that occur, in palette order.
func (c Census) Present() []game.Symbol {
	var out []game.Symbol
	for s, v := range c {
		if v > 0 {
			out = append(out, game.Symbol(s))
		}
	}
	return out
}

// runCensus counts every symbol's occurrences, one symbol per guess, in
// palette order. The guess carries the candidate in the first `blanks` slots
// (blanks = slots not yet attributed) and a known-absent filler elsewhere;
// before any filler is known the candidate fills every slot. Either way
// hits+partials equals the candidate's occurrence count.
//
// The last symbol is never guessed: its count is whatever is left.
// Symbols reached after the counts sum to the length are absent.
//
// Every census guess is also folded into the candidate model.
func (s *Solver) runCensus(ctx context.Context) (done bool, err error) {
	var (
		filler    game.Symbol
		hasFiller bool
		length    = s.cfg.Length
	)
	for c := 0; c < s.cfg.Colors; c++ {
		sym := game.Symbol(c)
		blanks := length - s.census.Total()
		if blanks == 0 {
			s.model.Prune(sym, nil, nil, false)
			continue
		}
		if c == s.cfg.Colors-1 {
			s.census[sym] = blanks
			s.log.Debug().Int("symbol", c).Int("count", blanks).Msg("census: inferred by elimination")
			continue
		}
		if s.attempts >= s.cfg.MaxAttempts {
			return true, nil
		}

		guess := make(game.Code, length)
		var tested []int
		for i := range guess {
			if i < blanks || !hasFiller {
				guess[i] = sym
				tested = append(tested, i)
			} else {
				guess[i] = filler
			}
		}

		fb, err := s.attempt(ctx, phaseCensus, guess)
		if err != nil {
			return true, err
		}
		if fb.Hits == length {
			s.census[sym] = length
			s.solved = true
			return true, nil
		}

		if n := fb.Matches(); n > 0 {
			s.census[sym] = n
		} else if !hasFiller {
			filler, hasFiller = sym, true
		}
		s.model.Prune(sym, &fb, tested, false)
	}
	s.model.Settle(s.census)
	return false, nil
}
