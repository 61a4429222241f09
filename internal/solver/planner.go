package solver

import (
	"github.com/KhashayarKhm/chameleon/internal/game"
)

// Plan is the planner's next move.
//
// When Deduced is set no guess is needed: Slot must hold Target and the
// driver assigns it directly. Otherwise Guess is an isolation guess testing
// Target at Slot, with a known-absent filler in every other slot.
//
// When no symbol is absent the guess is padded instead: resolved slots echo
// their own symbol (Known hits) and the other open slots carry Pad, of which
// PadUnplaced copies are still unplaced. See isolate.
type Plan struct {
	Guess   game.Code
	Slot    int
	Target  game.Symbol
	Deduced bool

	Padded      bool
	Pad         game.Symbol
	Known       int
	PadUnplaced int
}

// isolate reduces the feedback of a padded guess to what an isolation guess
// would have scored: one hit when Slot holds Target, one partial otherwise.
// padAt reports that Slot was found to hold Pad.
func (p Plan) isolate(fb game.Feedback) (iso game.Feedback, padAt bool, err error) {
	if !p.Padded {
		return fb, false, nil
	}
	switch d := fb.Hits - p.Known - p.PadUnplaced; {
	case d == 1 && fb.Partials == 0:
		return game.Feedback{Hits: 1}, false, nil
	case d == 0 && fb.Partials == 1:
		return game.Feedback{Partials: 1}, false, nil
	case d == -1 && fb.Partials == 2:
		return game.Feedback{Partials: 1}, true, nil
	}
	return game.Feedback{}, false, invariantf("padded guess %s scored %s", p.Guess, fb)
}

// bestSymbol picks the symbol closest to being pinned down: the one with the
// fewest unresolved slots admitting it beyond its unplaced count. Symbols with
// nothing left to place, or nowhere left to go, are skipped; ties go to the
// earlier palette symbol.
func bestSymbol(m *Model, c Census) (game.Symbol, bool) {
	var (
		best  game.Symbol
		score int
		found bool
	)
	for s := 0; s < m.colors; s++ {
		sym := game.Symbol(s)
		open := len(m.open(sym))
		ambiguity := open - (c.Count(sym) - m.placed(sym))
		if open == 0 || ambiguity <= 0 {
			continue
		}
		if !found || ambiguity < score {
			best, score, found = sym, ambiguity, true
		}
	}
	return best, found
}

// nextPlan chooses the next move for an unsolved model.
func nextPlan(m *Model, c Census) (Plan, error) {
	if m.ResolvedCount() == m.Len()-1 {
		return deduceLast(m, c)
	}

	target, ok := bestSymbol(m, c)
	if !ok {
		return Plan{}, invariantf("no symbol left to test in %s", m)
	}
	slot := -1
	for i := 0; i < m.Len(); i++ {
		if m.Size(i) > 1 && m.Has(i, target) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return Plan{}, invariantf("no open slot admits symbol %d in %s", target, m)
	}
	filler, ok := c.Absent()
	if !ok {
		return paddedPlan(m, c, slot, target)
	}

	guess := make(game.Code, m.Len())
	for i := range guess {
		guess[i] = filler
	}
	guess[slot] = target
	return Plan{Guess: guess, Slot: slot, Target: target}, nil
}

// paddedPlan tests target at slot when every symbol occurs. The pad is the
// symbol other than target with the fewest unplaced copies, so a fully placed
// symbol is preferred; its unplaced copies must fit the other open slots.
func paddedPlan(m *Model, c Census, slot int, target game.Symbol) (Plan, error) {
	others := 0
	for i := 0; i < m.Len(); i++ {
		if i != slot && m.Size(i) > 1 {
			others++
		}
	}
	var (
		pad   game.Symbol
		least = -1
	)
	for s := 0; s < m.colors; s++ {
		sym := game.Symbol(s)
		u := c.Count(sym) - m.placed(sym)
		if sym == target || u > others {
			continue
		}
		if least < 0 || u < least {
			pad, least = sym, u
		}
	}
	if least < 0 {
		return Plan{}, invariantf("no pad symbol to isolate slot %d in %s", slot, m)
	}

	p := Plan{Guess: make(game.Code, m.Len()), Slot: slot, Target: target, Padded: true, Pad: pad, PadUnplaced: least}
	for i := range p.Guess {
		switch sym, ok := m.Resolved(i); {
		case i == slot:
			p.Guess[i] = target
		case ok:
			p.Guess[i] = sym
			p.Known++
		default:
			p.Guess[i] = pad
		}
	}
	return p, nil
}

// deduceLast resolves the single open slot without guessing: it holds the
// first candidate whose count is not yet fully placed.
func deduceLast(m *Model, c Census) (Plan, error) {
	for i := 0; i < m.Len(); i++ {
		if m.Size(i) == 1 {
			continue
		}
		for _, sym := range m.Candidates(i) {
			if m.placed(sym) < c.Count(sym) {
				return Plan{Slot: i, Target: sym, Deduced: true}, nil
			}
		}
		return Plan{}, invariantf("slot %d has no candidate with unplaced count in %s", i, m)
	}
	return Plan{}, invariantf("no open slot in %s", m)
}
