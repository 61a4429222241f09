package solver

import (
	"math/bits"
	"strings"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

// symbolSet is a bitmask over palette indexes.
type symbolSet uint64

func (s symbolSet) has(sym game.Symbol) bool { return s&(1<<sym) != 0 }
func (s symbolSet) len() int                 { return bits.OnesCount64(uint64(s)) }

// only returns the single member of a resolved set.
func (s symbolSet) only() game.Symbol { return game.Symbol(bits.TrailingZeros64(uint64(s))) }

// Model holds, per slot, the symbols still consistent with every feedback seen.
// The secret's symbol at slot i is always a member of slot i's set; sets only shrink.
type Model struct {
	slots  []symbolSet
	colors int
}

// NewModel starts every slot with the full palette.
func NewModel(cfg game.Config) *Model {
	full := symbolSet(1<<uint(cfg.Colors) - 1)
	if cfg.Colors == game.MaxColors {
		full = ^symbolSet(0)
	}
	m := &Model{slots: make([]symbolSet, cfg.Length), colors: cfg.Colors}
	for i := range m.slots {
		m.slots[i] = full
	}
	return m
}

// Len is the number of slots.
func (m *Model) Len() int { return len(m.slots) }

// Has reports whether sym is still a candidate for slot i.
func (m *Model) Has(i int, sym game.Symbol) bool { return m.slots[i].has(sym) }

// Size is the number of candidates left for slot i.
func (m *Model) Size(i int) int { return m.slots[i].len() }

// Candidates lists slot i's candidates in palette order.
func (m *Model) Candidates(i int) []game.Symbol {
	var out []game.Symbol
	for s := 0; s < m.colors; s++ {
		if m.slots[i].has(game.Symbol(s)) {
			out = append(out, game.Symbol(s))
		}
	}
	return out
}

// Resolved returns slot i's symbol once only one candidate is left.
func (m *Model) Resolved(i int) (game.Symbol, bool) {
	if m.slots[i].len() != 1 {
		return 0, false
	}
	return m.slots[i].only(), true
}

// ResolvedCount is the number of resolved slots.
func (m *Model) ResolvedCount() int {
	n := 0
	for _, s := range m.slots {
		if s.len() == 1 {
			n++
		}
	}
	return n
}

// Solved reports whether every slot is resolved.
func (m *Model) Solved() bool { return m.ResolvedCount() == len(m.slots) }

// Consistent is false once any slot has run out of candidates.
func (m *Model) Consistent() bool {
	for _, s := range m.slots {
		if s == 0 {
			return false
		}
	}
	return true
}

// Code returns the fully determined code. Only meaningful when Solved.
func (m *Model) Code() game.Code {
	code := make(game.Code, len(m.slots))
	for i, s := range m.slots {
		code[i] = s.only()
	}
	return code
}

// placed counts the slots resolved to sym.
func (m *Model) placed(sym game.Symbol) int {
	n := 0
	for _, s := range m.slots {
		if s.len() == 1 && s.has(sym) {
			n++
		}
	}
	return n
}

// open lists the unresolved slots that still admit sym.
func (m *Model) open(sym game.Symbol) []int {
	var out []int
	for i, s := range m.slots {
		if s.len() > 1 && s.has(sym) {
			out = append(out, i)
		}
	}
	return out
}

// Remove drops sym from every slot. Used when sym is known absent.
func (m *Model) Remove(sym game.Symbol) {
	for i := range m.slots {
		m.slots[i] &^= 1 << sym
	}
}

// Assign collapses slot i to sym.
func (m *Model) Assign(i int, sym game.Symbol) {
	m.slots[i] &= 1 << sym
}

// Prune folds one guess into the model. target is the symbol under test and
// tested the slots that carried it; every other slot held a symbol known not
// to match. A nil fb forces removal of target everywhere.
//
// Cases, in order:
//  1. forced (fb == nil) or empty feedback: target is nowhere.
//  2. every tested slot hit: tested slots collapse to target; unless pointwise,
//     target also leaves every other unresolved slot.
//  3. no hits: target is present elsewhere but in none of the tested slots.
//  4. anything else cannot be attributed to a single slot; the model is unchanged.
func (m *Model) Prune(target game.Symbol, fb *game.Feedback, tested []int, pointwise bool) {
	if fb == nil || fb.Empty() {
		m.Remove(target)
		return
	}

	isTested := make([]bool, len(m.slots))
	for _, i := range tested {
		isTested[i] = true
	}

	switch {
	case fb.Hits == len(tested) && fb.Partials == 0:
		for i := range m.slots {
			switch {
			case isTested[i]:
				m.Assign(i, target)
			case !pointwise && m.slots[i].len() > 1:
				m.slots[i] &^= 1 << target
			}
		}
	case fb.Hits == 0:
		for _, i := range tested {
			m.slots[i] &^= 1 << target
		}
	}
}

// Settle propagates census counts until nothing changes:
//   - a symbol whose count is fully placed leaves every unresolved slot;
//   - a symbol whose remaining count equals the number of unresolved slots
//     still admitting it must occupy all of them.
func (m *Model) Settle(c Census) {
	for changed := true; changed; {
		changed = false
		for s := 0; s < m.colors; s++ {
			sym := game.Symbol(s)
			open := m.open(sym)
			if len(open) == 0 {
				continue
			}
			remaining := c.Count(sym) - m.placed(sym)
			switch {
			case remaining == 0:
				for _, i := range open {
					m.slots[i] &^= 1 << sym
				}
				changed = true
			case remaining > 0 && len(open) == remaining:
				for _, i := range open {
					m.Assign(i, sym)
				}
				changed = true
			}
		}
	}
}

// String renders each slot's candidates, e.g. "[0] [13] [13] [2]".
func (m *Model) String() string {
	parts := make([]string, len(m.slots))
	for i := range m.slots {
		parts[i] = "[" + game.Code(m.Candidates(i)).String() + "]"
	}
	return strings.Join(parts, " ")
}
