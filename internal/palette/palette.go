// internal/palette/palette.go
//
// Symbol names for the game palette.
//
// Responsibilities:
//   - Load the palette from PALETTE_FILE or fall back to the embedded default
//     (black, white, red, orange, yellow, blue).
//   - Map names to game.Symbol indexes and back.
//
// Constraints:
//   • Names are lowercase, non-empty and unique.
//   • Order matters: the last name is the symbol the census never guesses.

package palette

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KhashayarKhm/chameleon/assets"
	"github.com/KhashayarKhm/chameleon/internal/game"
)

// ErrUnknownSymbol is returned when parsing a name outside the palette.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Palette is an ordered list of symbol names.
type Palette struct {
	names []string
	index map[string]game.Symbol
}

// Default returns the embedded palette.
func Default() (*Palette, error) {
	names, err := assets.PaletteList()
	if err != nil {
		return nil, fmt.Errorf("palette: read embedded: %w", err)
	}
	return New(names)
}

// Load reads one name per line from path; an empty path yields Default.
func Load(path string) (*Palette, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	defer f.Close()
	names, err := assets.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("palette: read %s: %w", path, err)
	}
	return New(names)
}

// New builds a palette from names, in order.
func New(names []string) (*Palette, error) {
	if len(names) < 2 || len(names) > game.MaxColors {
		return nil, fmt.Errorf("palette: need 2..%d names, got %d", game.MaxColors, len(names))
	}
	p := &Palette{names: make([]string, len(names)), index: make(map[string]game.Symbol, len(names))}
	for i, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			return nil, fmt.Errorf("palette: empty name at %d", i)
		}
		if _, dup := p.index[n]; dup {
			return nil, fmt.Errorf("palette: duplicate name %q", n)
		}
		p.names[i] = n
		p.index[n] = game.Symbol(i)
	}
	return p, nil
}

// Len is the palette size.
func (p *Palette) Len() int { return len(p.names) }

// Names returns the names in palette order.
func (p *Palette) Names() []string { return append([]string(nil), p.names...) }

// Name returns the name of s, or its index when s is outside the palette.
func (p *Palette) Name(s game.Symbol) string {
	if int(s) < len(p.names) {
		return p.names[s]
	}
	return fmt.Sprintf("#%d", s)
}

// Parse maps a single name to its symbol.
func (p *Palette) Parse(name string) (game.Symbol, error) {
	s, ok := p.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, name)
	}
	return s, nil
}

// ParseCode maps names to a code.
func (p *Palette) ParseCode(names []string) (game.Code, error) {
	code := make(game.Code, len(names))
	for i, n := range names {
		s, err := p.Parse(n)
		if err != nil {
			return nil, err
		}
		code[i] = s
	}
	return code, nil
}

// Format maps a code to names.
func (p *Palette) Format(code game.Code) []string {
	out := make([]string, len(code))
	for i, s := range code {
		out[i] = p.Name(s)
	}
	return out
}
