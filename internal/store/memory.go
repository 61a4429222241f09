// internal/store/memory.go
//
// In-memory store for live game sessions.
// Characteristics:
//   - Games keyed by ID, guarded by an RWMutex.
//   - Finished games older than the retention window are swept on Save.
//   - State is lost on restart; finished runs are persisted via storage.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KhashayarKhm/chameleon/internal/game"
)

// ErrNotFound is returned for unknown or expired IDs.
var ErrNotFound = errors.New("game not found")

// Store persists game sessions.
type Store interface {
	// Save inserts or replaces g.
	Save(ctx context.Context, g *game.Game) error

	// View runs fn on the stored game under the store's read lock.
	View(ctx context.Context, id string, fn func(g *game.Game)) error

	// Update runs fn on the stored game under the store's write lock.
	Update(ctx context.Context, id string, fn func(g *game.Game) error) (*game.Game, error)

	// Len returns the number of live sessions.
	Len() int
}

type entry struct {
	g       *game.Game
	touched time.Time
}

type memory struct {
	mu        sync.RWMutex
	games     map[string]*entry
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore returns a Store that keeps finished games for retention
// after their last change. A zero retention keeps them forever.
func NewMemoryStore(retention time.Duration) Store {
	return &memory{games: make(map[string]*entry), retention: retention, now: time.Now}
}

func (m *memory) Save(ctx context.Context, g *game.Game) error {
	if g == nil || g.ID == "" {
		return errors.New("store: game without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	m.games[g.ID] = &entry{g: g, touched: now}
	return nil
}

func (m *memory) View(ctx context.Context, id string, fn func(g *game.Game)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	fn(e.g)
	return nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(g *game.Game) error) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(e.g); err != nil {
		return e.g, err
	}
	e.touched = m.now()
	return e.g, nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// sweep drops finished games past retention. Caller holds mu.
func (m *memory) sweep(now time.Time) {
	if m.retention <= 0 {
		return
	}
	for id, e := range m.games {
		if e.g.Finished && now.Sub(e.touched) > m.retention {
			delete(m.games, id)
		}
	}
}
