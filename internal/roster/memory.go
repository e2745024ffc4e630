package roster

import (
	"context"
	"fmt"
	"sync"

	"github.com/elliotchance/pie/v2"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/match"
)

// Memory is an in-process Roster. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	players map[string]Player
}

// NewMemory returns a roster seeded with builtin players.
func NewMemory(builtin ...config.PlayerRef) *Memory {
	m := &Memory{players: make(map[string]Player)}
	for _, ref := range builtin {
		m.players[ref.ID] = Player{ID: ref.ID, Name: NormalizeName(ref.Label()), Builtin: true}
	}
	return m
}

// Register adds a player, or renames an existing one.
func (m *Memory) Register(_ context.Context, ref config.PlayerRef) (Player, error) {
	if ref.ID == "" {
		return Player{}, fmt.Errorf("register player: empty id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[ref.ID]
	if !ok {
		p = Player{ID: ref.ID}
	}
	p.Name = NormalizeName(ref.Label())
	m.players[ref.ID] = p
	return p, nil
}

// Player returns one player.
func (m *Memory) Player(_ context.Context, id string) (Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Players returns every player ordered by ID.
func (m *Memory) Players(_ context.Context) ([]Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	return pie.SortUsing(out, func(a, b Player) bool { return a.ID < b.ID }), nil
}

// Delete removes a non-builtin player.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if p.Builtin {
		return fmt.Errorf("%w: %s", ErrBuiltin, id)
	}
	delete(m.players, id)
	return nil
}

// ApplyMatchResult merges res into both players' records, registering
// players the roster has not seen.
func (m *Memory) ApplyMatchResult(_ context.Context, res match.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range Seats(res) {
		p, ok := m.players[u.Ref.ID]
		if !ok {
			p = Player{ID: u.Ref.ID, Name: NormalizeName(u.Ref.Label())}
		}
		p.Stats = p.Stats.Merge(u.Won, u.Stats)
		m.players[u.Ref.ID] = p
	}
	return nil
}

// RevertMatchResult takes res back out of both players' records.
// Players removed since the merge are skipped.
func (m *Memory) RevertMatchResult(_ context.Context, res match.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range Seats(res) {
		p, ok := m.players[u.Ref.ID]
		if !ok {
			continue
		}
		p.Stats = p.Stats.Unmerge(u.Won, u.Stats)
		m.players[u.Ref.ID] = p
	}
	return nil
}
