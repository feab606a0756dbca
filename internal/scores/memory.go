package scores

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/gravitas-games/haxagon/internal/board"
)

// Memory is a process-local Store.
type Memory struct {
	mu   sync.RWMutex
	best map[board.ModeKey]map[string]int
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{best: make(map[board.ModeKey]map[string]int)}
}

func (m *Memory) Record(_ context.Context, player string, mode board.ModeKey, score int) (Result, error) {
	if err := checkMode(mode); err != nil {
		return Result{}, err
	}
	if err := checkPlayer(player); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byPlayer, ok := m.best[mode]
	if !ok {
		byPlayer = make(map[string]int)
		m.best[mode] = byPlayer
	}
	prev, had := byPlayer[player]
	res := merge(prev, had, score)
	byPlayer[player] = res.Best
	return res, nil
}

func (m *Memory) Best(_ context.Context, player string, mode board.ModeKey) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score, ok := m.best[mode][player]
	if !ok {
		return 0, ErrNotFound
	}
	return score, nil
}

func (m *Memory) Top(_ context.Context, mode board.ModeKey, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.best[mode]))
	for player, score := range m.best[mode] {
		entries = append(entries, Entry{Player: player, Score: score})
	}
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
