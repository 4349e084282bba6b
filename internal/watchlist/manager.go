// Package watchlist keeps the user's selected instruments between runs.
package watchlist

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrEmptySymbol is returned when adding or removing a blank symbol.
var ErrEmptySymbol = errors.New("symbol is empty")

// Manager handles watchlist operations with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading state from disk. A watchlist that
// has never been saved starts with seed.
func NewManager(filePath string, seed []string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	m := &Manager{state: state, filePath: filePath}
	if state.UpdatedAt.IsZero() && len(state.Symbols) == 0 && len(seed) > 0 {
		for _, s := range seed {
			m.add(normalize(s))
		}
		if err := m.save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// List returns the selected symbols in insertion order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Symbols...)
}

// Ready reports whether enough instruments are selected to compare.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Symbols) > 1
}

// Add appends symbol unless it is already listed. It reports whether the
// list changed.
func (m *Manager) Add(symbol string) (bool, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return false, ErrEmptySymbol
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.snapshot()
	if !m.add(symbol) {
		return false, nil
	}
	if err := m.commit(prev); err != nil {
		return false, err
	}
	log.Info().Str("symbol", symbol).Int("count", len(m.state.Symbols)).Msg("watchlist: added")
	return true, nil
}

// Remove deletes symbol. It reports whether the list changed.
func (m *Manager) Remove(symbol string) (bool, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return false, ErrEmptySymbol
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, s := range m.state.Symbols {
		if s == symbol {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	prev := m.snapshot()
	m.state.Symbols = append(m.state.Symbols[:idx], m.state.Symbols[idx+1:]...)
	if err := m.commit(prev); err != nil {
		return false, err
	}
	log.Info().Str("symbol", symbol).Int("count", len(m.state.Symbols)).Msg("watchlist: removed")
	return true, nil
}

// add must be called with mu held.
func (m *Manager) add(symbol string) bool {
	if symbol == "" {
		return false
	}
	for _, s := range m.state.Symbols {
		if s == symbol {
			return false
		}
	}
	m.state.Symbols = append(m.state.Symbols, symbol)
	return true
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

// snapshot copies the state so a failed save can be undone.
func (m *Manager) snapshot() State {
	return State{
		Symbols:   append([]string(nil), m.state.Symbols...),
		UpdatedAt: m.state.UpdatedAt,
	}
}

// commit saves the state, restoring prev when the write fails so memory
// never disagrees with disk.
func (m *Manager) commit(prev State) error {
	if err := m.save(); err != nil {
		*m.state = prev
		log.Error().Err(err).Str("path", m.filePath).Msg("watchlist: save failed, change rolled back")
		return err
	}
	return nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
