package viewmodel

import (
	"context"
	"fmt"
	"sync"

	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/rs/zerolog"
)

// RecordStore supplies the full raw listing set.
type RecordStore interface {
	FetchAll(ctx context.Context) ([]model.Listing, error)
}

// Model holds one session's current State. Each operation swaps in a
// whole new snapshot under the lock, so readers never see a partially
// updated all/grouped/view triple.
type Model struct {
	mu    sync.RWMutex
	state State
	log   zerolog.Logger
}

func NewModel() *Model {
	return &Model{log: logger.Component("viewmodel")}
}

func (m *Model) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Model) Load(records []model.Listing) State {
	return m.apply(func(s State) State { return s.Load(records) })
}

func (m *Model) SetQuery(text string) State {
	return m.apply(func(s State) State { return s.SetQuery(text) })
}

func (m *Model) ToggleSort(field SortField) State {
	return m.apply(func(s State) State { return s.ToggleSort(field) })
}

// Refresh fetches every listing and loads it. The fetch runs without the
// lock; when two refreshes overlap, the last one to finish wins. On
// failure the current snapshot is returned unchanged with an error
// wrapping ErrFetchFailed. There is no retry.
func (m *Model) Refresh(ctx context.Context, store RecordStore) (State, error) {
	records, err := store.FetchAll(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("Failed to fetch listings, keeping previous view")
		return m.Snapshot(), fmt.Errorf("%w: %w", errors.ErrFetchFailed, err)
	}

	state := m.Load(records)
	m.log.Debug().
		Int("listings", len(state.All)).
		Int("groups", len(state.Grouped)).
		Msg("Listings loaded")
	return state, nil
}

func (m *Model) apply(op func(State) State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = op(m.state)
	return m.state
}

// Registry keeps one Model per login session.
type Registry struct {
	mu     sync.Mutex
	models map[string]*Model
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Get returns the session's Model, creating an empty one on first use.
func (r *Registry) Get(session string) *Model {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.models[session]
	if !ok {
		m = NewModel()
		r.models[session] = m
	}
	return m
}

func (r *Registry) Drop(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, session)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models)
}
