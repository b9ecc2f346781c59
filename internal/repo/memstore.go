// Package repo implements the record store for collision messages. This file
// provides MemoryStore, a process-local CollisionStore.
package repo

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tbourn/go-collision-alerts/internal/domain"
)

// MemoryStore keeps records in a map guarded by a mutex. It enforces the same
// uniqueness rule as the SQL index and supports rollback by restoring a
// snapshot when a transaction fails.
//
// This type is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	rows  map[string]domain.Collision
	order []string
}

func (st memState) clone() memState {
	return memState{
		rows:  maps.Clone(st.rows),
		order: slices.Clone(st.order),
	}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{rows: make(map[string]domain.Collision)}}
}

var _ CollisionStore = (*MemoryStore)(nil)

// Find implements CollisionStore.
func (s *MemoryStore) Find(ctx context.Context, q CollisionQuery) ([]domain.Collision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.find(ctx, q)
}

// Insert implements CollisionStore.
func (s *MemoryStore) Insert(ctx context.Context, c *domain.Collision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.insert(ctx, c)
}

// Update implements CollisionStore.
func (s *MemoryStore) Update(ctx context.Context, c *domain.Collision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.update(ctx, c)
}

// ListByOperator implements CollisionStore.
func (s *MemoryStore) ListByOperator(ctx context.Context, operatorID string) ([]domain.Collision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listByOperator(ctx, operatorID)
}

// GetByID implements CollisionStore.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Collision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getByID(ctx, id)
}

// Transaction holds the store lock for the duration of fn. On error, or when
// ctx is canceled by the time fn returns, all writes made through tx are
// discarded.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx CollisionStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	err := fn(&memTx{state: &s.state})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// memTx is the CollisionStore handed to transaction callbacks. The enclosing
// MemoryStore lock is already held.
type memTx struct {
	state *memState
}

func (t *memTx) Find(ctx context.Context, q CollisionQuery) ([]domain.Collision, error) {
	return t.state.find(ctx, q)
}

func (t *memTx) Insert(ctx context.Context, c *domain.Collision) error {
	return t.state.insert(ctx, c)
}

func (t *memTx) Update(ctx context.Context, c *domain.Collision) error {
	return t.state.update(ctx, c)
}

func (t *memTx) ListByOperator(ctx context.Context, operatorID string) ([]domain.Collision, error) {
	return t.state.listByOperator(ctx, operatorID)
}

func (t *memTx) GetByID(ctx context.Context, id string) (*domain.Collision, error) {
	return t.state.getByID(ctx, id)
}

// Transaction nests into the enclosing one.
func (t *memTx) Transaction(ctx context.Context, fn func(tx CollisionStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t)
}

func (st *memState) find(ctx context.Context, q CollisionQuery) ([]domain.Collision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Collision
	for _, id := range st.order {
		c := st.rows[id]
		if c.MessageID != q.MessageID {
			continue
		}
		if q.SatelliteID != nil && c.SatelliteID != *q.SatelliteID {
			continue
		}
		if q.ActiveOnly && c.IsCanceled {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (st *memState) insert(ctx context.Context, c *domain.Collision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := st.rows[c.ID]; exists {
		return ErrDuplicate
	}
	if !c.IsCanceled {
		for _, other := range st.rows {
			if !other.IsCanceled && other.SatelliteID == c.SatelliteID && other.MessageID == c.MessageID {
				return ErrDuplicate
			}
		}
	}
	st.rows[c.ID] = *c
	st.order = append(st.order, c.ID)
	return nil
}

func (st *memState) update(ctx context.Context, c *domain.Collision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, ok := st.rows[c.ID]
	if !ok || cur.IsCanceled {
		return ErrNotFound
	}
	cur.IsCanceled = c.IsCanceled
	cur.UpdatedDate = c.UpdatedDate
	st.rows[c.ID] = cur
	return nil
}

func (st *memState) listByOperator(ctx context.Context, operatorID string) ([]domain.Collision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []domain.Collision{}
	for _, id := range st.order {
		if c := st.rows[id]; c.OperatorID == operatorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (st *memState) getByID(ctx context.Context, id string) (*domain.Collision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := st.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}
