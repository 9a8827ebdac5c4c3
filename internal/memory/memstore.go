package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// InMemory is a mutex-guarded in-process Store. Writes are independent
// and idempotent by ID, so concurrent producers need no coordination
// beyond the store's own locking.
//
// Items are copied on write and read so callers can never mutate stored
// state through a shared pointer.
type InMemory struct {
	mu sync.RWMutex

	feedback    map[string]*feedback.Item
	adaptations map[string]*adaptation.Adaptation

	// seq assigns a monotonic insertion order used to break timestamp
	// ties, keeping RecentFeedback deterministic.
	seq     uint64
	itemSeq map[string]uint64
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		feedback:    make(map[string]*feedback.Item),
		adaptations: make(map[string]*adaptation.Adaptation),
		itemSeq:     make(map[string]uint64),
	}
}

// PutFeedback persists a feedback item, overwriting by ID.
func (s *InMemory) PutFeedback(ctx context.Context, item *feedback.Item) error {
	if item == nil {
		return ErrNilItem
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.feedback[item.ID]; !exists {
		s.seq++
		s.itemSeq[item.ID] = s.seq
	}
	s.feedback[item.ID] = copyItem(item)
	return nil
}

// copyItem deep-copies an item. The map fields must be cloned too or
// the store and its callers would share mutable state.
func copyItem(item *feedback.Item) *feedback.Item {
	cp := *item
	cp.Context = maps.Clone(item.Context)
	cp.Content.Context = maps.Clone(item.Content.Context)
	return &cp
}

// GetFeedback returns the feedback item with the given ID.
func (s *InMemory) GetFeedback(ctx context.Context, id string) (*feedback.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.feedback[id]
	if !ok {
		return nil, ErrFeedbackNotFound
	}
	return copyItem(item), nil
}

// RecentFeedback returns up to limit items ordered most recent first.
// Timestamp ties break by insertion order (later insertions first).
func (s *InMemory) RecentFeedback(ctx context.Context, limit int) ([]*feedback.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*feedback.Item, 0, len(s.feedback))
	for _, item := range s.feedback {
		items = append(items, copyItem(item))
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return s.itemSeq[items[i].ID] > s.itemSeq[items[j].ID]
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// PutAdaptation persists an adaptation, overwriting by ID.
func (s *InMemory) PutAdaptation(ctx context.Context, a *adaptation.Adaptation) error {
	if a == nil {
		return ErrNilItem
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.adaptations[a.ID] = &cp
	return nil
}

// GetAdaptation returns the adaptation with the given ID.
func (s *InMemory) GetAdaptation(ctx context.Context, id string) (*adaptation.Adaptation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.adaptations[id]
	if !ok {
		return nil, ErrAdaptationNotFound
	}
	cp := *a
	return &cp, nil
}

// Ensure InMemory implements Store.
var _ Store = (*InMemory)(nil)
