package memory

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// Common errors for learning memory operations.
var (
	ErrFeedbackNotFound   = errors.New("feedback item not found")
	ErrAdaptationNotFound = errors.New("adaptation not found")
	ErrNilItem            = errors.New("item cannot be nil")
)

// DefaultRecentLimit bounds RecentFeedback when the caller passes a
// non-positive limit.
const DefaultRecentLimit = 100

// Store is the learning memory contract. Implementations must make
// RecentFeedback deterministic for a fixed store state.
type Store interface {
	// PutFeedback persists a feedback item, overwriting any existing
	// item with the same ID.
	PutFeedback(ctx context.Context, item *feedback.Item) error

	// GetFeedback returns the feedback item with the given ID, or
	// ErrFeedbackNotFound.
	GetFeedback(ctx context.Context, id string) (*feedback.Item, error)

	// RecentFeedback returns up to limit items, most recent first.
	// A non-positive limit uses DefaultRecentLimit.
	RecentFeedback(ctx context.Context, limit int) ([]*feedback.Item, error)

	// PutAdaptation persists an adaptation, overwriting any existing
	// adaptation with the same ID.
	PutAdaptation(ctx context.Context, a *adaptation.Adaptation) error

	// GetAdaptation returns the adaptation with the given ID, or
	// ErrAdaptationNotFound.
	GetAdaptation(ctx context.Context, id string) (*adaptation.Adaptation, error)
}
