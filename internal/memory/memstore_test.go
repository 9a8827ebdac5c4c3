package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

func newItem(t *testing.T, ts time.Time) *feedback.Item {
	t.Helper()
	item := feedback.NewItem(feedback.Raw{
		Source:    feedback.Source{Type: feedback.SourceUser, ID: "u1"},
		Content:   feedback.Content{Kind: feedback.ContentRating, Rating: 4},
		Timestamp: ts,
	})
	item.Category = feedback.CategoryUser
	item.Processed = true
	return item
}

func newAdaptation(t *testing.T) *adaptation.Adaptation {
	t.Helper()
	a, err := adaptation.New(adaptation.TypeParameter,
		adaptation.Target{Parameter: "response_time_budget", TargetValue: "decrease"},
		adaptation.Justification{PatternID: "p1", Confidence: 0.9, Reasoning: "test"},
	)
	require.NoError(t, err)
	return a
}

func TestInMemory_FeedbackRoundTrip(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	item := newItem(t, time.Now())
	require.NoError(t, store.PutFeedback(ctx, item))

	got, err := store.GetFeedback(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.Content.Rating, got.Content.Rating)

	// Returned items are copies; mutating them must not touch the store.
	got.Content.Rating = 1
	again, err := store.GetFeedback(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, again.Content.Rating)
}

func TestInMemory_FeedbackMapFieldsCopied(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	item := newItem(t, time.Now())
	item.Context = map[string]string{"task_type": "search"}
	item.Content.Context = map[string]string{"task_type": "search"}
	require.NoError(t, store.PutFeedback(ctx, item))

	// Mutating the caller's maps after Put must not reach the store.
	item.Context["task_type"] = "mutated"
	item.Content.Context["task_type"] = "mutated"

	got, err := store.GetFeedback(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "search", got.Context["task_type"])
	assert.Equal(t, "search", got.Content.Context["task_type"])

	// Mutating a returned copy's maps must not reach the store either.
	got.Context["task_type"] = "mutated"
	got.Content.Context["task_type"] = "mutated"

	again, err := store.GetFeedback(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "search", again.Context["task_type"])
	assert.Equal(t, "search", again.Content.Context["task_type"])

	// Same guarantee through RecentFeedback.
	items, err := store.RecentFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	items[0].Context["task_type"] = "mutated"

	again, err = store.GetFeedback(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "search", again.Context["task_type"])
}

func TestInMemory_GetFeedbackNotFound(t *testing.T) {
	store := NewInMemory()

	_, err := store.GetFeedback(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFeedbackNotFound)
}

func TestInMemory_PutNil(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	assert.ErrorIs(t, store.PutFeedback(ctx, nil), ErrNilItem)
	assert.ErrorIs(t, store.PutAdaptation(ctx, nil), ErrNilItem)
}

func TestInMemory_RecentFeedbackOrdering(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	base := time.Now()

	oldest := newItem(t, base.Add(-2*time.Hour))
	middle := newItem(t, base.Add(-1*time.Hour))
	newest := newItem(t, base)

	// Insert out of order.
	require.NoError(t, store.PutFeedback(ctx, middle))
	require.NoError(t, store.PutFeedback(ctx, newest))
	require.NoError(t, store.PutFeedback(ctx, oldest))

	items, err := store.RecentFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, newest.ID, items[0].ID)
	assert.Equal(t, middle.ID, items[1].ID)
	assert.Equal(t, oldest.ID, items[2].ID)
}

func TestInMemory_RecentFeedbackDeterministicTieBreak(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	ts := time.Now()

	first := newItem(t, ts)
	second := newItem(t, ts)
	require.NoError(t, store.PutFeedback(ctx, first))
	require.NoError(t, store.PutFeedback(ctx, second))

	// Same store state must produce the same order every time.
	for i := 0; i < 5; i++ {
		items, err := store.RecentFeedback(ctx, 10)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Equal(t, first.ID, items[1].ID)
	}
}

func TestInMemory_RecentFeedbackLimit(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.PutFeedback(ctx, newItem(t, base.Add(time.Duration(i)*time.Second))))
	}

	items, err := store.RecentFeedback(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, items, 4)

	// Non-positive limit falls back to the default.
	items, err = store.RecentFeedback(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestInMemory_AdaptationRoundTrip(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	a := newAdaptation(t)
	require.NoError(t, store.PutAdaptation(ctx, a))

	got, err := store.GetAdaptation(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, adaptation.StatusProposed, got.Status)

	// Status updates persist by overwrite.
	a.Status = adaptation.StatusCompleted
	require.NoError(t, store.PutAdaptation(ctx, a))

	got, err = store.GetAdaptation(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, adaptation.StatusCompleted, got.Status)
}

func TestInMemory_GetAdaptationNotFound(t *testing.T) {
	store := NewInMemory()

	_, err := store.GetAdaptation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAdaptationNotFound)
}

func TestInMemory_CancelledContext(t *testing.T) {
	store := NewInMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.PutFeedback(ctx, newItem(t, time.Now())))
	_, err := store.RecentFeedback(ctx, 10)
	assert.Error(t, err)
}
