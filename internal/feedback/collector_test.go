package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingStore counts writes and can be set to fail.
type recordingStore struct {
	items []*Item
	err   error
}

func (s *recordingStore) PutFeedback(ctx context.Context, item *Item) error {
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, item)
	return nil
}

func validRaw() Raw {
	return Raw{
		Source: Source{Type: SourceUser, ID: "u1"},
		Content: Content{
			Kind:   ContentRating,
			Rating: 4,
			Context: map[string]string{
				"task_type":  "search",
				"complexity": "high",
			},
		},
		Timestamp: time.Now(),
	}
}

func TestNewCollector_Validation(t *testing.T) {
	store := &recordingStore{}

	_, err := NewCollector(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCollector(store, nil)
	assert.Error(t, err)

	c, err := NewCollector(store, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCollector_Process(t *testing.T) {
	store := &recordingStore{}
	c, err := NewCollector(store, zap.NewNop())
	require.NoError(t, err)

	item, err := c.Process(context.Background(), validRaw())
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.True(t, item.Processed)
	assert.Equal(t, CategoryUser, item.Category)
	assert.Equal(t, "search", item.Context["task_type"])
	assert.Equal(t, "high", item.Context["complexity"])

	// Exactly one store write per call.
	require.Len(t, store.items, 1)
	assert.Equal(t, item.ID, store.items[0].ID)
}

func TestCollector_CategoryAssignment(t *testing.T) {
	tests := []struct {
		name       string
		sourceType SourceType
		want       Category
	}{
		{"user source", SourceUser, CategoryUser},
		{"system source", SourceSystem, CategorySystem},
		{"observer source", SourceObserver, CategoryObserver},
		{"unknown source falls back", SourceType("synthetic"), CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			c, err := NewCollector(store, zap.NewNop())
			require.NoError(t, err)

			raw := validRaw()
			raw.Source.Type = tt.sourceType

			item, err := c.Process(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Category)
		})
	}
}

func TestCollector_RejectsMalformedShape(t *testing.T) {
	store := &recordingStore{}
	c, err := NewCollector(store, zap.NewNop())
	require.NoError(t, err)

	t.Run("missing source", func(t *testing.T) {
		raw := validRaw()
		raw.Source = Source{}
		_, err := c.Process(context.Background(), raw)
		assert.ErrorIs(t, err, ErrMissingSource)
	})

	t.Run("missing content", func(t *testing.T) {
		raw := validRaw()
		raw.Content = Content{}
		_, err := c.Process(context.Background(), raw)
		assert.ErrorIs(t, err, ErrMissingContent)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		raw := validRaw()
		raw.Timestamp = time.Time{}
		_, err := c.Process(context.Background(), raw)
		assert.ErrorIs(t, err, ErrMissingTimestamp)
	})

	assert.Empty(t, store.items, "malformed feedback must not be persisted")
}

func TestCollector_StorageErrorPropagates(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &recordingStore{err: storeErr}
	c, err := NewCollector(store, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Process(context.Background(), validRaw())
	assert.ErrorIs(t, err, storeErr)
}

func TestExtractContext(t *testing.T) {
	t.Run("absent context yields empty map", func(t *testing.T) {
		raw := validRaw()
		raw.Content.Context = nil

		ctx := ExtractContext(raw)
		assert.NotNil(t, ctx)
		assert.Empty(t, ctx)
	})

	t.Run("blank keys and values dropped", func(t *testing.T) {
		raw := validRaw()
		raw.Content.Context = map[string]string{
			"":          "x",
			"task_type": "  ",
			"domain":    " billing ",
		}

		ctx := ExtractContext(raw)
		assert.Equal(t, map[string]string{"domain": "billing"}, ctx)
	})

	t.Run("invalid complexity dropped", func(t *testing.T) {
		raw := validRaw()
		raw.Content.Context = map[string]string{
			"complexity": "extreme",
			"task_type":  "search",
		}

		ctx := ExtractContext(raw)
		assert.NotContains(t, ctx, "complexity")
		assert.Equal(t, "search", ctx["task_type"])
	})
}

func TestCollector_RateLimit(t *testing.T) {
	store := &recordingStore{}
	c, err := NewCollector(store, zap.NewNop(), WithRateLimit(1000, 1))
	require.NoError(t, err)

	// Burst of 1 at 1000/s: a small batch still passes promptly.
	for i := 0; i < 3; i++ {
		_, err := c.Process(context.Background(), validRaw())
		require.NoError(t, err)
	}
	assert.Len(t, store.items, 3)
}
