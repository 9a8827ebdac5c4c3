package pattern

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// ratingItem builds a processed rating item with the given context.
func ratingItem(rating float64, ctx map[string]string, ts time.Time) *feedback.Item {
	item := feedback.NewItem(feedback.Raw{
		Source:    feedback.Source{Type: feedback.SourceUser, ID: "u1"},
		Content:   feedback.Content{Kind: feedback.ContentRating, Rating: rating},
		Timestamp: ts,
	})
	item.Category = feedback.CategoryUser
	item.Context = ctx
	item.Processed = true
	return item
}

// metricItem builds a processed metric item.
func metricItem(name string, value float64, ts time.Time) *feedback.Item {
	item := feedback.NewItem(feedback.Raw{
		Source:    feedback.Source{Type: feedback.SourceSystem, ID: "svc"},
		Content:   feedback.Content{Kind: feedback.ContentMetric, Metric: name, Value: value},
		Timestamp: ts,
	})
	item.Category = feedback.CategorySystem
	item.Context = map[string]string{}
	item.Processed = true
	return item
}

func TestDetectCorrelations_TaskTypeSplit(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 10; i++ {
		items = append(items, ratingItem(4, map[string]string{"task_type": "search"}, base.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 10; i++ {
		items = append(items, ratingItem(2, map[string]string{"task_type": "conversation"}, base.Add(time.Duration(10+i)*time.Minute)))
	}

	patterns := r.Recognize(items)
	require.NotEmpty(t, patterns)

	var found *Pattern
	for i := range patterns {
		p := &patterns[i]
		if p.Type != TypeCorrelation {
			continue
		}
		for _, el := range p.Elements {
			if el.Factor == "task_type" && el.Value == "search" {
				found = p
			}
		}
	}

	require.NotNil(t, found, "expected a correlation pattern for task_type=search")
	assert.Equal(t, "rating", found.Outcome.Factor)
	assert.Equal(t, LevelHigh, found.Outcome.Value)
	assert.Greater(t, found.Statistics.Significance, 0.5)
	assert.Greater(t, found.Statistics.Confidence, 0.0)
}

func TestDetectCorrelations_OnePatternPerQualifyingFactor(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	// Two context factors both split the outcome cleanly; the detector
	// must emit a pattern for each, not only the strongest.
	var items []*feedback.Item
	for i := 0; i < 10; i++ {
		items = append(items, ratingItem(5, map[string]string{
			"task_type":  "search",
			"complexity": "low",
		}, base.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 10; i++ {
		items = append(items, ratingItem(1, map[string]string{
			"task_type":  "conversation",
			"complexity": "high",
		}, base.Add(time.Duration(10+i)*time.Minute)))
	}

	patterns := r.Recognize(items)

	factors := map[string]bool{}
	for _, p := range patterns {
		if p.Type != TypeCorrelation {
			continue
		}
		for _, el := range p.Elements {
			factors[el.Factor] = true
		}
	}

	assert.True(t, factors["task_type"], "task_type pattern missing")
	assert.True(t, factors["complexity"], "complexity pattern missing")
}

func TestDetectCorrelations_NoiseYieldsNothing(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()
	rng := rand.New(rand.NewSource(42))

	// Ratings independent of the context factor: association strength
	// must stay near zero.
	var items []*feedback.Item
	for i := 0; i < 40; i++ {
		taskType := "search"
		if i%2 == 0 {
			taskType = "conversation"
		}
		rating := float64(1 + rng.Intn(5))
		items = append(items, ratingItem(rating, map[string]string{"task_type": taskType}, base.Add(time.Duration(i)*time.Minute)))
	}

	for _, p := range r.detectCorrelations(items) {
		assert.LessOrEqual(t, p.Statistics.Significance, 0.5,
			fmt.Sprintf("noise produced significant pattern: %+v", p))
	}
}

func TestDetectCorrelations_IdenticalOutcomes(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 12; i++ {
		items = append(items, ratingItem(3, map[string]string{"task_type": "search"}, base.Add(time.Duration(i)*time.Minute)))
	}

	assert.Empty(t, r.detectCorrelations(items))
}

func TestDetectCorrelations_SmallBucketsSkipped(t *testing.T) {
	r := NewRecognizer(Config{MinBucketSize: 5})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 3; i++ {
		items = append(items, ratingItem(5, map[string]string{"task_type": "search"}, base))
	}
	for i := 0; i < 3; i++ {
		items = append(items, ratingItem(1, map[string]string{"task_type": "conversation"}, base))
	}

	assert.Empty(t, r.detectCorrelations(items))
}
