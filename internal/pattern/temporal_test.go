package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

func TestDetectTrends_DecreasingMetric(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	// 20 points stepping evenly from 1000 down to ~200.
	var items []*feedback.Item
	for i := 0; i < 20; i++ {
		value := 1000.0 - float64(i)*42.0
		items = append(items, metricItem("response_time", value, base.Add(time.Duration(i)*time.Minute)))
	}

	patterns := r.Recognize(items)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, TypeTemporal, p.Type)
	assert.Equal(t, OutcomeTimeTrend, p.Outcome.Factor)
	assert.Equal(t, TrendDecreasing, p.Outcome.Value)
	require.Len(t, p.Elements, 1)
	assert.Equal(t, "response_time", p.Elements[0].Value)
	assert.Greater(t, p.Statistics.Significance, 0.5)
}

func TestDetectTrends_IncreasingMetric(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 15; i++ {
		items = append(items, metricItem("error_rate", float64(i)*0.01, base.Add(time.Duration(i)*time.Second)))
	}

	patterns := r.detectTrends(items)
	require.Len(t, patterns, 1)
	assert.Equal(t, TrendIncreasing, patterns[0].Outcome.Value)
}

func TestDetectTrends_StableMetric(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 20; i++ {
		items = append(items, metricItem("latency", 100, base.Add(time.Duration(i)*time.Second)))
	}

	assert.Empty(t, r.detectTrends(items))
}

func TestDetectTrends_AlternatingIsNotATrend(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 20; i++ {
		value := 100.0
		if i%2 == 0 {
			value = 200.0
		}
		items = append(items, metricItem("latency", value, base.Add(time.Duration(i)*time.Second)))
	}

	assert.Empty(t, r.detectTrends(items))
}

func TestDetectTrends_TooFewPoints(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 10; i++ {
		items = append(items, metricItem("latency", float64(1000-i*50), base.Add(time.Duration(i)*time.Second)))
	}

	assert.Empty(t, r.detectTrends(items))
}

func TestRecognize_BothDetectorsFire(t *testing.T) {
	r := NewRecognizer(Config{})
	base := time.Now()

	var items []*feedback.Item
	for i := 0; i < 10; i++ {
		items = append(items, ratingItem(4, map[string]string{"task_type": "search"}, base.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 10; i++ {
		items = append(items, ratingItem(2, map[string]string{"task_type": "conversation"}, base.Add(time.Duration(10+i)*time.Minute)))
	}
	for i := 0; i < 20; i++ {
		items = append(items, metricItem("response_time", 1000-float64(i)*42, base.Add(time.Duration(i)*time.Minute)))
	}

	patterns := r.Recognize(items)

	var haveCorrelation, haveTemporal bool
	for _, p := range patterns {
		switch p.Type {
		case TypeCorrelation:
			haveCorrelation = true
		case TypeTemporal:
			haveTemporal = true
		}
	}
	assert.True(t, haveCorrelation, "correlation detector did not fire")
	assert.True(t, haveTemporal, "temporal detector did not fire")
}
