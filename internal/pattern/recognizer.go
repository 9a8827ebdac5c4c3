package pattern

import (
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// Config holds the recognizer's tunable thresholds. Thresholds are
// tunables, not correctness requirements: any setting must keep the
// qualitative contract that strong consistent evidence is detected and
// noise is not.
type Config struct {
	// SignificanceThreshold is the minimum association or trend
	// strength for a pattern to be emitted.
	SignificanceThreshold float64

	// MinBucketSize is the minimum number of items sharing a factor
	// value before the correlation detector considers the bucket.
	MinBucketSize int

	// MinTrendPoints is the minimum number of time-ordered observations
	// before the temporal detector considers a metric.
	MinTrendPoints int

	// TrendConsistency is the minimum fraction of same-direction steps
	// for a sequence to count as trending rather than stable.
	TrendConsistency float64
}

// DefaultConfig returns the recognizer defaults.
func DefaultConfig() Config {
	return Config{
		SignificanceThreshold: 0.5,
		MinBucketSize:         3,
		MinTrendPoints:        15,
		TrendConsistency:      0.8,
	}
}

// Recognizer batch-analyzes feedback for correlation and temporal
// patterns. Both detectors are pure functions of the input batch: no
// hidden state, no I/O. A Recognizer is safe for concurrent use.
type Recognizer struct {
	cfg Config
}

// NewRecognizer creates a recognizer with the given config. Zero-valued
// fields fall back to defaults.
func NewRecognizer(cfg Config) *Recognizer {
	def := DefaultConfig()
	if cfg.SignificanceThreshold == 0 {
		cfg.SignificanceThreshold = def.SignificanceThreshold
	}
	if cfg.MinBucketSize == 0 {
		cfg.MinBucketSize = def.MinBucketSize
	}
	if cfg.MinTrendPoints == 0 {
		cfg.MinTrendPoints = def.MinTrendPoints
	}
	if cfg.TrendConsistency == 0 {
		cfg.TrendConsistency = def.TrendConsistency
	}
	return &Recognizer{cfg: cfg}
}

// Recognize runs both detectors over the batch. The detectors fire
// independently; a batch can yield correlation and temporal patterns at
// the same time.
func (r *Recognizer) Recognize(items []*feedback.Item) []Pattern {
	patterns := r.detectCorrelations(items)
	patterns = append(patterns, r.detectTrends(items)...)
	return patterns
}

// observation is a numeric outcome extracted from one feedback item.
type observation struct {
	item  *feedback.Item
	value float64
}

// outcomeOf extracts the numeric outcome measure from an item.
// Ratings yield the "rating" measure; metrics yield their metric name.
// Observation payloads carry no numeric outcome.
func outcomeOf(item *feedback.Item) (measure string, value float64, ok bool) {
	switch item.Content.Kind {
	case feedback.ContentRating:
		return "rating", item.Content.Rating, true
	case feedback.ContentMetric:
		if item.Content.Metric == "" {
			return "", 0, false
		}
		return item.Content.Metric, item.Content.Value, true
	default:
		return "", 0, false
	}
}

// groupByMeasure buckets items by their outcome measure, dropping items
// without a numeric outcome.
func groupByMeasure(items []*feedback.Item) map[string][]observation {
	groups := make(map[string][]observation)
	for _, item := range items {
		measure, value, ok := outcomeOf(item)
		if !ok {
			continue
		}
		groups[measure] = append(groups[measure], observation{item: item, value: value})
	}
	return groups
}

func mean(obs []observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	var sum float64
	for _, o := range obs {
		sum += o.value
	}
	return sum / float64(len(obs))
}

// valueRange returns the spread of outcome values in the group.
func valueRange(obs []observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	lo, hi := obs[0].value, obs[0].value
	for _, o := range obs[1:] {
		if o.value < lo {
			lo = o.value
		}
		if o.value > hi {
			hi = o.value
		}
	}
	return hi - lo
}
