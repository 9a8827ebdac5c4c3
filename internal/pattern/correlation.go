package pattern

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// detectCorrelations measures, for every observed context factor value,
// whether items carrying that value systematically differ in outcome
// from the rest of the batch.
//
// The association measure is a bucketed mean-difference effect size:
// the absolute difference between the bucket mean and the mean of the
// remaining items, normalized by the outcome's value range in the
// batch. Identical group means (noise) score 0; a clean split scores 1.
//
// Every qualifying factor value emits its own pattern; the detector
// never collapses to only the strongest association.
func (r *Recognizer) detectCorrelations(items []*feedback.Item) []Pattern {
	var patterns []Pattern

	for measure, obs := range groupByMeasure(items) {
		if len(obs) < 2*r.cfg.MinBucketSize {
			continue
		}
		span := valueRange(obs)
		if span == 0 {
			// All outcomes identical; nothing can correlate.
			continue
		}
		overall := mean(obs)

		// Bucket observations by each context factor value.
		buckets := make(map[Element][]observation)
		for _, o := range obs {
			for factor, value := range o.item.Context {
				key := Element{Factor: factor, Value: value}
				buckets[key] = append(buckets[key], o)
			}
		}

		// Deterministic iteration for stable output ordering.
		keys := make([]Element, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Factor != keys[j].Factor {
				return keys[i].Factor < keys[j].Factor
			}
			return keys[i].Value < keys[j].Value
		})

		for _, key := range keys {
			bucket := buckets[key]
			rest := len(obs) - len(bucket)
			if len(bucket) < r.cfg.MinBucketSize || rest < r.cfg.MinBucketSize {
				continue
			}

			bucketMean := mean(bucket)
			restMean := (overall*float64(len(obs)) - bucketMean*float64(len(bucket))) / float64(rest)

			diff := bucketMean - restMean
			significance := diff / span
			if significance < 0 {
				significance = -significance
			}
			if significance > 1 {
				significance = 1
			}
			if significance <= r.cfg.SignificanceThreshold {
				continue
			}

			level := LevelHigh
			if diff < 0 {
				level = LevelLow
			}

			patterns = append(patterns, Pattern{
				ID:       uuid.New().String(),
				Type:     TypeCorrelation,
				Elements: []Element{key},
				Outcome:  Outcome{Factor: measure, Value: level},
				Statistics: Statistics{
					Significance: significance,
					Confidence:   significance * sizeWeight(len(bucket)),
				},
			})
		}
	}

	return patterns
}

// sizeWeight discounts confidence for small samples. Ten or more
// observations carry full weight.
func sizeWeight(n int) float64 {
	w := float64(n) / 10.0
	if w > 1 {
		w = 1
	}
	return w
}
