package pattern

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// detectTrends orders each outcome measure's observations by timestamp
// and looks for a monotonic drift across the window.
//
// Trend strength is the fraction of steps moving in the dominant
// direction: a strictly monotonic sequence scores 1, a random walk
// scores near 0.5 and is rejected by the consistency threshold. Flat
// sequences are stable and emit nothing.
func (r *Recognizer) detectTrends(items []*feedback.Item) []Pattern {
	var patterns []Pattern

	groups := groupByMeasure(items)
	measures := make([]string, 0, len(groups))
	for m := range groups {
		measures = append(measures, m)
	}
	sort.Strings(measures)

	for _, measure := range measures {
		obs := groups[measure]
		if len(obs) < r.cfg.MinTrendPoints {
			continue
		}

		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].item.Timestamp.Before(obs[j].item.Timestamp)
		})

		var up, down, flat int
		for i := 1; i < len(obs); i++ {
			switch {
			case obs[i].value > obs[i-1].value:
				up++
			case obs[i].value < obs[i-1].value:
				down++
			default:
				flat++
			}
		}

		steps := len(obs) - 1
		direction := TrendStable
		dominant := 0
		switch {
		case up > down:
			direction = TrendIncreasing
			dominant = up
		case down > up:
			direction = TrendDecreasing
			dominant = down
		}

		consistency := float64(dominant) / float64(steps)
		if direction == TrendStable || consistency < r.cfg.TrendConsistency {
			continue
		}
		if consistency <= r.cfg.SignificanceThreshold {
			continue
		}

		patterns = append(patterns, Pattern{
			ID:       uuid.New().String(),
			Type:     TypeTemporal,
			Elements: []Element{{Factor: "metric", Value: measure}},
			Outcome:  Outcome{Factor: OutcomeTimeTrend, Value: direction},
			Statistics: Statistics{
				Significance: consistency,
				Confidence:   consistency * sizeWeight(len(obs)),
			},
		})
	}

	return patterns
}
