package pattern

// PatternType discriminates the kinds of detected patterns.
type PatternType string

const (
	// TypeCorrelation is a factor/outcome association across a batch.
	TypeCorrelation PatternType = "correlation"

	// TypeTemporal is a monotonic trend over a time-ordered sequence.
	TypeTemporal PatternType = "temporal"
)

// Element is one factor/value pair participating in a pattern.
type Element struct {
	// Factor is the context dimension (e.g. "task_type").
	Factor string `json:"factor"`

	// Value is the observed value of that dimension (e.g. "search").
	Value string `json:"value"`
}

// Outcome is the dependent side of a pattern: the measure the elements
// associate with, and the direction or level it takes.
type Outcome struct {
	// Factor is the outcome measure (e.g. "rating", "time_trend").
	Factor string `json:"factor"`

	// Value is the observed level or direction (e.g. "high", "decreasing").
	Value string `json:"value"`
}

// Statistics carries the detection scores for a pattern. Both scores
// are in [0,1]: stronger, more consistent evidence scores higher and
// pure noise scores near zero.
type Statistics struct {
	// Significance is the measured association or trend strength.
	Significance float64 `json:"significance"`

	// Confidence weighs significance by sample size and consistency.
	Confidence float64 `json:"confidence"`
}

// Pattern is a statistically detected regularity in a feedback batch.
// Patterns are transient per cycle; they persist beyond it only through
// an adaptation's justification.
type Pattern struct {
	// ID is the unique pattern identifier (UUID).
	ID string `json:"id"`

	// Type is correlation or temporal.
	Type PatternType `json:"type"`

	// Elements are the independent factor/value pairs.
	Elements []Element `json:"elements"`

	// Outcome is the associated measure and its level or direction.
	Outcome Outcome `json:"outcome"`

	// Statistics are the detection scores.
	Statistics Statistics `json:"statistics"`
}

// TrendDirection values used as temporal pattern outcomes.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// OutcomeTimeTrend is the outcome factor label for temporal patterns.
const OutcomeTimeTrend = "time_trend"

// Outcome levels used by the correlation detector.
const (
	LevelHigh = "high"
	LevelLow  = "low"
)
