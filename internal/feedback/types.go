package feedback

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for feedback processing.
var (
	ErrMissingSource    = errors.New("feedback source cannot be empty")
	ErrMissingContent   = errors.New("feedback content cannot be empty")
	ErrMissingTimestamp = errors.New("feedback timestamp cannot be zero")
)

// SourceType identifies where a piece of feedback originated.
type SourceType string

const (
	// SourceUser is feedback submitted directly by a user (e.g. a rating).
	SourceUser SourceType = "user"

	// SourceSystem is feedback derived from system performance counters.
	SourceSystem SourceType = "system"

	// SourceObserver is feedback emitted by an automated observer.
	SourceObserver SourceType = "observer"
)

// Category classifies a feedback item for downstream analysis.
type Category string

const (
	// CategoryUser covers explicit user signals such as ratings.
	CategoryUser Category = "user"

	// CategorySystem covers performance metrics and counters.
	CategorySystem Category = "system"

	// CategoryObserver covers observations from automated observers.
	CategoryObserver Category = "observer"

	// CategoryGeneral is the fallback for unrecognized source types.
	// Feedback is non-critical input, so unknown sources are categorized
	// rather than rejected.
	CategoryGeneral Category = "general"
)

// Source identifies the producer of a feedback item.
type Source struct {
	// Type is the kind of producer (user, system, observer).
	Type SourceType `json:"type"`

	// ID identifies the individual producer (user ID, component name).
	ID string `json:"id"`
}

// ContentKind discriminates the content variants of a feedback item.
type ContentKind string

const (
	// ContentRating is an explicit user rating.
	ContentRating ContentKind = "rating"

	// ContentMetric is a named numeric measurement.
	ContentMetric ContentKind = "metric"

	// ContentObservation is a free-form observation payload.
	ContentObservation ContentKind = "observation"
)

// Content is the closed set of feedback payload variants sharing one
// envelope. Exactly one variant is meaningful per item, selected by Kind.
type Content struct {
	// Kind selects the active variant.
	Kind ContentKind `json:"kind"`

	// Rating is set when Kind is ContentRating. Scale is 1-5.
	Rating float64 `json:"rating,omitempty"`

	// Metric is the measurement name when Kind is ContentMetric
	// (e.g. "response_time").
	Metric string `json:"metric,omitempty"`

	// Value is the measurement value when Kind is ContentMetric.
	Value float64 `json:"value,omitempty"`

	// Observation is the payload when Kind is ContentObservation.
	Observation string `json:"observation,omitempty"`

	// Context carries producer-supplied context labels
	// (task_type, complexity, etc.). May be nil.
	Context map[string]string `json:"context,omitempty"`
}

// Item is a single normalized unit of feedback ingested by the learning
// loop. Items are immutable once processed and are only removed by an
// external retention policy, never by the loop itself.
type Item struct {
	// ID is the unique feedback identifier (UUID).
	ID string `json:"id"`

	// Source identifies the producer.
	Source Source `json:"source"`

	// Content is the typed payload.
	Content Content `json:"content"`

	// Context is the validated projection of Content.Context.
	// Empty (never nil) when the producer supplied no context.
	Context map[string]string `json:"context"`

	// Timestamp is when the feedback was produced.
	Timestamp time.Time `json:"timestamp"`

	// Category is assigned from the source type during processing.
	Category Category `json:"category"`

	// Processed indicates the item passed through the collector.
	Processed bool `json:"processed"`
}

// Raw is the wire shape emitted by feedback producers. The collector is
// tolerant of missing context; source, content and timestamp are required.
type Raw struct {
	Source    Source    `json:"source"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the minimal required shape of raw feedback.
func (r *Raw) Validate() error {
	if r.Source.Type == "" && r.Source.ID == "" {
		return ErrMissingSource
	}
	if r.Content.Kind == "" {
		return ErrMissingContent
	}
	if r.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}

// NewItem creates an unprocessed feedback item with a generated UUID.
func NewItem(raw Raw) *Item {
	return &Item{
		ID:        uuid.New().String(),
		Source:    raw.Source,
		Content:   raw.Content,
		Context:   map[string]string{},
		Timestamp: raw.Timestamp,
	}
}

// CategoryForSource maps a source type to its feedback category.
// Unrecognized types fall back to CategoryGeneral.
func CategoryForSource(t SourceType) Category {
	switch t {
	case SourceUser:
		return CategoryUser
	case SourceSystem:
		return CategorySystem
	case SourceObserver:
		return CategoryObserver
	default:
		return CategoryGeneral
	}
}
