package feedback

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Store is the slice of learning memory the collector needs.
type Store interface {
	PutFeedback(ctx context.Context, item *Item) error
}

// ContextKeyTaskType labels the task kind a feedback item relates to.
const ContextKeyTaskType = "task_type"

// ContextKeyComplexity labels task complexity. Values outside
// complexityLevels are dropped at the boundary so downstream analysis
// never sees unvalidated levels.
const ContextKeyComplexity = "complexity"

var complexityLevels = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

// Collector normalizes raw feedback into typed items and persists them.
//
// Processing is best-effort on categorization (unknown source types fall
// back to a default category) but strict on shape: raw feedback without
// source, content or timestamp is rejected. The collector does not
// retry storage failures; the caller decides whether to retry.
//
// Collectors are safe for concurrent use by independent producers.
type Collector struct {
	store   Store
	logger  *zap.Logger
	limiter *rate.Limiter
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithRateLimit bounds ingestion to n items per second with the given
// burst. Zero or negative n disables limiting.
func WithRateLimit(n float64, burst int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(n), burst)
		}
	}
}

// NewCollector creates a feedback collector.
func NewCollector(store Store, logger *zap.Logger, opts ...CollectorOption) (*Collector, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	c := &Collector{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Process validates, normalizes and persists one piece of raw feedback.
// The returned item has Processed set and has been written to the store.
// Exactly one store write happens per successful call.
func (c *Collector) Process(ctx context.Context, raw Raw) (*Item, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ingestion rate limit: %w", err)
		}
	}

	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feedback: %w", err)
	}

	item := NewItem(raw)
	item.Category = CategoryForSource(raw.Source.Type)
	if item.Category == CategoryGeneral && raw.Source.Type != "" {
		c.logger.Debug("unrecognized feedback source type, using default category",
			zap.String("source_type", string(raw.Source.Type)),
		)
	}

	item.Context = ExtractContext(raw)
	item.Processed = true

	if err := c.store.PutFeedback(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist feedback: %w", err)
	}

	c.logger.Debug("feedback processed",
		zap.String("id", item.ID),
		zap.String("category", string(item.Category)),
		zap.String("source", string(item.Source.Type)),
	)

	return item, nil
}

// ExtractContext projects the producer-supplied context into a validated
// map. It is a pure function: empty map when no context was supplied,
// blank keys and values dropped, known keys validated at this boundary
// so the recognizer can trust what it reads.
func ExtractContext(raw Raw) map[string]string {
	out := make(map[string]string, len(raw.Content.Context))
	for k, v := range raw.Content.Context {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if k == ContextKeyComplexity && !complexityLevels[strings.ToLower(v)] {
			continue
		}
		out[k] = v
	}
	return out
}
