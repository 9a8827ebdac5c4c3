// Package ingest subscribes to feedback published on NATS and feeds it
// into the collector. It is one of two ingestion paths (the other is
// the HTTP API); producers pick whichever transport suits them.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/adaptd/internal/feedback"
)

// processTimeout bounds collector processing per message.
const processTimeout = 10 * time.Second

// Collector is the ingestion surface the subscriber feeds.
type Collector interface {
	Process(ctx context.Context, raw feedback.Raw) (*feedback.Item, error)
}

// Subscriber consumes raw feedback from a NATS subject. Malformed
// messages are logged and dropped; feedback is non-critical input and a
// bad producer must not stall the bus.
type Subscriber struct {
	nc        *nats.Conn
	subject   string
	collector Collector
	logger    *zap.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewSubscriber creates a subscriber on the given connection.
func NewSubscriber(nc *nats.Conn, subject string, collector Collector, logger *zap.Logger) (*Subscriber, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	if subject == "" {
		return nil, fmt.Errorf("subject cannot be empty")
	}
	if collector == nil {
		return nil, fmt.Errorf("collector cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Subscriber{
		nc:        nc,
		subject:   subject,
		collector: collector,
		logger:    logger,
	}, nil
}

// Start subscribes and begins processing messages. Calling Start on a
// started subscriber returns an error.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return fmt.Errorf("subscriber already started")
	}

	sub, err := s.nc.Subscribe(s.subject, s.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub

	s.logger.Info("feedback subscriber started", zap.String("subject", s.subject))
	return nil
}

// Stop drains the subscription so in-flight messages finish processing.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return nil
	}
	err := s.sub.Drain()
	s.sub = nil
	if err != nil {
		return fmt.Errorf("failed to drain subscription: %w", err)
	}
	return nil
}

// handleMessage decodes and processes one feedback message.
func (s *Subscriber) handleMessage(msg *nats.Msg) {
	var raw feedback.Raw
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		s.logger.Warn("dropping malformed feedback message",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	item, err := s.collector.Process(ctx, raw)
	if err != nil {
		s.logger.Warn("failed to process feedback message",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("feedback ingested from bus",
		zap.String("id", item.ID),
		zap.String("subject", msg.Subject),
	)
}
