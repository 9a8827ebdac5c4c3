package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
	"github.com/fyrsmithlabs/adaptd/internal/memory"
	"github.com/fyrsmithlabs/adaptd/internal/pattern"
)

// Common errors for the controller.
var (
	// ErrCycleInProgress is returned when RunCycle is invoked while a
	// cycle is already running. Cycles are single-flight; callers retry
	// or wait, the controller never interleaves phases.
	ErrCycleInProgress = errors.New("learning cycle already in progress")

	ErrAlreadyRunning = errors.New("scheduler is already running")
)

// Store is the slice of learning memory the controller needs.
type Store interface {
	RecentFeedback(ctx context.Context, limit int) ([]*feedback.Item, error)
	GetAdaptation(ctx context.Context, id string) (*adaptation.Adaptation, error)
}

// Engine is the adaptation engine surface the controller drives.
type Engine interface {
	Generate(patterns []pattern.Pattern) []*adaptation.Adaptation
	Apply(ctx context.Context, a *adaptation.Adaptation) (*adaptation.Result, error)
}

// Recognizer is the pattern recognizer surface the controller drives.
type Recognizer interface {
	Recognize(items []*feedback.Item) []pattern.Pattern
}

// Config holds the controller tunables.
type Config struct {
	// MinFeedback is the minimum batch size for a cycle to run; below
	// it the cycle is skipped without state mutation.
	MinFeedback int

	// RecentLimit caps how much feedback one cycle collects.
	RecentLimit int

	// Interval drives the background scheduler. Zero or negative
	// disables scheduling; cycles then run only on explicit invocation.
	Interval time.Duration

	// InitialLearningRate seeds CurrentLearningRate.
	InitialLearningRate float64

	// MaxLearningRate caps learning-rate escalation.
	MaxLearningRate float64

	// DeclineWindow is how many consecutive declining performance
	// points trigger a learning-rate nudge and exploration mode.
	DeclineWindow int
}

// DefaultConfig returns the controller defaults.
func DefaultConfig() Config {
	return Config{
		MinFeedback:         5,
		RecentLimit:         memory.DefaultRecentLimit,
		Interval:            0,
		InitialLearningRate: 0.1,
		MaxLearningRate:     0.5,
		DeclineWindow:       3,
	}
}

// Controller orchestrates the learning cycle and owns the learning
// state. Construct one per loop instance with NewController; there is
// no package-level instance.
type Controller struct {
	store      Store
	recognizer Recognizer
	engine     Engine
	logger     *zap.Logger
	metrics    *Metrics
	cfg        Config

	// cycleMu enforces single-flight cycles and exclusive state
	// mutation. stateMu additionally guards reads so State() can
	// snapshot while a cycle computes.
	cycleMu sync.Mutex
	stateMu sync.RWMutex
	state   *State
	phase   Phase

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewController creates a controller in the idle phase.
func NewController(store Store, recognizer Recognizer, engine Engine, logger *zap.Logger, cfg Config) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if recognizer == nil {
		return nil, fmt.Errorf("recognizer cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	def := DefaultConfig()
	if cfg.MinFeedback <= 0 {
		cfg.MinFeedback = def.MinFeedback
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = def.RecentLimit
	}
	if cfg.InitialLearningRate <= 0 {
		cfg.InitialLearningRate = def.InitialLearningRate
	}
	if cfg.MaxLearningRate <= 0 {
		cfg.MaxLearningRate = def.MaxLearningRate
	}
	if cfg.DeclineWindow <= 0 {
		cfg.DeclineWindow = def.DeclineWindow
	}

	return &Controller{
		store:      store,
		recognizer: recognizer,
		engine:     engine,
		logger:     logger,
		metrics:    NewMetrics(logger),
		cfg:        cfg,
		phase:      PhaseIdle,
		state: &State{
			CurrentLearningRate: cfg.InitialLearningRate,
			ActiveAdaptations:   make(map[string]struct{}),
		},
	}, nil
}

// State returns a snapshot of the learning state.
func (c *Controller) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	cp := c.state.clone()
	return *cp
}

// Phase returns the controller's current cycle phase.
func (c *Controller) Phase() Phase {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.phase
}

// RunCycle executes one full learning cycle:
// collecting -> recognizing -> generating_applying -> updating.
//
// If a cycle is already in progress the invocation is rejected with
// ErrCycleInProgress rather than queued. On insufficient feedback the
// cycle returns StatusSkipped with no state mutation. Any error aborts
// the cycle and leaves the learning state untouched; the caller owns
// retries.
func (c *Controller) RunCycle(ctx context.Context) (*CycleResult, error) {
	if !c.cycleMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer c.cycleMu.Unlock()
	defer c.setPhase(PhaseIdle)

	start := time.Now()

	// collecting
	c.setPhase(PhaseCollecting)
	items, err := c.store.RecentFeedback(ctx, c.cfg.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to collect feedback: %w", err)
	}
	if len(items) < c.cfg.MinFeedback {
		c.logger.Debug("skipping cycle, insufficient feedback",
			zap.Int("items", len(items)),
			zap.Int("min", c.cfg.MinFeedback),
		)
		result := &CycleResult{Status: StatusSkipped, FeedbackProcessed: len(items)}
		c.metrics.RecordCycle(ctx, result, time.Since(start))
		return result, nil
	}

	// recognizing
	c.setPhase(PhaseRecognizing)
	patterns := c.recognizer.Recognize(items)

	// generating_applying
	c.setPhase(PhaseGeneratingApplying)
	candidates := c.engine.Generate(patterns)
	applied := 0
	appliedIDs := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		res, err := c.engine.Apply(ctx, cand)
		if err != nil {
			return nil, fmt.Errorf("failed to apply adaptation %s: %w", cand.ID, err)
		}
		if res.Success {
			applied++
			appliedIDs = append(appliedIDs, res.AdaptationID)
		}
	}

	// updating: stage the next state, commit only when everything
	// (including reconciliation reads) has succeeded.
	c.setPhase(PhaseUpdating)
	c.stateMu.RLock()
	next := c.state.clone()
	c.stateMu.RUnlock()

	for _, id := range appliedIDs {
		next.ActiveAdaptations[id] = struct{}{}
	}

	perf := cyclePerformance(len(items), len(candidates), applied, c.cfg.RecentLimit)
	next.PerformanceHistory = append(next.PerformanceHistory, PerformancePoint{
		Cycle:       next.Cycle,
		Performance: perf,
	})
	next.Cycle++

	c.updateLearningParameters(next)

	if err := c.reconcileActive(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to reconcile active adaptations: %w", err)
	}

	c.stateMu.Lock()
	c.state = next
	c.stateMu.Unlock()

	result := &CycleResult{
		Status:               StatusCompleted,
		FeedbackProcessed:    len(items),
		PatternsRecognized:   len(patterns),
		AdaptationsGenerated: len(candidates),
		AdaptationsApplied:   applied,
	}

	c.metrics.RecordCycle(ctx, result, time.Since(start))
	c.logger.Info("learning cycle completed",
		zap.Int("cycle", next.Cycle),
		zap.Int("feedback_processed", result.FeedbackProcessed),
		zap.Int("patterns_recognized", result.PatternsRecognized),
		zap.Int("adaptations_generated", result.AdaptationsGenerated),
		zap.Int("adaptations_applied", result.AdaptationsApplied),
		zap.Float64("performance", perf),
		zap.Float64("learning_rate", next.CurrentLearningRate),
		zap.Bool("exploration", next.ExplorationMode),
	)

	return result, nil
}

// ManageMemory reconciles the active-adaptation set against persisted
// adaptation status, dropping IDs that are no longer applied or active.
// It is idempotent and blocks if a cycle is running rather than
// interleaving with it.
func (c *Controller) ManageMemory(ctx context.Context) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	c.stateMu.RLock()
	next := c.state.clone()
	c.stateMu.RUnlock()

	if err := c.reconcileActive(ctx, next); err != nil {
		return err
	}

	c.stateMu.Lock()
	c.state = next
	c.stateMu.Unlock()
	return nil
}

// reconcileActive drops adaptation IDs whose persisted status has moved
// past applied/active. Unknown IDs are dropped too: if the store no
// longer has the adaptation it cannot be active.
func (c *Controller) reconcileActive(ctx context.Context, st *State) error {
	for id := range st.ActiveAdaptations {
		a, err := c.store.GetAdaptation(ctx, id)
		if err != nil {
			if errors.Is(err, memory.ErrAdaptationNotFound) {
				delete(st.ActiveAdaptations, id)
				continue
			}
			return fmt.Errorf("failed to fetch adaptation %s: %w", id, err)
		}
		if !a.IsActive() {
			c.logger.Debug("dropping completed adaptation from active set",
				zap.String("adaptation_id", id),
				zap.String("status", string(a.Status)),
			)
			delete(st.ActiveAdaptations, id)
		}
	}
	return nil
}

// updateLearningParameters nudges the learning rate and exploration
// mode from the recent performance trend. A strictly declining window
// raises the rate and turns exploration on; a recovering window decays
// the rate back toward its initial value and turns exploration off.
// Thresholds here are tunables, not correctness requirements.
func (c *Controller) updateLearningParameters(st *State) {
	n := c.cfg.DeclineWindow
	hist := st.PerformanceHistory
	if len(hist) < n {
		return
	}

	declining := true
	tail := hist[len(hist)-n:]
	for i := 1; i < len(tail); i++ {
		if tail[i].Performance >= tail[i-1].Performance {
			declining = false
			break
		}
	}

	if declining {
		st.CurrentLearningRate *= 1.5
		if st.CurrentLearningRate > c.cfg.MaxLearningRate {
			st.CurrentLearningRate = c.cfg.MaxLearningRate
		}
		st.ExplorationMode = true
		c.logger.Info("performance declining, raising learning rate",
			zap.Float64("learning_rate", st.CurrentLearningRate),
			zap.Int("window", n),
		)
		return
	}

	if st.ExplorationMode && tail[len(tail)-1].Performance > tail[0].Performance {
		st.CurrentLearningRate *= 0.8
		if st.CurrentLearningRate < c.cfg.InitialLearningRate {
			st.CurrentLearningRate = c.cfg.InitialLearningRate
		}
		st.ExplorationMode = false
	}
}

// cyclePerformance summarizes a cycle's outcome quality in [0,1]: the
// applied/generated ratio weighted by feedback volume relative to the
// collection window. Cycles that generate nothing score a neutral base
// so quiet periods do not read as decline.
func cyclePerformance(items, generated, applied, recentLimit int) float64 {
	ratio := 0.5
	if generated > 0 {
		ratio = float64(applied) / float64(generated)
	}

	volume := float64(items) / float64(recentLimit)
	if volume > 1 {
		volume = 1
	}

	return 0.7*ratio + 0.3*volume
}

func (c *Controller) setPhase(p Phase) {
	c.stateMu.Lock()
	c.phase = p
	c.stateMu.Unlock()
}
