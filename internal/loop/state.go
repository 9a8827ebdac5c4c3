package loop

// Phase names the controller's position in the cycle state machine.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseCollecting         Phase = "collecting"
	PhaseRecognizing        Phase = "recognizing"
	PhaseGeneratingApplying Phase = "generating_applying"
	PhaseUpdating           Phase = "updating"
)

// CycleStatus is the outcome classification of one cycle invocation.
type CycleStatus string

const (
	// StatusCompleted means the cycle ran all phases.
	StatusCompleted CycleStatus = "completed"

	// StatusSkipped means the cycle aborted early on insufficient
	// feedback, with no state mutation.
	StatusSkipped CycleStatus = "skipped"
)

// PerformancePoint is one entry of the performance history.
type PerformancePoint struct {
	// Cycle is the cycle number this point belongs to.
	Cycle int `json:"cycle"`

	// Performance is the cycle's outcome-quality scalar in [0,1].
	Performance float64 `json:"performance"`
}

// State is the controller's per-instance learning state. It is owned
// exclusively by the controller and updated once per cycle.
type State struct {
	// Cycle counts completed cycles. Equals len(PerformanceHistory).
	Cycle int `json:"cycle"`

	// PerformanceHistory is the append-only per-cycle performance log.
	PerformanceHistory []PerformancePoint `json:"performance_history"`

	// CurrentLearningRate scales how aggressively the loop adapts.
	CurrentLearningRate float64 `json:"current_learning_rate"`

	// ExplorationMode widens the loop's search when performance stalls.
	ExplorationMode bool `json:"exploration_mode"`

	// ActiveAdaptations is the set of adaptation IDs whose persisted
	// status is applied or active, reconciled by ManageMemory.
	ActiveAdaptations map[string]struct{} `json:"-"`
}

// ActiveIDs returns the active adaptation IDs as a slice, for
// serialization and inspection. Value receiver so it can be called
// directly on State snapshots.
func (s State) ActiveIDs() []string {
	ids := make([]string, 0, len(s.ActiveAdaptations))
	for id := range s.ActiveAdaptations {
		ids = append(ids, id)
	}
	return ids
}

// clone returns a deep copy used as the staging state during a cycle,
// so a failed cycle never leaves partial mutations behind.
func (s *State) clone() *State {
	cp := &State{
		Cycle:               s.Cycle,
		CurrentLearningRate: s.CurrentLearningRate,
		ExplorationMode:     s.ExplorationMode,
		PerformanceHistory:  make([]PerformancePoint, len(s.PerformanceHistory)),
		ActiveAdaptations:   make(map[string]struct{}, len(s.ActiveAdaptations)),
	}
	copy(cp.PerformanceHistory, s.PerformanceHistory)
	for id := range s.ActiveAdaptations {
		cp.ActiveAdaptations[id] = struct{}{}
	}
	return cp
}

// CycleResult summarizes one cycle invocation.
type CycleResult struct {
	Status               CycleStatus `json:"status"`
	FeedbackProcessed    int         `json:"feedback_processed"`
	PatternsRecognized   int         `json:"patterns_recognized"`
	AdaptationsGenerated int         `json:"adaptations_generated"`
	AdaptationsApplied   int         `json:"adaptations_applied"`
}
