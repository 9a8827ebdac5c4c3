package adaptation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/adaptd/internal/pattern"
)

// Store is the slice of learning memory the engine needs. Applied and
// rejected adaptations are both persisted; rejection is an auditable
// outcome, not an error.
type Store interface {
	PutAdaptation(ctx context.Context, a *Adaptation) error
}

// DefaultGenerationThreshold is the minimum pattern confidence for a
// candidate adaptation to be generated.
const DefaultGenerationThreshold = 0.6

// parameterForMeasure maps known outcome measures to the tunable they
// suggest adjusting. Unknown measures get a generically named knob so a
// qualifying pattern always yields a candidate.
var parameterForMeasure = map[string]string{
	"rating":        "response_quality_weight",
	"response_time": "response_time_budget",
	"error_rate":    "error_tolerance",
	"latency":       "latency_budget",
}

// Result is the outcome of applying one adaptation through the gate.
type Result struct {
	// Success is true only when every verification check passed.
	Success bool `json:"success"`

	// AdaptationID identifies the adaptation.
	AdaptationID string `json:"adaptation_id"`

	// Timestamp is when the gate finished.
	Timestamp time.Time `json:"timestamp"`

	// FailedChecks names the checks that did not pass, empty on success.
	FailedChecks []string `json:"failed_checks,omitempty"`

	// Adaptation is the adaptation after the gate ran, including its
	// full verification record.
	Adaptation *Adaptation `json:"adaptation"`
}

// Engine turns patterns into candidate adaptations and runs each one
// through the constitutional verification gate before it may take
// effect.
type Engine struct {
	store      Store
	identity   IdentityProvider
	beliefs    BeliefTraceVerifier
	trust      TrustAssessor
	compliance ComplianceChecker
	logger     *zap.Logger

	generationThreshold float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithGenerationThreshold overrides the minimum pattern confidence for
// candidate generation.
func WithGenerationThreshold(t float64) EngineOption {
	return func(e *Engine) {
		e.generationThreshold = t
	}
}

// NewEngine creates an adaptation engine. All collaborators are
// required; the engine never substitutes a passing default for a
// missing verifier.
func NewEngine(
	store Store,
	identity IdentityProvider,
	beliefs BeliefTraceVerifier,
	trust TrustAssessor,
	compliance ComplianceChecker,
	logger *zap.Logger,
	opts ...EngineOption,
) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity provider cannot be nil")
	}
	if beliefs == nil {
		return nil, fmt.Errorf("belief trace verifier cannot be nil")
	}
	if trust == nil {
		return nil, fmt.Errorf("trust assessor cannot be nil")
	}
	if compliance == nil {
		return nil, fmt.Errorf("compliance checker cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	e := &Engine{
		store:               store,
		identity:            identity,
		beliefs:             beliefs,
		trust:               trust,
		compliance:          compliance,
		logger:              logger,
		generationThreshold: DefaultGenerationThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Generate synthesizes one candidate adaptation per pattern whose
// confidence clears the generation threshold. Multiple qualifying
// patterns yield multiple independent candidates; no deduplication.
func (e *Engine) Generate(patterns []pattern.Pattern) []*Adaptation {
	var candidates []*Adaptation

	for _, p := range patterns {
		if p.Statistics.Confidence < e.generationThreshold {
			continue
		}

		target := targetFor(p)
		a, err := New(TypeParameter, target, Justification{
			PatternID:  p.ID,
			Confidence: p.Statistics.Confidence,
			Reasoning:  reasoningFor(p, target),
		})
		if err != nil {
			e.logger.Warn("skipping pattern with unusable target",
				zap.String("pattern_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, a)
	}

	return candidates
}

// Apply runs the constitutional gate on one adaptation.
//
// All three checks are invoked unconditionally, even when an earlier
// one has already failed, so every adaptation carries its complete
// verification record for audit. The gate deliberately does not
// short-circuit.
//
// Verification call errors (timeouts, transport failures) count as a
// failed check. The adaptation is persisted whether it was applied or
// rejected; only the persistence write can fail this method.
func (e *Engine) Apply(ctx context.Context, a *Adaptation) (*Result, error) {
	if a == nil {
		return nil, ErrNilAdaptation
	}

	a.Governance = e.identity.Identity()

	cv, err := e.beliefs.VerifyBeliefTrace(ctx, a)
	if err != nil {
		e.logger.Warn("belief trace verification call failed, treating as not verified",
			zap.String("adaptation_id", a.ID),
			zap.Error(err),
		)
		cv = ConstitutionalVerification{Verified: false}
	}
	a.Verification.Constitutional = cv

	ta, err := e.trust.AssessTrustImplications(ctx, a)
	if err != nil {
		e.logger.Warn("trust assessment call failed, treating as untrustworthy",
			zap.String("adaptation_id", a.ID),
			zap.Error(err),
		)
		ta = TrustAssessment{Trustworthy: false}
	}
	a.Verification.Trust = ta

	gc, err := e.compliance.VerifyCompliance(ctx, a)
	if err != nil {
		e.logger.Warn("compliance verification call failed, treating as non-compliant",
			zap.String("adaptation_id", a.ID),
			zap.Error(err),
		)
		gc = GovernanceCompliance{Compliant: false}
	}
	a.Verification.Compliance = gc

	if a.Verification.AllPassed() {
		a.Status = StatusApplied
	} else {
		a.Status = StatusRejected
	}
	a.UpdatedAt = time.Now()

	if err := e.store.PutAdaptation(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to persist adaptation: %w", err)
	}

	result := &Result{
		Success:      a.Status == StatusApplied,
		AdaptationID: a.ID,
		Timestamp:    a.UpdatedAt,
		FailedChecks: a.Verification.FailedChecks(),
		Adaptation:   a,
	}

	if result.Success {
		e.logger.Info("adaptation applied",
			zap.String("adaptation_id", a.ID),
			zap.String("parameter", a.Target.Parameter),
			zap.String("pattern_id", a.Justification.PatternID),
		)
	} else {
		e.logger.Info("adaptation rejected",
			zap.String("adaptation_id", a.ID),
			zap.Strings("failed_checks", result.FailedChecks),
		)
	}

	return result, nil
}

// targetFor derives the adaptation target from a pattern's outcome.
// Temporal patterns name their measure in the first element; correlation
// patterns name it in the outcome factor.
func targetFor(p pattern.Pattern) Target {
	measure := p.Outcome.Factor
	if p.Type == pattern.TypeTemporal && len(p.Elements) > 0 {
		measure = p.Elements[0].Value
	}

	param, ok := parameterForMeasure[measure]
	if !ok {
		param = measure + "_weight"
	}

	return Target{
		Parameter:   param,
		TargetValue: directionFor(p),
	}
}

// directionFor chooses the adjustment direction from the pattern outcome.
func directionFor(p pattern.Pattern) string {
	switch p.Outcome.Value {
	case pattern.LevelHigh, pattern.TrendIncreasing:
		return "increase"
	case pattern.LevelLow, pattern.TrendDecreasing:
		return "decrease"
	default:
		return "hold"
	}
}

// reasoningFor renders the audit reasoning string for a candidate.
func reasoningFor(p pattern.Pattern, target Target) string {
	switch p.Type {
	case pattern.TypeTemporal:
		measure := p.Outcome.Factor
		if len(p.Elements) > 0 {
			measure = p.Elements[0].Value
		}
		return fmt.Sprintf("temporal pattern %s: %s is %s over the observed window; adjusting %s",
			p.ID, measure, p.Outcome.Value, target.Parameter)
	default:
		elems := ""
		for i, el := range p.Elements {
			if i > 0 {
				elems += ", "
			}
			elems += el.Factor + "=" + el.Value
		}
		return fmt.Sprintf("correlation pattern %s: %s associates with %s %s; adjusting %s",
			p.ID, elems, p.Outcome.Value, p.Outcome.Factor, target.Parameter)
	}
}
