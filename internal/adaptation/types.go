package adaptation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for adaptation handling.
var (
	ErrNilAdaptation  = errors.New("adaptation cannot be nil")
	ErrEmptyParameter = errors.New("adaptation target parameter cannot be empty")
	ErrInvalidStatus  = errors.New("invalid adaptation status")
)

// Status is the lifecycle state of an adaptation.
type Status string

const (
	// StatusProposed is a freshly generated candidate, not yet verified.
	StatusProposed Status = "proposed"

	// StatusVerified passed the constitutional gate but is not yet applied.
	StatusVerified Status = "verified"

	// StatusApplied passed the gate and has been applied.
	StatusApplied Status = "applied"

	// StatusActive is an applied adaptation still in effect.
	StatusActive Status = "active"

	// StatusRejected failed one or more verification checks. Rejected
	// adaptations are persisted for audit, never discarded.
	StatusRejected Status = "rejected"

	// StatusCompleted is an adaptation whose effect has run its course;
	// the controller drops it from the active set on reconciliation.
	StatusCompleted Status = "completed"
)

// Type is the kind of behavioral change an adaptation performs.
type Type string

const (
	// TypeParameter adjusts a named tunable parameter.
	TypeParameter Type = "parameter"
)

// Target names the knob an adaptation changes and the value to move it
// toward.
type Target struct {
	// Parameter is the tunable being adjusted (e.g. "response_time_budget").
	Parameter string `json:"parameter"`

	// TargetValue is the desired direction or value, as a string so both
	// numeric and symbolic targets share one shape.
	TargetValue string `json:"target_value"`
}

// Justification links an adaptation back to the pattern that motivated it.
type Justification struct {
	// PatternID is the originating pattern.
	PatternID string `json:"pattern_id"`

	// Confidence is the pattern's confidence at generation time.
	Confidence float64 `json:"confidence"`

	// Reasoning is a human-readable explanation for audit.
	Reasoning string `json:"reasoning"`
}

// Governance is the identity stamp applied before verification. Every
// adaptation records the constitution it was verified against.
type Governance struct {
	// ConstitutionHash identifies the active constitution version.
	ConstitutionHash string `json:"constitution_hash"`

	// ComplianceLevel is the governance compliance tier in force.
	ComplianceLevel string `json:"compliance_level"`
}

// ConstitutionalVerification is the belief-trace check outcome.
type ConstitutionalVerification struct {
	Verified bool `json:"verified"`
}

// TrustAssessment is the trust check outcome.
type TrustAssessment struct {
	Trustworthy bool `json:"trustworthy"`
}

// GovernanceCompliance is the compliance check outcome.
type GovernanceCompliance struct {
	Compliant bool `json:"compliant"`
}

// Verification records the full constitutional gate result. All three
// checks are always populated, including on rejection, so the audit
// trail is complete.
type Verification struct {
	Constitutional ConstitutionalVerification `json:"constitutional_verification"`
	Trust          TrustAssessment            `json:"trust_assessment"`
	Compliance     GovernanceCompliance       `json:"governance_compliance"`
}

// AllPassed reports whether every check in the gate succeeded.
func (v Verification) AllPassed() bool {
	return v.Constitutional.Verified && v.Trust.Trustworthy && v.Compliance.Compliant
}

// FailedChecks names the checks that did not pass, for result reporting.
func (v Verification) FailedChecks() []string {
	var failed []string
	if !v.Constitutional.Verified {
		failed = append(failed, "constitutional_verification")
	}
	if !v.Trust.Trustworthy {
		failed = append(failed, "trust_assessment")
	}
	if !v.Compliance.Compliant {
		failed = append(failed, "governance_compliance")
	}
	return failed
}

// Adaptation is a proposed behavioral change derived from a pattern.
// It is mutated only by the engine (status, governance, verification)
// and by the controller (lifecycle transition to completed); all
// mutation happens inside a single cycle's sequential execution.
type Adaptation struct {
	// ID is the unique adaptation identifier (UUID).
	ID string `json:"id"`

	// Type is the kind of change.
	Type Type `json:"type"`

	// Target is the knob being adjusted.
	Target Target `json:"target"`

	// Justification records why this adaptation was proposed.
	Justification Justification `json:"justification"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Governance is the identity stamp set during Apply.
	Governance Governance `json:"governance"`

	// Verification is the full gate record set during Apply.
	Verification Verification `json:"verification"`

	// CreatedAt is when the adaptation was generated.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the adaptation was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a proposed adaptation with a generated UUID.
func New(typ Type, target Target, just Justification) (*Adaptation, error) {
	if target.Parameter == "" {
		return nil, ErrEmptyParameter
	}

	now := time.Now()
	return &Adaptation{
		ID:            uuid.New().String(),
		Type:          typ,
		Target:        target,
		Justification: just,
		Status:        StatusProposed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsActive reports whether the adaptation counts toward the active set.
func (a *Adaptation) IsActive() bool {
	return a.Status == StatusApplied || a.Status == StatusActive
}

// Complete transitions an applied or active adaptation to completed.
func (a *Adaptation) Complete() error {
	if !a.IsActive() {
		return ErrInvalidStatus
	}
	a.Status = StatusCompleted
	a.UpdatedAt = time.Now()
	return nil
}
