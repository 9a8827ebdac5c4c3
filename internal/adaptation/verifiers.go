package adaptation

import "context"

// The three verification collaborators are external services. They are
// fallible remote calls: implementations must bound them with timeouts,
// and the engine treats any call error as a failed check, never as a
// pass.

// BeliefTraceVerifier checks that an adaptation's justification traces
// back to verifiable beliefs.
type BeliefTraceVerifier interface {
	VerifyBeliefTrace(ctx context.Context, a *Adaptation) (ConstitutionalVerification, error)
}

// TrustAssessor evaluates the trust implications of applying an
// adaptation.
type TrustAssessor interface {
	AssessTrustImplications(ctx context.Context, a *Adaptation) (TrustAssessment, error)
}

// ComplianceChecker verifies an adaptation against the active
// governance constitution.
type ComplianceChecker interface {
	VerifyCompliance(ctx context.Context, a *Adaptation) (GovernanceCompliance, error)
}

// IdentityProvider exposes the active governance identity used to stamp
// every adaptation before verification.
type IdentityProvider interface {
	Identity() Governance
}
