// Package governance provides clients for the external verification
// services behind the constitutional gate, plus the governance identity
// used to stamp adaptations.
//
// The verification services (belief-trace verifier, trust assessor,
// compliance checker) are remote collaborators; this package only calls
// them and never implements their internal logic. Calls are bounded by
// timeouts, and a failed or timed-out call is reported as an error so
// the engine can treat it as a failed check rather than a pass.
package governance
