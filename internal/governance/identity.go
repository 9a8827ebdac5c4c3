package governance

import (
	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
)

// StaticIdentity is an IdentityProvider backed by configuration. The
// constitution hash and compliance level are fixed for the process
// lifetime; rotating the constitution means restarting with new config.
type StaticIdentity struct {
	identity adaptation.Governance
}

// NewStaticIdentity creates a provider for the given identity.
func NewStaticIdentity(constitutionHash, complianceLevel string) *StaticIdentity {
	return &StaticIdentity{
		identity: adaptation.Governance{
			ConstitutionHash: constitutionHash,
			ComplianceLevel:  complianceLevel,
		},
	}
}

// Identity returns the active governance identity.
func (p *StaticIdentity) Identity() adaptation.Governance {
	return p.identity
}

// Ensure StaticIdentity implements the provider contract.
var _ adaptation.IdentityProvider = (*StaticIdentity)(nil)
