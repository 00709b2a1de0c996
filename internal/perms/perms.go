// Package perms defines per-role capability flags used by the workflow
// engine and by UI gating.
package perms

import "intakeflow/internal/domain"

// Capabilities are the feedback-related rights of a role.
type Capabilities struct {
	CanCreateComment     bool `json:"canCreateComment"`
	CanReply             bool `json:"canReply"`
	CanResolve           bool `json:"canResolve"`
	CanReject            bool `json:"canReject"`
	CanReopen            bool `json:"canReopen"`
	CanAcceptChanges     bool `json:"canAcceptChanges"`
	CanRejectChanges     bool `json:"canRejectChanges"`
	CanMakeChanges       bool `json:"canMakeChanges"`
	CanDeleteOwnComments bool `json:"canDeleteOwnComments"`
	CanDeleteAllComments bool `json:"canDeleteAllComments"`
}

var byRole = map[domain.Role]Capabilities{
	domain.RoleInformatiemanager: {
		CanCreateComment:     true,
		CanReply:             true,
		CanResolve:           true,
		CanReject:            true,
		CanReopen:            true,
		CanAcceptChanges:     true,
		CanRejectChanges:     true,
		CanMakeChanges:       true,
		CanDeleteOwnComments: true,
		CanDeleteAllComments: true,
	},
	domain.RoleBusinessAnalist: {
		CanCreateComment:     true,
		CanReply:             true,
		CanResolve:           true,
		CanReject:            true,
		CanReopen:            true,
		CanAcceptChanges:     true,
		CanRejectChanges:     true,
		CanMakeChanges:       true,
		CanDeleteOwnComments: true,
	},
	domain.RoleStakeholder: {
		CanCreateComment:     true,
		CanReply:             true,
		CanDeleteOwnComments: true,
	},
	// The klant may edit the client-facing fields of their own intake but
	// never resolves feedback.
	domain.RoleKlant: {
		CanCreateComment:     true,
		CanReply:             true,
		CanMakeChanges:       true,
		CanDeleteOwnComments: true,
	},
}

// CapabilitiesFor returns the capability set of a role. Unknown roles get
// the stakeholder set: fail closed, never open.
func CapabilitiesFor(role domain.Role) Capabilities {
	if caps, ok := byRole[role]; ok {
		return caps
	}
	return byRole[domain.RoleStakeholder]
}
