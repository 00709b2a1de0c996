// Package status holds the static intake workflow table: every status,
// its display metadata, and the legal transitions with their role gates.
// Pure lookup, no behavior.
package status

import "intakeflow/internal/domain"

// Action is one role-gated transition a user can trigger from a status.
type Action struct {
	To        domain.Status
	Role      domain.Role
	Label     string
	Icon      string
	RouteType domain.RouteType
}

// Transitions is the outgoing edge set of a status. Next lists legal
// target statuses; Actions lists who may trigger which of them.
type Transitions struct {
	Next    []domain.Status
	Actions []Action
}

// Info is display metadata for a status badge.
type Info struct {
	Label       string
	BadgeClass  string
	Icon        string
	Description string
}

var transitions = map[domain.Status]Transitions{
	domain.StatusDraft: {
		Next: []domain.Status{domain.StatusKlantInvoer},
		Actions: []Action{
			{To: domain.StatusKlantInvoer, Role: domain.RoleInformatiemanager, Label: "Delen met klant", Icon: "share"},
		},
	},
	domain.StatusKlantInvoer: {
		Next: []domain.Status{domain.StatusIMAanvullen},
		Actions: []Action{
			{To: domain.StatusIMAanvullen, Role: domain.RoleKlant, Label: "Indienen", Icon: "send"},
		},
	},
	domain.StatusIMAanvullen: {
		Next: []domain.Status{domain.StatusKlantAkkoord},
		Actions: []Action{
			{To: domain.StatusKlantAkkoord, Role: domain.RoleInformatiemanager, Label: "Vraag akkoord klant", Icon: "thumbs-up"},
		},
	},
	// The klant can send the form back for more changes; this backward
	// edge is an intentional re-review cycle.
	domain.StatusKlantAkkoord: {
		Next: []domain.Status{domain.StatusStakeholderReview, domain.StatusIMAanvullen},
		Actions: []Action{
			{To: domain.StatusStakeholderReview, Role: domain.RoleKlant, Label: "Akkoord gegeven", Icon: "check"},
			{To: domain.StatusIMAanvullen, Role: domain.RoleKlant, Label: "Wijzigingen nodig", Icon: "edit"},
		},
	},
	domain.StatusStakeholderReview: {
		Next: []domain.Status{domain.StatusIMRoutering},
		Actions: []Action{
			{To: domain.StatusIMRoutering, Role: domain.RoleInformatiemanager, Label: "Review afronden", Icon: "check-circle"},
		},
	},
	domain.StatusIMRoutering: {
		Next: []domain.Status{domain.StatusBijBA, domain.StatusFBBacklog, domain.StatusStakeholderReview},
		Actions: []Action{
			{To: domain.StatusBijBA, Role: domain.RoleInformatiemanager, Label: "Doorzetten naar BA (Project)", Icon: "arrow-right", RouteType: domain.RouteProject},
			{To: domain.StatusFBBacklog, Role: domain.RoleInformatiemanager, Label: "Doorzetten naar FB (Change)", Icon: "list", RouteType: domain.RouteChange},
			{To: domain.StatusStakeholderReview, Role: domain.RoleInformatiemanager, Label: "Terug naar stakeholders", Icon: "rotate-ccw"},
		},
	},
	// BA actions arrive with the impact-analysis flow; until then no role
	// can move a form out of bij_ba even though the edge exists.
	domain.StatusBijBA: {
		Next:    []domain.Status{domain.StatusGearchiveerd},
		Actions: []Action{},
	},
	domain.StatusFBBacklog: {
		Next: []domain.Status{domain.StatusGearchiveerd},
		Actions: []Action{
			{To: domain.StatusGearchiveerd, Role: domain.RoleInformatiemanager, Label: "Archiveren", Icon: "archive"},
		},
	},
	domain.StatusGearchiveerd: {},
}

var labels = map[domain.Status]Info{
	domain.StatusDraft:             {Label: "Concept", BadgeClass: "badge-draft", Icon: "edit", Description: "Intake is nog in concept"},
	domain.StatusKlantInvoer:       {Label: "Wacht op klant", BadgeClass: "badge-warning", Icon: "clock", Description: "Klant vult gegevens in"},
	domain.StatusIMAanvullen:       {Label: "IM aanvullen", BadgeClass: "badge-info", Icon: "inbox", Description: "Klant is gereed, IM vult aan"},
	domain.StatusKlantAkkoord:      {Label: "Wacht op akkoord", BadgeClass: "badge-warning", Icon: "thumbs-up", Description: "Wacht op formeel akkoord klant"},
	domain.StatusStakeholderReview: {Label: "Stakeholder review", BadgeClass: "badge-warning", Icon: "users", Description: "Stakeholders reviewen de intake"},
	domain.StatusIMRoutering:       {Label: "Routering", BadgeClass: "badge-info", Icon: "git-branch", Description: "IM verwerkt feedback en bepaalt route"},
	domain.StatusBijBA:             {Label: "Bij BA", BadgeClass: "badge-primary", Icon: "user", Description: "In werkvoorraad Business Analist"},
	domain.StatusFBBacklog:         {Label: "FB Backlog", BadgeClass: "badge-primary", Icon: "list", Description: "Op backlog Functioneel Beheer"},
	domain.StatusGearchiveerd:      {Label: "Gearchiveerd", BadgeClass: "badge-approved", Icon: "archive", Description: "Intake is afgerond en gearchiveerd"},
}

// ordered keeps deterministic iteration for listings and counters.
var ordered = []domain.Status{
	domain.StatusDraft,
	domain.StatusKlantInvoer,
	domain.StatusIMAanvullen,
	domain.StatusKlantAkkoord,
	domain.StatusStakeholderReview,
	domain.StatusIMRoutering,
	domain.StatusBijBA,
	domain.StatusFBBacklog,
	domain.StatusGearchiveerd,
}

// TransitionsFor returns the outgoing edges of a status. Unknown statuses
// yield an empty set; callers must treat that the same as terminal.
func TransitionsFor(s domain.Status) Transitions {
	return transitions[s]
}

// InfoFor returns display metadata, with a neutral fallback for unknown
// statuses so stale records still render.
func InfoFor(s domain.Status) Info {
	if info, ok := labels[s]; ok {
		return info
	}
	return Info{Label: string(s), BadgeClass: "badge-secondary", Icon: "circle"}
}

// Known reports whether s is part of the workflow.
func Known(s domain.Status) bool {
	_, ok := labels[s]
	return ok
}

// All returns every workflow status in flow order.
func All() []domain.Status {
	out := make([]domain.Status, len(ordered))
	copy(out, ordered)
	return out
}
