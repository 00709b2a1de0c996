// Package workqueue projects forms into per-role work views and derives
// time-in-status metrics from the audit history. It is pure: projection
// never mutates a form and carries no storage of its own.
package workqueue

import (
	"math"
	"time"

	"intakeflow/internal/config"
	"intakeflow/internal/domain"
)

type Projector struct {
	Config *config.Config
}

func New(cfg *config.Config) Projector {
	return Projector{Config: cfg}
}

// QueueFor returns the configured view for a role. Roles without a
// queue see nothing.
func (p Projector) QueueFor(role domain.Role) (config.Workqueue, bool) {
	wq, ok := p.Config.Workqueues[role]
	return wq, ok
}

// Project filters forms down to what the given user sees in their
// queue: the role's statuses, and unless the queue is marked
// can_see_all, only the forms tied to the user. Klanten own forms via
// the klant binding; analysts and beheerders via assignment.
func (p Projector) Project(forms []domain.Form, role domain.Role, userID string) []domain.Form {
	wq, ok := p.QueueFor(role)
	if !ok {
		return nil
	}
	inQueue := make(map[domain.Status]bool, len(wq.Statuses))
	for _, s := range wq.Statuses {
		inQueue[s] = true
	}
	var out []domain.Form
	for _, f := range forms {
		if !inQueue[f.EffectiveStatus()] {
			continue
		}
		if !wq.CanSeeAll && !visibleTo(f, role, userID) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func visibleTo(f domain.Form, role domain.Role, userID string) bool {
	switch role {
	case domain.RoleKlant:
		return f.KlantID == userID
	case domain.RoleBusinessAnalist, domain.RoleFunctioneelBeheerder:
		return f.AssignedTo != nil && *f.AssignedTo == userID
	}
	return f.Eigenaar == userID
}

// CountByStatus buckets a projected queue per status.
func CountByStatus(forms []domain.Form) map[domain.Status]int {
	out := map[domain.Status]int{}
	for _, f := range forms {
		out[f.EffectiveStatus()]++
	}
	return out
}

// GroupedByStatus splits a projected queue into per-status slices,
// keeping the input order inside each bucket.
func GroupedByStatus(forms []domain.Form) map[domain.Status][]domain.Form {
	out := map[domain.Status][]domain.Form{}
	for _, f := range forms {
		s := f.EffectiveStatus()
		out[s] = append(out[s], f)
	}
	return out
}

// StatusDuration is the time a form spent in one status, derived from
// two consecutive history entries.
type StatusDuration struct {
	Status domain.Status `json:"status"`
	Hours  float64       `json:"hours"`
	From   string        `json:"from"`
	To     string        `json:"to"`
}

// DurationsFor walks the history pairwise. Fewer than two entries means
// no completed residence, so the result is empty. Entries whose
// timestamps fail to parse are skipped rather than guessed at.
func DurationsFor(history []domain.StatusChange) []StatusDuration {
	if len(history) < 2 {
		return nil
	}
	var out []StatusDuration
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		t0, err0 := time.Parse(time.RFC3339, prev.At)
		t1, err1 := time.Parse(time.RFC3339, cur.At)
		if err0 != nil || err1 != nil {
			continue
		}
		hours := t1.Sub(t0).Hours()
		out = append(out, StatusDuration{
			Status: prev.To,
			Hours:  math.Round(hours*10) / 10,
			From:   prev.At,
			To:     cur.At,
		})
	}
	return out
}
