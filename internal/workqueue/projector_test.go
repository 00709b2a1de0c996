package workqueue_test

import (
	"testing"

	"intakeflow/internal/config"
	"intakeflow/internal/domain"
	"intakeflow/internal/workqueue"
)

func strPtr(s string) *string { return &s }

func sampleForms() []domain.Form {
	return []domain.Form{
		{ID: "f1", Title: "A", Status: domain.StatusKlantInvoer, KlantID: "klant-1"},
		{ID: "f2", Title: "B", Status: domain.StatusKlantAkkoord, KlantID: "klant-2"},
		{ID: "f3", Title: "C", Status: domain.StatusIMAanvullen, Eigenaar: "im-1"},
		{ID: "f4", Title: "D", Status: domain.StatusBijBA, AssignedTo: strPtr("ba-1")},
		{ID: "f5", Title: "E", Status: domain.StatusBijBA, AssignedTo: strPtr("ba-2")},
		{ID: "f6", Title: "F", Status: domain.StatusFBBacklog, AssignedTo: strPtr("fb-1")},
		{ID: "f7", Title: "G", Status: domain.StatusGearchiveerd},
		{ID: "f8", Title: "H", Status: domain.StatusIMRoutering, Eigenaar: "im-1"},
	}
}

func TestProjectKlantSeesOwnFormsOnly(t *testing.T) {
	p := workqueue.New(config.Default())
	got := p.Project(sampleForms(), domain.RoleKlant, "klant-1")
	if len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("klant view = %+v", got)
	}
}

func TestProjectBASeesAssignedOnly(t *testing.T) {
	p := workqueue.New(config.Default())
	got := p.Project(sampleForms(), domain.RoleBusinessAnalist, "ba-1")
	if len(got) != 1 || got[0].ID != "f4" {
		t.Fatalf("ba view = %+v", got)
	}
}

func TestProjectIMSeesAll(t *testing.T) {
	p := workqueue.New(config.Default())
	got := p.Project(sampleForms(), domain.RoleInformatiemanager, "someone-else")
	if len(got) != 2 {
		t.Fatalf("im view = %+v", got)
	}
	for _, f := range got {
		s := f.EffectiveStatus()
		if s != domain.StatusIMAanvullen && s != domain.StatusIMRoutering {
			t.Fatalf("im view contains %s", s)
		}
	}
}

func TestProjectPMOSeesArchive(t *testing.T) {
	p := workqueue.New(config.Default())
	got := p.Project(sampleForms(), domain.RolePMO, "pmo-1")
	if len(got) != 1 || got[0].ID != "f7" {
		t.Fatalf("pmo view = %+v", got)
	}
}

func TestProjectUnknownRoleSeesNothing(t *testing.T) {
	p := workqueue.New(config.Default())
	if got := p.Project(sampleForms(), "ceo", "x"); got != nil {
		t.Fatalf("unknown role view = %+v", got)
	}
	if got := p.Project(sampleForms(), domain.RoleStakeholder, "sh-1"); got != nil {
		t.Fatalf("stakeholder view = %+v", got)
	}
}

func TestCountByStatus(t *testing.T) {
	counts := workqueue.CountByStatus(sampleForms())
	if counts[domain.StatusBijBA] != 2 {
		t.Fatalf("bij_ba count = %d", counts[domain.StatusBijBA])
	}
	if counts[domain.StatusGearchiveerd] != 1 {
		t.Fatalf("gearchiveerd count = %d", counts[domain.StatusGearchiveerd])
	}
}

func TestGroupedByStatusKeepsOrder(t *testing.T) {
	groups := workqueue.GroupedByStatus(sampleForms())
	ba := groups[domain.StatusBijBA]
	if len(ba) != 2 || ba[0].ID != "f4" || ba[1].ID != "f5" {
		t.Fatalf("bij_ba group = %+v", ba)
	}
}

func TestDurations(t *testing.T) {
	history := []domain.StatusChange{
		{From: domain.StatusDraft, To: domain.StatusKlantInvoer, At: "2025-03-01T09:00:00Z"},
		{From: domain.StatusKlantInvoer, To: domain.StatusIMAanvullen, At: "2025-03-01T12:30:00Z"},
		{From: domain.StatusIMAanvullen, To: domain.StatusKlantAkkoord, At: "2025-03-02T09:15:00Z"},
	}
	got := workqueue.DurationsFor(history)
	if len(got) != 2 {
		t.Fatalf("durations = %+v", got)
	}
	if got[0].Status != domain.StatusKlantInvoer || got[0].Hours != 3.5 {
		t.Fatalf("first duration = %+v", got[0])
	}
	if got[1].Status != domain.StatusIMAanvullen || got[1].Hours != 20.8 {
		t.Fatalf("second duration = %+v", got[1])
	}
	if got[0].From != "2025-03-01T09:00:00Z" || got[0].To != "2025-03-01T12:30:00Z" {
		t.Fatalf("bounds = %+v", got[0])
	}
}

func TestDurationsNeedTwoEntries(t *testing.T) {
	if got := workqueue.DurationsFor(nil); got != nil {
		t.Fatalf("empty history durations = %+v", got)
	}
	one := []domain.StatusChange{{From: domain.StatusDraft, To: domain.StatusKlantInvoer, At: "2025-03-01T09:00:00Z"}}
	if got := workqueue.DurationsFor(one); got != nil {
		t.Fatalf("single entry durations = %+v", got)
	}
}

func TestDurationsSkipUnparsableTimestamps(t *testing.T) {
	history := []domain.StatusChange{
		{From: domain.StatusDraft, To: domain.StatusKlantInvoer, At: "gisteren"},
		{From: domain.StatusKlantInvoer, To: domain.StatusIMAanvullen, At: "2025-03-01T12:00:00Z"},
		{From: domain.StatusIMAanvullen, To: domain.StatusKlantAkkoord, At: "2025-03-01T13:00:00Z"},
	}
	got := workqueue.DurationsFor(history)
	if len(got) != 1 || got[0].Hours != 1 {
		t.Fatalf("durations = %+v", got)
	}
}
