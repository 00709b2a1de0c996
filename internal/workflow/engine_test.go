package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"intakeflow/internal/config"
	"intakeflow/internal/db"
	"intakeflow/internal/domain"
	"intakeflow/internal/migrate"
	"intakeflow/internal/notify"
	"intakeflow/internal/workflow"
)

var (
	im    = domain.User{ID: "im-1", Name: "Iris", Role: domain.RoleInformatiemanager}
	klant = domain.User{ID: "klant-1", Name: "Kees", Role: domain.RoleKlant}
	ba    = domain.User{ID: "ba-1", Name: "Bram", Role: domain.RoleBusinessAnalist}
)

type testEnv struct {
	Engine workflow.Engine
	Ctx    context.Context
	clock  *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	env := &testEnv{Ctx: context.Background(), clock: &now}
	eng := workflow.New(conn, config.Default())
	eng.Now = func() time.Time { return *env.clock }
	env.Engine = eng
	return env
}

func (env *testEnv) advance(d time.Duration) {
	*env.clock = env.clock.Add(d)
}

func (env *testEnv) newIntake(t *testing.T) domain.Form {
	t.Helper()
	f, err := env.Engine.CreateForm(env.Ctx, workflow.CreateOptions{
		FormType:  domain.FormIntake,
		Title:     "Nieuw zaaksysteem",
		KlantID:   klant.ID,
		KlantNaam: klant.Name,
	}, im)
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	return f
}

func TestHappyPathToProject(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	if f.EffectiveStatus() != domain.StatusDraft {
		t.Fatalf("new form status = %s", f.EffectiveStatus())
	}

	steps := []struct {
		to    domain.Status
		actor domain.User
	}{
		{domain.StatusKlantInvoer, im},
		{domain.StatusIMAanvullen, klant},
		{domain.StatusKlantAkkoord, im},
		{domain.StatusStakeholderReview, klant},
		{domain.StatusIMRoutering, im},
	}
	for _, step := range steps {
		env.advance(time.Hour)
		var err error
		f, _, err = env.Engine.Transition(env.Ctx, f.ID, step.to, step.actor, workflow.TransitionOptions{})
		if err != nil {
			t.Fatalf("to %s as %s: %v", step.to, step.actor.Role, err)
		}
	}

	env.advance(time.Hour)
	f, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusBijBA, im, workflow.TransitionOptions{AssignedTo: ba.ID})
	if err != nil {
		t.Fatalf("route to ba: %v", err)
	}
	if f.RouteType == nil || *f.RouteType != domain.RouteProject {
		t.Fatalf("route type = %v, want project", f.RouteType)
	}
	if f.AssignedTo == nil || *f.AssignedTo != ba.ID {
		t.Fatalf("assigned to = %v", f.AssignedTo)
	}
	if len(f.StatusHistory) != 6 {
		t.Fatalf("history length = %d", len(f.StatusHistory))
	}
	for i, h := range f.StatusHistory[1:] {
		if h.From != f.StatusHistory[i].To {
			t.Fatalf("history not contiguous at %d: %s -> %s", i, f.StatusHistory[i].To, h.From)
		}
	}
}

func TestChangeRouteToBacklog(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	for _, step := range []struct {
		to    domain.Status
		actor domain.User
	}{
		{domain.StatusKlantInvoer, im},
		{domain.StatusIMAanvullen, klant},
		{domain.StatusKlantAkkoord, im},
		{domain.StatusStakeholderReview, klant},
		{domain.StatusIMRoutering, im},
	} {
		var err error
		f, _, err = env.Engine.Transition(env.Ctx, f.ID, step.to, step.actor, workflow.TransitionOptions{})
		if err != nil {
			t.Fatalf("to %s: %v", step.to, err)
		}
	}
	f, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusFBBacklog, im, workflow.TransitionOptions{AssignedTo: "fb-1"})
	if err != nil {
		t.Fatalf("route to fb: %v", err)
	}
	if f.RouteType == nil || *f.RouteType != domain.RouteChange {
		t.Fatalf("route type = %v, want change", f.RouteType)
	}
	f, _, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusGearchiveerd, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatalf("archive from backlog: %v", err)
	}
	if f.EffectiveStatus() != domain.StatusGearchiveerd {
		t.Fatalf("status = %s", f.EffectiveStatus())
	}
}

func TestTransitionDeniedForWrongRole(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	_, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusKlantInvoer, klant, workflow.TransitionOptions{})
	var td workflow.TransitionDeniedError
	if !errors.As(err, &td) {
		t.Fatalf("expected TransitionDeniedError, got %v", err)
	}
	if td.From != domain.StatusDraft || td.To != domain.StatusKlantInvoer || td.Role != domain.RoleKlant {
		t.Fatalf("error fields: %+v", td)
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	ghost := domain.User{ID: "x", Name: "X", Role: "superadmin"}
	if _, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusKlantInvoer, ghost, workflow.TransitionOptions{}); err == nil {
		t.Fatal("expected denial for unknown role")
	}
}

func TestSameStatusRejected(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	if _, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusDraft, im, workflow.TransitionOptions{}); err == nil {
		t.Fatal("expected denial for self transition")
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	if workflow.CanTransition(domain.StatusGearchiveerd, domain.StatusDraft, domain.RoleInformatiemanager) {
		t.Fatal("gearchiveerd must not allow transitions")
	}
}

func TestNoArchiveFromBijBA(t *testing.T) {
	// bij_ba lists gearchiveerd as reachable but no role carries the
	// action, so nothing may archive from there.
	for _, role := range []domain.Role{
		domain.RoleInformatiemanager,
		domain.RoleBusinessAnalist,
		domain.RoleFunctioneelBeheerder,
		domain.RolePMO,
	} {
		if workflow.CanTransition(domain.StatusBijBA, domain.StatusGearchiveerd, role) {
			t.Fatalf("bij_ba -> gearchiveerd allowed for %s", role)
		}
	}
}

func TestBackwardLoops(t *testing.T) {
	if !workflow.CanTransition(domain.StatusKlantAkkoord, domain.StatusIMAanvullen, domain.RoleKlant) {
		t.Fatal("klant_akkoord -> im_aanvullen by klant should be allowed")
	}
	if !workflow.CanTransition(domain.StatusIMRoutering, domain.StatusStakeholderReview, domain.RoleInformatiemanager) {
		t.Fatal("im_routering -> stakeholder_review by im should be allowed")
	}
}

func TestKlantTokenIssuedOnShare(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	if f.KlantToken != "" {
		t.Fatal("draft should not carry a token")
	}
	f, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusKlantInvoer, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if f.KlantToken == "" {
		t.Fatal("token should be issued on share")
	}
	if !f.KlantTokenUsable() {
		t.Fatal("token should be usable in klant_invoer")
	}
	token := f.KlantToken
	f, _, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusIMAanvullen, klant, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if f.KlantToken != token {
		t.Fatal("token must survive transitions")
	}
	if f.KlantTokenUsable() {
		t.Fatal("token must not be usable in im_aanvullen")
	}
}

func TestTransitionIntents(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)

	_, intents, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusKlantInvoer, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 1 || intents[0].Type != notify.IntakeShared {
		t.Fatalf("share intents = %+v", intents)
	}
	if intents[0].TargetUserID == nil || *intents[0].TargetUserID != klant.ID {
		t.Fatalf("share target = %v", intents[0].TargetUserID)
	}

	_, intents, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusIMAanvullen, klant, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 1 || intents[0].Type != notify.IntakeSubmitted {
		t.Fatalf("submit intents = %+v", intents)
	}

	_, intents, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusKlantAkkoord, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 1 || intents[0].Type != notify.AkkoordRequested {
		t.Fatalf("akkoord intents = %+v", intents)
	}

	// Stakeholder slots without a bound person produce no review intents,
	// but the owner still hears about the akkoord.
	_, intents, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusStakeholderReview, klant, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 1 || intents[0].Type != notify.AkkoordGiven {
		t.Fatalf("review intents = %+v", intents)
	}

	_, intents, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusIMRoutering, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 0 {
		t.Fatalf("routing intents = %+v", intents)
	}

	_, intents, err = env.Engine.Transition(env.Ctx, f.ID, domain.StatusBijBA, im, workflow.TransitionOptions{AssignedTo: ba.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 1 || intents[0].Type != notify.RoutedToBA {
		t.Fatalf("route intents = %+v", intents)
	}
}

func TestArchiveBroadcast(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	for _, step := range []struct {
		to    domain.Status
		actor domain.User
	}{
		{domain.StatusKlantInvoer, im},
		{domain.StatusIMAanvullen, klant},
		{domain.StatusKlantAkkoord, im},
		{domain.StatusStakeholderReview, klant},
		{domain.StatusIMRoutering, im},
	} {
		var err error
		f, _, err = env.Engine.Transition(env.Ctx, f.ID, step.to, step.actor, workflow.TransitionOptions{})
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusFBBacklog, im, workflow.TransitionOptions{}); err != nil {
		t.Fatal(err)
	}
	_, intents, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusGearchiveerd, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(intents) != 1 || intents[0].Type != notify.IntakeArchived {
		t.Fatalf("archive intents = %+v", intents)
	}
	if intents[0].TargetUserID != nil {
		t.Fatal("archive must broadcast")
	}
}

func TestExportWritesBothStatusFields(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	f, _, err := env.Engine.Transition(env.Ctx, f.ID, domain.StatusKlantInvoer, im, workflow.TransitionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := env.Engine.ExportJSON(env.Ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["status"] != "klant_invoer" || raw["intakeStatus"] != "klant_invoer" {
		t.Fatalf("status fields: status=%v intakeStatus=%v", raw["status"], raw["intakeStatus"])
	}
}

func TestImportPreservesHistory(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	for _, step := range []struct {
		to    domain.Status
		actor domain.User
	}{
		{domain.StatusKlantInvoer, im},
		{domain.StatusIMAanvullen, klant},
	} {
		env.advance(time.Hour)
		var err error
		f, _, err = env.Engine.Transition(env.Ctx, f.ID, step.to, step.actor, workflow.TransitionOptions{})
		if err != nil {
			t.Fatal(err)
		}
	}
	data, err := env.Engine.ExportJSON(env.Ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := env.Engine.ImportJSON(env.Ctx, data, im)
	if err != nil {
		t.Fatal(err)
	}
	if imported.ID == f.ID {
		t.Fatal("import must mint a new id")
	}
	if imported.ImportedAt == nil {
		t.Fatal("importedAt must be set")
	}
	got, err := env.Engine.Repo.GetForm(env.Ctx, imported.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.EffectiveStatus() != domain.StatusIMAanvullen {
		t.Fatalf("imported status = %s", got.EffectiveStatus())
	}
	if len(got.StatusHistory) != len(f.StatusHistory) {
		t.Fatalf("history length %d, want %d", len(got.StatusHistory), len(f.StatusHistory))
	}
	for i := range got.StatusHistory {
		if got.StatusHistory[i].From != f.StatusHistory[i].From || got.StatusHistory[i].To != f.StatusHistory[i].To {
			t.Fatalf("history entry %d differs", i)
		}
	}
	if len(got.Stakeholders) != len(f.Stakeholders) {
		t.Fatalf("stakeholders %d, want %d", len(got.Stakeholders), len(f.Stakeholders))
	}
}

func TestImportLegacyStatusOnly(t *testing.T) {
	env := newTestEnv(t)
	data := []byte(`{"formType":"intakeformulier","title":"Oud formulier","status":"im_aanvullen"}`)
	f, err := env.Engine.ImportJSON(env.Ctx, data, im)
	if err != nil {
		t.Fatal(err)
	}
	if f.EffectiveStatus() != domain.StatusIMAanvullen {
		t.Fatalf("legacy status = %s", f.EffectiveStatus())
	}
}

func TestImportMalformed(t *testing.T) {
	env := newTestEnv(t)
	var mi workflow.MalformedImportError
	if _, err := env.Engine.ImportJSON(env.Ctx, []byte(`{nope`), im); !errors.As(err, &mi) {
		t.Fatalf("expected MalformedImportError, got %v", err)
	}
	if _, err := env.Engine.ImportJSON(env.Ctx, []byte(`{"formType":"raketformulier","title":"x"}`), im); !errors.As(err, &mi) {
		t.Fatalf("expected MalformedImportError for bad type, got %v", err)
	}
}

func TestAvailableActions(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	actions := workflow.AvailableActions(f, domain.RoleInformatiemanager)
	if len(actions) != 1 || actions[0].To != domain.StatusKlantInvoer {
		t.Fatalf("draft actions for im = %+v", actions)
	}
	if got := workflow.AvailableActions(f, domain.RoleKlant); len(got) != 0 {
		t.Fatalf("draft actions for klant = %+v", got)
	}
}

func TestCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)

	c, intents, err := env.Engine.AddComment(env.Ctx, f.ID, workflow.CommentInput{
		SectionID: "basisinfo",
		Text:      "Graag de scope verduidelijken",
	}, klant)
	if err != nil {
		t.Fatalf("klant comment: %v", err)
	}
	if len(intents) != 1 || intents[0].Type != notify.CommentAdded {
		t.Fatalf("comment intents = %+v", intents)
	}

	// klant may not resolve
	_, _, err = env.Engine.SetCommentStatus(env.Ctx, f.ID, c.ID, domain.CommentVerwerkt, "", klant)
	var pd workflow.PermissionDeniedError
	if !errors.As(err, &pd) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}

	resolved, intents, err := env.Engine.SetCommentStatus(env.Ctx, f.ID, c.ID, domain.CommentVerwerkt, "opgelost", im)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.CommentVerwerkt || resolved.StatusReason == nil {
		t.Fatalf("resolved = %+v", resolved)
	}
	if len(intents) != 1 || intents[0].Type != notify.CommentResolved {
		t.Fatalf("resolve intents = %+v", intents)
	}

	// stakeholder may not delete someone else's comment
	sh := domain.User{ID: "sh-1", Name: "Sam", Role: domain.RoleStakeholder}
	if err := env.Engine.DeleteComment(env.Ctx, f.ID, c.ID, sh); !errors.As(err, &pd) {
		t.Fatalf("expected denial, got %v", err)
	}
	// the informatiemanager may
	if err := env.Engine.DeleteComment(env.Ctx, f.ID, c.ID, im); err != nil {
		t.Fatalf("im delete: %v", err)
	}
}

func TestCommentReplies(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	parent, _, err := env.Engine.AddComment(env.Ctx, f.ID, workflow.CommentInput{SectionID: "vragen", Text: "vraag"}, im)
	if err != nil {
		t.Fatal(err)
	}
	reply, _, err := env.Engine.AddComment(env.Ctx, f.ID, workflow.CommentInput{ParentCommentID: parent.ID, Text: "antwoord"}, klant)
	if err != nil {
		t.Fatal(err)
	}
	if reply.ParentCommentID == nil || *reply.ParentCommentID != parent.ID {
		t.Fatalf("reply parent = %v", reply.ParentCommentID)
	}
	// deleting the parent removes the reply too
	if err := env.Engine.DeleteComment(env.Ctx, f.ID, parent.ID, im); err != nil {
		t.Fatal(err)
	}
	got, err := env.Engine.Repo.ListComments(env.Ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("comments left = %d", len(got))
	}
}

func TestTrackChangeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)

	sh := domain.User{ID: "sh-1", Name: "Sam", Role: domain.RoleStakeholder}
	var pd workflow.PermissionDeniedError
	if _, err := env.Engine.ProposeChange(env.Ctx, f.ID, workflow.ChangeInput{FieldPath: "titel"}, sh); !errors.As(err, &pd) {
		t.Fatalf("stakeholder propose should be denied, got %v", err)
	}

	tc, err := env.Engine.ProposeChange(env.Ctx, f.ID, workflow.ChangeInput{
		FieldPath:     "sections.basisinfo.titel",
		OriginalValue: "Oud",
		NewValue:      "Nieuw",
	}, klant)
	if err != nil {
		t.Fatal(err)
	}
	if tc.Status != domain.ChangePending {
		t.Fatalf("status = %s", tc.Status)
	}

	if _, err := env.Engine.ReviewChange(env.Ctx, f.ID, tc.ID, domain.ChangeAccepted, klant); !errors.As(err, &pd) {
		t.Fatalf("klant review should be denied, got %v", err)
	}
	reviewed, err := env.Engine.ReviewChange(env.Ctx, f.ID, tc.ID, domain.ChangeAccepted, im)
	if err != nil {
		t.Fatal(err)
	}
	if reviewed.Status != domain.ChangeAccepted || reviewed.ReviewedBy == nil {
		t.Fatalf("reviewed = %+v", reviewed)
	}
	if _, err := env.Engine.ReviewChange(env.Ctx, f.ID, tc.ID, domain.ChangeRejected, im); err == nil {
		t.Fatal("double review should fail")
	}
}

func TestStakeholderAdvice(t *testing.T) {
	env := newTestEnv(t)
	f := env.newIntake(t)
	if len(f.Stakeholders) != 9 {
		t.Fatalf("default stakeholder slots = %d", len(f.Stakeholders))
	}

	yes := true
	sh, err := env.Engine.SetStakeholderAdvice(env.Ctx, f.ID, "Architectuur", workflow.AdviceInput{
		Akkoord:  &yes,
		Feedback: "Past in het landschap",
	}, domain.User{ID: "arch-1", Name: "Anna", Role: domain.RoleStakeholder})
	if err != nil {
		t.Fatal(err)
	}
	if sh.Akkoord == nil || !*sh.Akkoord || sh.Feedback == "" {
		t.Fatalf("advice = %+v", sh)
	}

	informed, err := env.Engine.MarkStakeholderInformed(env.Ctx, f.ID, "Aanvrager")
	if err != nil {
		t.Fatal(err)
	}
	if !informed.Geinformeerd {
		t.Fatal("geinformeerd not set")
	}

	got, err := env.Engine.Repo.ListStakeholders(env.Ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	var undecided int
	for _, s := range got {
		if s.Akkoord == nil {
			undecided++
		}
	}
	if undecided != 8 {
		t.Fatalf("undecided = %d", undecided)
	}
}
