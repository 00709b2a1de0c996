package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"intakeflow/internal/db"
	"intakeflow/internal/domain"
	"intakeflow/internal/migrate"
	"intakeflow/internal/repo"
)

func newRepo(t *testing.T) (repo.Repo, *sql.DB) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}, conn
}

func insertForm(t *testing.T, r repo.Repo, conn *sql.DB, f domain.Form) {
	t.Helper()
	ctx := context.Background()
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if err := r.InsertForm(ctx, tx, f); err != nil {
		t.Fatalf("insert %s: %v", f.ID, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestGetFormNotFound(t *testing.T) {
	r, _ := newRepo(t)
	if _, err := r.GetForm(context.Background(), "nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestLegacyStatusColumnOnly(t *testing.T) {
	r, conn := newRepo(t)
	ctx := context.Background()
	// an older build wrote only the legacy column
	_, err := conn.ExecContext(ctx,
		`INSERT INTO forms(id,form_type,title,status,created_at,updated_at) VALUES ('oud-1','intakeformulier','Oud','im_aanvullen','2024-01-01T00:00:00Z','2024-01-01T00:00:00Z')`)
	if err != nil {
		t.Fatal(err)
	}
	f, err := r.GetForm(ctx, "oud-1")
	if err != nil {
		t.Fatal(err)
	}
	if f.EffectiveStatus() != domain.StatusIMAanvullen {
		t.Fatalf("status = %s", f.EffectiveStatus())
	}

	counts, err := r.CountFormsByStatus(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.StatusIMAanvullen] != 1 {
		t.Fatalf("counts = %+v", counts)
	}

	forms, err := r.ListForms(ctx, repo.FormFilters{Status: domain.StatusIMAanvullen})
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0].ID != "oud-1" {
		t.Fatalf("filter result = %+v", forms)
	}
}

func TestListFormsFilters(t *testing.T) {
	r, conn := newRepo(t)
	ctx := context.Background()
	assigned := "ba-1"
	insertForm(t, r, conn, domain.Form{
		ID: "f1", FormType: domain.FormIntake, Title: "A",
		Status: domain.StatusKlantInvoer, KlantID: "klant-1",
		CreatedAt: "2025-01-01T00:00:00Z", UpdatedAt: "2025-01-01T00:00:00Z",
	})
	insertForm(t, r, conn, domain.Form{
		ID: "f2", FormType: domain.FormImpactanalyse, Title: "B",
		Status: domain.StatusBijBA, AssignedTo: &assigned,
		CreatedAt: "2025-01-02T00:00:00Z", UpdatedAt: "2025-01-02T00:00:00Z",
	})

	got, err := r.ListForms(ctx, repo.FormFilters{FormType: domain.FormIntake})
	if err != nil || len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("type filter = %+v, err %v", got, err)
	}
	got, err = r.ListForms(ctx, repo.FormFilters{KlantID: "klant-1"})
	if err != nil || len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("klant filter = %+v, err %v", got, err)
	}
	got, err = r.ListForms(ctx, repo.FormFilters{AssignedTo: "ba-1"})
	if err != nil || len(got) != 1 || got[0].ID != "f2" {
		t.Fatalf("assignee filter = %+v, err %v", got, err)
	}
	got, err = r.ListForms(ctx, repo.FormFilters{})
	if err != nil || len(got) != 2 {
		t.Fatalf("unfiltered = %d, err %v", len(got), err)
	}
}

func TestStatusHistoryOrder(t *testing.T) {
	r, conn := newRepo(t)
	ctx := context.Background()
	insertForm(t, r, conn, domain.Form{
		ID: "f1", FormType: domain.FormIntake, Title: "A", Status: domain.StatusDraft,
		CreatedAt: "2025-01-01T00:00:00Z", UpdatedAt: "2025-01-01T00:00:00Z",
	})
	entries := []domain.StatusChange{
		{From: domain.StatusDraft, To: domain.StatusKlantInvoer, By: "Iris", Role: domain.RoleInformatiemanager, At: "2025-01-01T10:00:00Z"},
		{From: domain.StatusKlantInvoer, To: domain.StatusIMAanvullen, By: "Kees", Role: domain.RoleKlant, At: "2025-01-01T09:00:00Z"},
	}
	for _, e := range entries {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.AppendStatusHistory(ctx, tx, "f1", e); err != nil {
			t.Fatal(err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatal(err)
		}
	}
	// insertion order wins, not timestamp order
	got, err := r.ListStatusHistory(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].To != domain.StatusKlantInvoer || got[1].To != domain.StatusIMAanvullen {
		t.Fatalf("history = %+v", got)
	}
}

func TestDeleteFormCascades(t *testing.T) {
	r, conn := newRepo(t)
	ctx := context.Background()
	insertForm(t, r, conn, domain.Form{
		ID: "f1", FormType: domain.FormIntake, Title: "A", Status: domain.StatusDraft,
		CreatedAt: "2025-01-01T00:00:00Z", UpdatedAt: "2025-01-01T00:00:00Z",
	})
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.InsertComment(ctx, tx, "f1", domain.Comment{
		ID: "c1", Type: "section", SectionID: "basisinfo", Text: "x", Status: domain.CommentOpen,
		Author: "Iris", AuthorID: "im-1", AuthorRole: domain.RoleInformatiemanager,
		CreatedAt: "2025-01-01T00:00:00Z", UpdatedAt: "2025-01-01T00:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := r.DeleteForm(ctx, "f1"); err != nil {
		t.Fatal(err)
	}
	comments, err := r.ListComments(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 0 {
		t.Fatalf("orphaned comments = %+v", comments)
	}
	if err := r.DeleteForm(ctx, "f1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestStakeholderUpsert(t *testing.T) {
	r, conn := newRepo(t)
	ctx := context.Background()
	insertForm(t, r, conn, domain.Form{
		ID: "f1", FormType: domain.FormIntake, Title: "A", Status: domain.StatusDraft,
		CreatedAt: "2025-01-01T00:00:00Z", UpdatedAt: "2025-01-01T00:00:00Z",
	})
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ReplaceStakeholders(ctx, tx, "f1", domain.DefaultStakeholders()); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	yes := true
	tx, err = conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpsertStakeholder(ctx, tx, "f1", domain.Stakeholder{
		Rol: "Architectuur", Betrokkenheid: "Adviseren", Akkoord: &yes, Feedback: "prima",
	}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	sh, err := r.GetStakeholder(ctx, "f1", "Architectuur")
	if err != nil {
		t.Fatal(err)
	}
	if sh.Akkoord == nil || !*sh.Akkoord || sh.Feedback != "prima" {
		t.Fatalf("stakeholder = %+v", sh)
	}
	list, err := r.ListStakeholders(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 9 {
		t.Fatalf("slots = %d", len(list))
	}
}
