package notify_test

import (
	"context"
	"testing"
	"time"

	"intakeflow/internal/db"
	"intakeflow/internal/migrate"
	"intakeflow/internal/notify"
)

func newService(t *testing.T) (notify.Service, *time.Time) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := notify.Service{DB: conn, Now: func() time.Time { return now }}
	return svc, &now
}

func TestCreateUsesTemplateWhenNoMessage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	n, err := svc.Create(ctx, notify.IntakeShared, notify.Data{FormID: "f1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "Nieuwe intake gedeeld" || n.Message == "" || n.Icon != "share" {
		t.Fatalf("notification = %+v", n)
	}

	n, err = svc.Create(ctx, notify.IntakeShared, notify.Data{Message: "eigen tekst"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n.Message != "eigen tekst" {
		t.Fatalf("message = %s", n.Message)
	}
}

func TestListTargetedAndBroadcast(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := "im-1"
	other := "ba-1"
	if _, err := svc.Create(ctx, notify.IntakeSubmitted, notify.Data{}, &user); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, notify.RoutedToBA, notify.Data{}, &other); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, notify.IntakeArchived, notify.Data{}, nil); err != nil {
		t.Fatal(err)
	}

	items, err := svc.List(ctx, user, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("visible to %s: %d", user, len(items))
	}
	for _, n := range items {
		if n.TargetUserID != nil && *n.TargetUserID != user {
			t.Fatalf("leaked notification %+v", n)
		}
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := "im-1"
	n1, err := svc.Create(ctx, notify.IntakeSubmitted, notify.Data{}, &user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, notify.IntakeArchived, notify.Data{}, nil); err != nil {
		t.Fatal(err)
	}

	count, err := svc.CountUnread(ctx, user)
	if err != nil || count != 2 {
		t.Fatalf("unread = %d, err %v", count, err)
	}
	if err := svc.MarkRead(ctx, n1.ID); err != nil {
		t.Fatal(err)
	}
	count, err = svc.CountUnread(ctx, user)
	if err != nil || count != 1 {
		t.Fatalf("unread after read = %d, err %v", count, err)
	}

	unread, err := svc.List(ctx, user, true)
	if err != nil || len(unread) != 1 {
		t.Fatalf("unread list = %+v, err %v", unread, err)
	}

	if err := svc.MarkAllRead(ctx, user); err != nil {
		t.Fatal(err)
	}
	count, err = svc.CountUnread(ctx, user)
	if err != nil || count != 0 {
		t.Fatalf("unread after read-all = %d, err %v", count, err)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, notify.IntakeArchived, notify.Data{}, nil); err != nil {
		t.Fatal(err)
	}
	*clock = clock.AddDate(0, 0, 40)
	if _, err := svc.Create(ctx, notify.IntakeArchived, notify.Data{}, nil); err != nil {
		t.Fatal(err)
	}

	removed, err := svc.CleanupOlderThan(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	items, err := svc.List(ctx, "", false)
	if err != nil || len(items) != 1 {
		t.Fatalf("remaining = %d, err %v", len(items), err)
	}
}

func TestDispatchDropsFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	target := "im-1"
	// a duplicate id cannot happen through Create, so just verify a full
	// batch lands
	svc.Dispatch(ctx, []notify.Intent{
		notify.Target(notify.IntakeShared, target, notify.Data{FormID: "f1"}),
		notify.Broadcast(notify.IntakeArchived, notify.Data{FormID: "f1"}),
	})
	items, err := svc.List(ctx, target, false)
	if err != nil || len(items) != 2 {
		t.Fatalf("dispatched = %d, err %v", len(items), err)
	}
}
