package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"intakeflow/internal/domain"
)

// ExportJSON serialises a form with its full history for backup and
// transfer. Both status fields carry the canonical value in the output.
func (e Engine) ExportJSON(ctx context.Context, formID string) ([]byte, error) {
	form, err := e.Repo.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(form, "", "  ")
}

// ImportJSON restores a previously exported form as a new record: the
// id is regenerated so imports never collide with existing forms, and
// the status history, feedback and stakeholder verdicts are preserved
// verbatim. The effective status is whatever the export carried.
func (e Engine) ImportJSON(ctx context.Context, data []byte, actor domain.User) (domain.Form, error) {
	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return domain.Form{}, MalformedImportError{Reason: "ongeldige JSON", Err: err}
	}
	if !form.FormType.Valid() {
		return domain.Form{}, MalformedImportError{Reason: "onbekend formuliertype " + string(form.FormType)}
	}
	if form.Title == "" {
		return domain.Form{}, MalformedImportError{Reason: "titel ontbreekt"}
	}

	now := e.now().UTC().Format(time.RFC3339)
	form.ID = uuid.New().String()
	form.ImportedAt = &now
	form.UpdatedAt = now
	if form.CreatedAt == "" {
		form.CreatedAt = now
	}
	if form.Eigenaar == "" {
		form.Eigenaar = actor.ID
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Form{}, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.InsertForm(ctx, tx, form); err != nil {
		return domain.Form{}, PersistenceError{Op: "insert form", Err: err}
	}
	if err := e.Repo.InsertStatusHistoryBatch(ctx, tx, form.ID, form.StatusHistory); err != nil {
		return domain.Form{}, PersistenceError{Op: "insert history", Err: err}
	}
	for _, c := range form.Comments {
		if err := e.Repo.InsertComment(ctx, tx, form.ID, c); err != nil {
			return domain.Form{}, PersistenceError{Op: "insert comment", Err: err}
		}
	}
	for _, tc := range form.TrackChanges {
		if err := e.Repo.InsertTrackChange(ctx, tx, form.ID, tc); err != nil {
			return domain.Form{}, PersistenceError{Op: "insert change", Err: err}
		}
	}
	if len(form.Stakeholders) > 0 {
		if err := e.Repo.ReplaceStakeholders(ctx, tx, form.ID, form.Stakeholders); err != nil {
			return domain.Form{}, PersistenceError{Op: "insert stakeholders", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Form{}, PersistenceError{Op: "commit", Err: err}
	}
	return form, nil
}
