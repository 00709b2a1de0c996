package workflow

import (
	"context"
	"time"

	"intakeflow/internal/domain"
)

// AdviceInput is a stakeholder's verdict on a form. Akkoord nil clears a
// previous verdict back to undecided.
type AdviceInput struct {
	Akkoord  *bool
	Feedback string
}

// SetStakeholderAdvice records advice for the named stakeholder slot.
// Advice is accepted in any status: archiving does not require a
// unanimous akkoord, so late or missing verdicts never block the flow.
func (e Engine) SetStakeholderAdvice(ctx context.Context, formID, rol string, in AdviceInput, actor domain.User) (domain.Stakeholder, error) {
	sh, err := e.Repo.GetStakeholder(ctx, formID, rol)
	if err != nil {
		return domain.Stakeholder{}, err
	}
	sh.Akkoord = in.Akkoord
	sh.Feedback = in.Feedback
	if sh.PersoonID == "" {
		sh.PersoonID = actor.ID
		sh.Naam = actor.Name
	}
	return sh, e.saveStakeholder(ctx, formID, sh)
}

// MarkStakeholderInformed flags an Informeren-slot as having been told.
func (e Engine) MarkStakeholderInformed(ctx context.Context, formID, rol string) (domain.Stakeholder, error) {
	sh, err := e.Repo.GetStakeholder(ctx, formID, rol)
	if err != nil {
		return domain.Stakeholder{}, err
	}
	sh.Geinformeerd = true
	return sh, e.saveStakeholder(ctx, formID, sh)
}

// AssignStakeholder binds a directory person to a reviewer slot.
func (e Engine) AssignStakeholder(ctx context.Context, formID, rol string, persoonID, naam, email string) (domain.Stakeholder, error) {
	sh, err := e.Repo.GetStakeholder(ctx, formID, rol)
	if err != nil {
		return domain.Stakeholder{}, err
	}
	sh.PersoonID = persoonID
	sh.Naam = naam
	sh.Email = email
	return sh, e.saveStakeholder(ctx, formID, sh)
}

func (e Engine) saveStakeholder(ctx context.Context, formID string, sh domain.Stakeholder) error {
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertStakeholder(ctx, tx, formID, sh); err != nil {
		return PersistenceError{Op: "upsert stakeholder", Err: err}
	}
	if err := e.Repo.TouchForm(ctx, tx, formID, now); err != nil {
		return PersistenceError{Op: "touch form", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return PersistenceError{Op: "commit", Err: err}
	}
	return nil
}
