package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intakeflow/internal/domain"
	"intakeflow/internal/notify"
	"intakeflow/internal/perms"
)

// CommentInput are the caller-supplied fields of a new comment or reply.
type CommentInput struct {
	ParentCommentID string
	Type            string
	SectionID       string
	FieldPath       string
	Text            string
}

// AddComment places a comment or reply on a form. Replies require the
// reply capability, top-level comments the create capability.
func (e Engine) AddComment(ctx context.Context, formID string, in CommentInput, actor domain.User) (domain.Comment, []notify.Intent, error) {
	caps := perms.CapabilitiesFor(actor.Role)
	if in.ParentCommentID != "" {
		if !caps.CanReply {
			return domain.Comment{}, nil, PermissionDeniedError{Capability: "canReply", Role: actor.Role}
		}
	} else if !caps.CanCreateComment {
		return domain.Comment{}, nil, PermissionDeniedError{Capability: "canCreateComment", Role: actor.Role}
	}

	form, err := e.Repo.GetForm(ctx, formID)
	if err != nil {
		return domain.Comment{}, nil, err
	}
	if in.ParentCommentID != "" {
		if _, err := e.Repo.GetComment(ctx, formID, in.ParentCommentID); err != nil {
			return domain.Comment{}, nil, err
		}
	}

	now := e.now().UTC().Format(time.RFC3339)
	c := domain.Comment{
		ID:         uuid.New().String(),
		Type:       in.Type,
		SectionID:  in.SectionID,
		Text:       in.Text,
		Status:     domain.CommentOpen,
		Author:     actor.Name,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.Type == "" {
		c.Type = "section"
	}
	if in.ParentCommentID != "" {
		c.ParentCommentID = &in.ParentCommentID
	}
	if in.FieldPath != "" {
		c.FieldPath = &in.FieldPath
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.InsertComment(ctx, tx, formID, c); err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "insert comment", Err: err}
	}
	if err := e.Repo.TouchForm(ctx, tx, formID, now); err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "touch form", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "commit", Err: err}
	}

	var intents []notify.Intent
	if form.Eigenaar != "" && form.Eigenaar != actor.ID {
		excerpt := c.Text
		if len(excerpt) > 50 {
			excerpt = excerpt[:50]
		}
		intents = append(intents, notify.Target(notify.CommentAdded, form.Eigenaar, notify.Data{
			FormID:     form.ID,
			FormType:   string(form.FormType),
			FormTitle:  displayTitle(form),
			SenderID:   actor.ID,
			SenderName: actor.Name,
			Message:    fmt.Sprintf("%s heeft een opmerking geplaatst: %q", actor.Name, excerpt),
		}))
	}
	return c, intents, nil
}

// SetCommentStatus moves a comment between open, verwerkt and afgewezen.
// Each target status is gated by its own capability.
func (e Engine) SetCommentStatus(ctx context.Context, formID, commentID, newStatus, reason string, actor domain.User) (domain.Comment, []notify.Intent, error) {
	caps := perms.CapabilitiesFor(actor.Role)
	switch newStatus {
	case domain.CommentVerwerkt:
		if !caps.CanResolve {
			return domain.Comment{}, nil, PermissionDeniedError{Capability: "canResolve", Role: actor.Role}
		}
	case domain.CommentAfgewezen:
		if !caps.CanReject {
			return domain.Comment{}, nil, PermissionDeniedError{Capability: "canReject", Role: actor.Role}
		}
	case domain.CommentOpen:
		if !caps.CanReopen {
			return domain.Comment{}, nil, PermissionDeniedError{Capability: "canReopen", Role: actor.Role}
		}
	default:
		return domain.Comment{}, nil, fmt.Errorf("onbekende opmerkingstatus %q", newStatus)
	}

	form, err := e.Repo.GetForm(ctx, formID)
	if err != nil {
		return domain.Comment{}, nil, err
	}
	c, err := e.Repo.GetComment(ctx, formID, commentID)
	if err != nil {
		return domain.Comment{}, nil, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	c.Status = newStatus
	c.StatusChangedAt = &now
	c.StatusChangedBy = &actor.Name
	c.UpdatedAt = now
	if reason != "" {
		c.StatusReason = &reason
	} else {
		c.StatusReason = nil
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateCommentStatus(ctx, tx, formID, commentID, c); err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "update comment", Err: err}
	}
	if err := e.Repo.TouchForm(ctx, tx, formID, now); err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "touch form", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.Comment{}, nil, PersistenceError{Op: "commit", Err: err}
	}

	var intents []notify.Intent
	if newStatus == domain.CommentVerwerkt && c.AuthorID != "" && c.AuthorID != actor.ID {
		intents = append(intents, notify.Target(notify.CommentResolved, c.AuthorID, notify.Data{
			FormID:     form.ID,
			FormType:   string(form.FormType),
			FormTitle:  displayTitle(form),
			SenderID:   actor.ID,
			SenderName: actor.Name,
			Message:    fmt.Sprintf("%s heeft je opmerking verwerkt", actor.Name),
		}))
	}
	return c, intents, nil
}

// DeleteComment removes a comment and its direct replies. Authors may
// delete their own; deleting someone else's needs the all-comments right.
func (e Engine) DeleteComment(ctx context.Context, formID, commentID string, actor domain.User) error {
	c, err := e.Repo.GetComment(ctx, formID, commentID)
	if err != nil {
		return err
	}
	caps := perms.CapabilitiesFor(actor.Role)
	if c.AuthorID == actor.ID {
		if !caps.CanDeleteOwnComments {
			return PermissionDeniedError{Capability: "canDeleteOwnComments", Role: actor.Role}
		}
	} else if !caps.CanDeleteAllComments {
		return PermissionDeniedError{Capability: "canDeleteAllComments", Role: actor.Role}
	}

	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteComment(ctx, tx, formID, commentID); err != nil {
		return PersistenceError{Op: "delete comment", Err: err}
	}
	if err := e.Repo.TouchForm(ctx, tx, formID, now); err != nil {
		return PersistenceError{Op: "touch form", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

// ChangeInput are the caller-supplied fields of a proposed text change.
type ChangeInput struct {
	FieldPath     string
	ChangeType    string
	OriginalValue string
	NewValue      string
}

// ProposeChange records a tracked edit awaiting review.
func (e Engine) ProposeChange(ctx context.Context, formID string, in ChangeInput, actor domain.User) (domain.TrackChange, error) {
	if !perms.CapabilitiesFor(actor.Role).CanMakeChanges {
		return domain.TrackChange{}, PermissionDeniedError{Capability: "canMakeChanges", Role: actor.Role}
	}
	if _, err := e.Repo.GetForm(ctx, formID); err != nil {
		return domain.TrackChange{}, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	tc := domain.TrackChange{
		ID:            uuid.New().String(),
		FieldPath:     in.FieldPath,
		ChangeType:    in.ChangeType,
		OriginalValue: in.OriginalValue,
		NewValue:      in.NewValue,
		Status:        domain.ChangePending,
		Author:        actor.Name,
		AuthorRole:    actor.Role,
		CreatedAt:     now,
	}
	if tc.ChangeType == "" {
		tc.ChangeType = "replace"
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTrackChange(ctx, tx, formID, tc); err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "insert change", Err: err}
	}
	if err := e.Repo.TouchForm(ctx, tx, formID, now); err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "touch form", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "commit", Err: err}
	}
	return tc, nil
}

// ReviewChange accepts or rejects a pending tracked edit.
func (e Engine) ReviewChange(ctx context.Context, formID, changeID, verdict string, actor domain.User) (domain.TrackChange, error) {
	caps := perms.CapabilitiesFor(actor.Role)
	switch verdict {
	case domain.ChangeAccepted:
		if !caps.CanAcceptChanges {
			return domain.TrackChange{}, PermissionDeniedError{Capability: "canAcceptChanges", Role: actor.Role}
		}
	case domain.ChangeRejected:
		if !caps.CanRejectChanges {
			return domain.TrackChange{}, PermissionDeniedError{Capability: "canRejectChanges", Role: actor.Role}
		}
	default:
		return domain.TrackChange{}, fmt.Errorf("onbekend oordeel %q", verdict)
	}

	tc, err := e.Repo.GetTrackChange(ctx, formID, changeID)
	if err != nil {
		return domain.TrackChange{}, err
	}
	if tc.Status != domain.ChangePending {
		return domain.TrackChange{}, fmt.Errorf("wijziging %s is al beoordeeld (%s)", changeID, tc.Status)
	}

	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTrackChangeReview(ctx, tx, formID, changeID, verdict, now, actor.Name); err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "update change", Err: err}
	}
	if err := e.Repo.TouchForm(ctx, tx, formID, now); err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "touch form", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.TrackChange{}, PersistenceError{Op: "commit", Err: err}
	}

	tc.Status = verdict
	tc.ReviewedAt = &now
	tc.ReviewedBy = &actor.Name
	return tc, nil
}
