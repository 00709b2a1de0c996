package repo

import (
	"context"
	"database/sql"

	"intakeflow/internal/domain"
)

const commentColumns = `id,parent_comment_id,type,section_id,field_path,text,status,status_changed_at,status_changed_by,status_reason,author,author_id,author_role,created_at,updated_at`

func (r Repo) InsertComment(ctx context.Context, tx *sql.Tx, formID string, c domain.Comment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO comments(form_id,`+commentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		formID, c.ID, nullableStringPtr(c.ParentCommentID), c.Type, c.SectionID, nullableStringPtr(c.FieldPath),
		c.Text, c.Status, nullableStringPtr(c.StatusChangedAt), nullableStringPtr(c.StatusChangedBy), nullableStringPtr(c.StatusReason),
		c.Author, c.AuthorID, string(c.AuthorRole), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r Repo) GetComment(ctx context.Context, formID, commentID string) (domain.Comment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE form_id=? AND id=?`, formID, commentID)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) UpdateCommentStatus(ctx context.Context, tx *sql.Tx, formID, commentID string, c domain.Comment) error {
	res, err := tx.ExecContext(ctx, `UPDATE comments SET status=?, status_changed_at=?, status_changed_by=?, status_reason=?, updated_at=? WHERE form_id=? AND id=?`,
		c.Status, nullableStringPtr(c.StatusChangedAt), nullableStringPtr(c.StatusChangedBy), nullableStringPtr(c.StatusReason), c.UpdatedAt, formID, commentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment and its direct replies.
func (r Repo) DeleteComment(ctx context.Context, tx *sql.Tx, formID, commentID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE form_id=? AND parent_comment_id=?`, formID, commentID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE form_id=? AND id=?`, formID, commentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListComments(ctx context.Context, formID string) ([]domain.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE form_id=? ORDER BY created_at ASC, id ASC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func scanComment(s rowScanner) (domain.Comment, error) {
	var c domain.Comment
	var parentID, fieldPath, statusChangedAt, statusChangedBy, statusReason sql.NullString
	var role string
	err := s.Scan(&c.ID, &parentID, &c.Type, &c.SectionID, &fieldPath, &c.Text, &c.Status,
		&statusChangedAt, &statusChangedBy, &statusReason, &c.Author, &c.AuthorID, &role, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.AuthorRole = domain.Role(role)
	if parentID.Valid {
		c.ParentCommentID = &parentID.String
	}
	if fieldPath.Valid {
		c.FieldPath = &fieldPath.String
	}
	if statusChangedAt.Valid {
		c.StatusChangedAt = &statusChangedAt.String
	}
	if statusChangedBy.Valid {
		c.StatusChangedBy = &statusChangedBy.String
	}
	if statusReason.Valid {
		c.StatusReason = &statusReason.String
	}
	return c, nil
}

const trackChangeColumns = `id,field_path,change_type,original_value,new_value,status,author,author_role,created_at,reviewed_at,reviewed_by`

func (r Repo) InsertTrackChange(ctx context.Context, tx *sql.Tx, formID string, tc domain.TrackChange) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO track_changes(form_id,`+trackChangeColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		formID, tc.ID, tc.FieldPath, tc.ChangeType, tc.OriginalValue, tc.NewValue, tc.Status,
		tc.Author, string(tc.AuthorRole), tc.CreatedAt, nullableStringPtr(tc.ReviewedAt), nullableStringPtr(tc.ReviewedBy))
	return err
}

func (r Repo) GetTrackChange(ctx context.Context, formID, changeID string) (domain.TrackChange, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+trackChangeColumns+` FROM track_changes WHERE form_id=? AND id=?`, formID, changeID)
	tc, err := scanTrackChange(row)
	if err == sql.ErrNoRows {
		return tc, ErrNotFound
	}
	return tc, err
}

func (r Repo) UpdateTrackChangeReview(ctx context.Context, tx *sql.Tx, formID, changeID, status, reviewedAt, reviewedBy string) error {
	res, err := tx.ExecContext(ctx, `UPDATE track_changes SET status=?, reviewed_at=?, reviewed_by=? WHERE form_id=? AND id=?`,
		status, reviewedAt, reviewedBy, formID, changeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListTrackChanges(ctx context.Context, formID string) ([]domain.TrackChange, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+trackChangeColumns+` FROM track_changes WHERE form_id=? ORDER BY created_at ASC, id ASC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TrackChange
	for rows.Next() {
		tc, err := scanTrackChange(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, tc)
	}
	return res, rows.Err()
}

func scanTrackChange(s rowScanner) (domain.TrackChange, error) {
	var tc domain.TrackChange
	var role string
	var reviewedAt, reviewedBy sql.NullString
	err := s.Scan(&tc.ID, &tc.FieldPath, &tc.ChangeType, &tc.OriginalValue, &tc.NewValue, &tc.Status,
		&tc.Author, &role, &tc.CreatedAt, &reviewedAt, &reviewedBy)
	if err != nil {
		return tc, err
	}
	tc.AuthorRole = domain.Role(role)
	if reviewedAt.Valid {
		tc.ReviewedAt = &reviewedAt.String
	}
	if reviewedBy.Valid {
		tc.ReviewedBy = &reviewedBy.String
	}
	return tc, nil
}
