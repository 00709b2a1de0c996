package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"intakeflow/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const formColumns = `id,form_type,title,status,intake_status,klant_id,klant_naam,klant_token,eigenaar,assigned_to,route_type,sections_json,created_at,updated_at,imported_at`

func (r Repo) InsertForm(ctx context.Context, tx *sql.Tx, f domain.Form) error {
	sections, err := marshalSections(f.Sections)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO forms(`+formColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.ID, string(f.FormType), f.Title, string(f.Status), string(f.Status),
		nullable(f.KlantID), nullable(f.KlantNaam), nullable(f.KlantToken), nullable(f.Eigenaar),
		nullableStringPtr(f.AssignedTo), nullableRoutePtr(f.RouteType), sections,
		f.CreatedAt, f.UpdatedAt, nullableStringPtr(f.ImportedAt))
	return err
}

// UpdateForm writes the form's core columns. The two status columns are
// always written together so legacy readers stay consistent.
func (r Repo) UpdateForm(ctx context.Context, tx *sql.Tx, f domain.Form) error {
	sections, err := marshalSections(f.Sections)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE forms SET title=?, status=?, intake_status=?, klant_id=?, klant_naam=?, klant_token=?, eigenaar=?, assigned_to=?, route_type=?, sections_json=?, updated_at=? WHERE id=?`,
		f.Title, string(f.Status), string(f.Status),
		nullable(f.KlantID), nullable(f.KlantNaam), nullable(f.KlantToken), nullable(f.Eigenaar),
		nullableStringPtr(f.AssignedTo), nullableRoutePtr(f.RouteType), sections,
		f.UpdatedAt, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetForm(ctx context.Context, id string) (domain.Form, error) {
	f, err := scanForm(r.DB.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE id=?`, id))
	if err != nil {
		return f, err
	}
	return r.hydrate(ctx, f)
}

// GetFormByKlantToken resolves a client bearer token to its form.
func (r Repo) GetFormByKlantToken(ctx context.Context, token string) (domain.Form, error) {
	if token == "" {
		return domain.Form{}, ErrNotFound
	}
	f, err := scanForm(r.DB.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE klant_token=?`, token))
	if err != nil {
		return f, err
	}
	return r.hydrate(ctx, f)
}

func (r Repo) hydrate(ctx context.Context, f domain.Form) (domain.Form, error) {
	history, err := r.ListStatusHistory(ctx, f.ID)
	if err != nil {
		return f, err
	}
	f.StatusHistory = history
	comments, err := r.ListComments(ctx, f.ID)
	if err != nil {
		return f, err
	}
	f.Comments = comments
	changes, err := r.ListTrackChanges(ctx, f.ID)
	if err != nil {
		return f, err
	}
	f.TrackChanges = changes
	stakeholders, err := r.ListStakeholders(ctx, f.ID)
	if err != nil {
		return f, err
	}
	f.Stakeholders = stakeholders
	return f, nil
}

type FormFilters struct {
	FormType   domain.FormType
	Status     domain.Status
	KlantID    string
	AssignedTo string
}

// ListForms returns core form rows. Child collections are loaded by
// GetForm; the history needed for workqueue durations comes with it.
func (r Repo) ListForms(ctx context.Context, f FormFilters) ([]domain.Form, error) {
	var clauses []string
	var args []any
	if f.FormType != "" {
		clauses = append(clauses, "form_type=?")
		args = append(args, string(f.FormType))
	}
	if f.Status != "" {
		clauses = append(clauses, "COALESCE(intake_status,status)=?")
		args = append(args, string(f.Status))
	}
	if f.KlantID != "" {
		clauses = append(clauses, "klant_id=?")
		args = append(args, f.KlantID)
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "assigned_to=?")
		args = append(args, f.AssignedTo)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+formColumns+` FROM forms `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Form
	for rows.Next() {
		form, err := scanFormRows(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, form)
	}
	return res, rows.Err()
}

// TouchForm bumps updated_at without rewriting the other columns.
func (r Repo) TouchForm(ctx context.Context, tx *sql.Tx, id, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE forms SET updated_at=? WHERE id=?`, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteForm(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM forms WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountFormsByStatus groups on the effective status so legacy rows that
// only filled the old column count correctly.
func (r Repo) CountFormsByStatus(ctx context.Context, formType domain.FormType) (map[domain.Status]int, error) {
	query := `SELECT COALESCE(intake_status,status,'draft'), count(*) FROM forms`
	var args []any
	if formType != "" {
		query += ` WHERE form_type=?`
		args = append(args, string(formType))
	}
	query += ` GROUP BY 1`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[domain.Status]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[domain.Status(status)] = count
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row *sql.Row) (domain.Form, error) {
	f, err := scanFormFrom(row)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

func scanFormRows(rows *sql.Rows) (domain.Form, error) {
	return scanFormFrom(rows)
}

func scanFormFrom(s rowScanner) (domain.Form, error) {
	var f domain.Form
	var formType, legacyStatus string
	var intakeStatus, klantID, klantNaam, klantToken, eigenaar, assignedTo, routeType, sections, importedAt sql.NullString
	err := s.Scan(&f.ID, &formType, &f.Title, &legacyStatus, &intakeStatus,
		&klantID, &klantNaam, &klantToken, &eigenaar, &assignedTo, &routeType, &sections,
		&f.CreatedAt, &f.UpdatedAt, &importedAt)
	if err != nil {
		return f, err
	}
	f.FormType = domain.FormType(formType)
	f.Status = domain.NormalizeStatus(domain.Status(intakeStatus.String), domain.Status(legacyStatus))
	if klantID.Valid {
		f.KlantID = klantID.String
	}
	if klantNaam.Valid {
		f.KlantNaam = klantNaam.String
	}
	if klantToken.Valid {
		f.KlantToken = klantToken.String
	}
	if eigenaar.Valid {
		f.Eigenaar = eigenaar.String
	}
	if assignedTo.Valid {
		f.AssignedTo = &assignedTo.String
	}
	if routeType.Valid {
		rt := domain.RouteType(routeType.String)
		f.RouteType = &rt
	}
	if sections.Valid && sections.String != "" {
		if err := json.Unmarshal([]byte(sections.String), &f.Sections); err != nil {
			return f, fmt.Errorf("sections of form %s: %w", f.ID, err)
		}
	}
	if importedAt.Valid {
		f.ImportedAt = &importedAt.String
	}
	return f, nil
}

func marshalSections(sections map[string]any) (any, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	return string(b), nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableRoutePtr(v *domain.RouteType) any {
	if v == nil || *v == "" {
		return nil
	}
	return string(*v)
}

func nullableBoolPtr(v *bool) any {
	if v == nil {
		return nil
	}
	if *v {
		return 1
	}
	return 0
}
