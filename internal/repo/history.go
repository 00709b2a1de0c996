package repo

import (
	"context"
	"database/sql"

	"intakeflow/internal/domain"
)

// AppendStatusHistory inserts one audit entry. It runs in the caller's
// transaction so the entry and the form's status columns commit together.
func (r Repo) AppendStatusHistory(ctx context.Context, tx *sql.Tx, formID string, c domain.StatusChange) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO status_history(form_id,from_status,to_status,by_name,by_id,role,at,reason,route_type) VALUES (?,?,?,?,?,?,?,?,?)`,
		formID, string(c.From), string(c.To), c.By, c.ByID, string(c.Role), c.At,
		nullableStringPtr(c.Reason), nullableRoutePtr(c.RouteType))
	return err
}

// ListStatusHistory returns entries in insertion order.
func (r Repo) ListStatusHistory(ctx context.Context, formID string) ([]domain.StatusChange, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT from_status,to_status,by_name,by_id,role,at,reason,route_type FROM status_history WHERE form_id=? ORDER BY id ASC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		var from, to, role string
		var reason, routeType sql.NullString
		if err := rows.Scan(&from, &to, &c.By, &c.ByID, &role, &c.At, &reason, &routeType); err != nil {
			return nil, err
		}
		c.From = domain.Status(from)
		c.To = domain.Status(to)
		c.Role = domain.Role(role)
		if reason.Valid {
			c.Reason = &reason.String
		}
		if routeType.Valid {
			rt := domain.RouteType(routeType.String)
			c.RouteType = &rt
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// InsertStatusHistoryBatch restores imported history verbatim.
func (r Repo) InsertStatusHistoryBatch(ctx context.Context, tx *sql.Tx, formID string, entries []domain.StatusChange) error {
	for _, c := range entries {
		if err := r.AppendStatusHistory(ctx, tx, formID, c); err != nil {
			return err
		}
	}
	return nil
}
