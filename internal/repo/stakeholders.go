package repo

import (
	"context"
	"database/sql"

	"intakeflow/internal/domain"
)

func (r Repo) ReplaceStakeholders(ctx context.Context, tx *sql.Tx, formID string, list []domain.Stakeholder) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stakeholders WHERE form_id=?`, formID); err != nil {
		return err
	}
	for _, sh := range list {
		if err := r.upsertStakeholder(ctx, tx, formID, sh); err != nil {
			return err
		}
	}
	return nil
}

// UpsertStakeholder writes one reviewer slot keyed by (form, rol).
func (r Repo) UpsertStakeholder(ctx context.Context, tx *sql.Tx, formID string, sh domain.Stakeholder) error {
	return r.upsertStakeholder(ctx, tx, formID, sh)
}

func (r Repo) upsertStakeholder(ctx context.Context, tx *sql.Tx, formID string, sh domain.Stakeholder) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO stakeholders(form_id,rol,persoon_id,naam,email,betrokkenheid,geinformeerd,akkoord,feedback) VALUES (?,?,?,?,?,?,?,?,?)
ON CONFLICT(form_id,rol) DO UPDATE SET persoon_id=excluded.persoon_id, naam=excluded.naam, email=excluded.email, betrokkenheid=excluded.betrokkenheid, geinformeerd=excluded.geinformeerd, akkoord=excluded.akkoord, feedback=excluded.feedback`,
		formID, sh.Rol, sh.PersoonID, sh.Naam, sh.Email, sh.Betrokkenheid, boolToInt(sh.Geinformeerd), nullableBoolPtr(sh.Akkoord), sh.Feedback)
	return err
}

func (r Repo) GetStakeholder(ctx context.Context, formID, rol string) (domain.Stakeholder, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT rol,persoon_id,naam,email,betrokkenheid,geinformeerd,akkoord,feedback FROM stakeholders WHERE form_id=? AND rol=?`, formID, rol)
	sh, err := scanStakeholder(row)
	if err == sql.ErrNoRows {
		return sh, ErrNotFound
	}
	return sh, err
}

func (r Repo) ListStakeholders(ctx context.Context, formID string) ([]domain.Stakeholder, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT rol,persoon_id,naam,email,betrokkenheid,geinformeerd,akkoord,feedback FROM stakeholders WHERE form_id=? ORDER BY rowid ASC`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Stakeholder
	for rows.Next() {
		sh, err := scanStakeholder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, sh)
	}
	return res, rows.Err()
}

func scanStakeholder(s rowScanner) (domain.Stakeholder, error) {
	var sh domain.Stakeholder
	var geinformeerd int
	var akkoord sql.NullInt64
	err := s.Scan(&sh.Rol, &sh.PersoonID, &sh.Naam, &sh.Email, &sh.Betrokkenheid, &geinformeerd, &akkoord, &sh.Feedback)
	if err != nil {
		return sh, err
	}
	sh.Geinformeerd = geinformeerd != 0
	if akkoord.Valid {
		v := akkoord.Int64 != 0
		sh.Akkoord = &v
	}
	return sh, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
