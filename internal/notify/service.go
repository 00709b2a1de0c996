package notify

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"

	"intakeflow/internal/domain"
)

// Service stores and queries notifications.
type Service struct {
	DB     *sql.DB
	Logger *log.Logger
	Now    func() time.Time
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Service) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// Create persists one notification. A nil target means broadcast.
func (s Service) Create(ctx context.Context, t Type, data Data, targetUserID *string) (domain.Notification, error) {
	tpl := TemplateFor(t)
	message := data.Message
	if message == "" {
		message = tpl.Message
	}
	n := domain.Notification{
		ID:           uuid.New().String(),
		Type:         string(t),
		Title:        tpl.Title,
		Message:      message,
		Icon:         tpl.Icon,
		Color:        tpl.Color,
		TargetUserID: targetUserID,
		FormID:       data.FormID,
		FormType:     data.FormType,
		FormTitle:    data.FormTitle,
		SenderID:     data.SenderID,
		SenderName:   data.SenderName,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	var target any
	if targetUserID != nil && *targetUserID != "" {
		target = *targetUserID
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO notifications(id,type,title,message,icon,color,target_user_id,form_id,form_type,form_title,sender_name,sender_id,is_read,created_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,0,?)`,
		n.ID, n.Type, n.Title, n.Message, n.Icon, n.Color, target,
		emptyToNil(n.FormID), emptyToNil(n.FormType), emptyToNil(n.FormTitle),
		emptyToNil(n.SenderName), emptyToNil(n.SenderID), n.CreatedAt)
	return n, err
}

// Dispatch delivers a batch of intents. Failures are logged and dropped;
// the workflow's correctness never depends on delivery.
func (s Service) Dispatch(ctx context.Context, intents []Intent) {
	for _, in := range intents {
		if _, err := s.Create(ctx, in.Type, in.Data, in.TargetUserID); err != nil {
			s.logger().Printf("notify: drop %s for form %s: %v", in.Type, in.Data.FormID, err)
		}
	}
}

// List returns notifications visible to a user: targeted plus broadcast,
// newest first. Empty userID lists everything.
func (s Service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT id,type,title,message,icon,color,target_user_id,form_id,form_type,form_title,sender_name,sender_id,is_read,created_at,read_at FROM notifications`
	var clauses []string
	var args []any
	if userID != "" {
		clauses = append(clauses, `(target_user_id=? OR target_user_id IS NULL)`)
		args = append(args, userID)
	}
	if unreadOnly {
		clauses = append(clauses, `is_read=0`)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var target, formID, formType, formTitle, senderName, senderID, readAt sql.NullString
		var isRead int
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Icon, &n.Color, &target,
			&formID, &formType, &formTitle, &senderName, &senderID, &isRead, &n.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if target.Valid {
			n.TargetUserID = &target.String
		}
		n.FormID = formID.String
		n.FormType = formType.String
		n.FormTitle = formTitle.String
		n.SenderName = senderName.String
		n.SenderID = senderID.String
		n.IsRead = isRead != 0
		if readAt.Valid {
			n.ReadAt = &readAt.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

// CountUnread counts targeted plus broadcast unread notifications.
func (s Service) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `SELECT count(*) FROM notifications WHERE is_read=0`
	var args []any
	if userID != "" {
		query += ` AND (target_user_id=? OR target_user_id IS NULL)`
		args = append(args, userID)
	}
	var n int
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (s Service) MarkRead(ctx context.Context, id string) error {
	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read=1, read_at=? WHERE id=? AND is_read=0`, now, id)
	return err
}

func (s Service) MarkAllRead(ctx context.Context, userID string) error {
	now := s.now().UTC().Format(time.RFC3339)
	query := `UPDATE notifications SET is_read=1, read_at=? WHERE is_read=0`
	args := []any{now}
	if userID != "" {
		query += ` AND (target_user_id=? OR target_user_id IS NULL)`
		args = append(args, userID)
	}
	_, err := s.DB.ExecContext(ctx, query, args...)
	return err
}

func (s Service) Delete(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM notifications WHERE id=?`, id)
	return err
}

// CleanupOlderThan drops notifications past the retention window and
// returns how many were removed.
func (s Service) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	res, err := s.DB.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func emptyToNil(v string) any {
	if v == "" {
		return nil
	}
	return v
}
