package repository

import (
	"context"
	"database/sql"
	"fmt"

	"smartcharger/internal/models"
)

// NoticeRepository handles persistence of warning notices.
type NoticeRepository struct {
	db *sql.DB
}

// NewNoticeRepository returns repository.
func NewNoticeRepository(db *sql.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

const noticeColumns = `id, user_id, charging_pile_id, charging_record_id, type, content, overtime_minutes, is_read, send_status, created_time`

func scanNotice(row interface{ Scan(...any) error }) (*models.WarningNotice, error) {
	var n models.WarningNotice
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.ChargingPileID,
		&n.ChargingRecordID,
		&n.Type,
		&n.Content,
		&n.OvertimeMinutes,
		&n.Read,
		&n.SendStatus,
		&n.CreatedTime,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a notice and fills generated fields.
func (r *NoticeRepository) Create(ctx context.Context, n *models.WarningNotice) error {
	const query = `
		INSERT INTO warning_notices (user_id, charging_pile_id, charging_record_id, type, content, overtime_minutes, is_read, send_status, created_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_time
	`
	return r.db.QueryRowContext(ctx, query,
		n.UserID,
		n.ChargingPileID,
		n.ChargingRecordID,
		n.Type,
		n.Content,
		n.OvertimeMinutes,
		n.Read,
		n.SendStatus,
	).Scan(&n.ID, &n.CreatedTime)
}

// ExistsForRecord reports whether a notice of the given type was already
// created for the charging record. This is what keeps overtime warnings
// idempotent across sweeps.
func (r *NoticeRepository) ExistsForRecord(ctx context.Context, recordID int64, noticeType models.NoticeType) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM warning_notices
			WHERE charging_record_id = $1 AND type = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, recordID, noticeType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns the user's notices, newest first.
func (r *NoticeRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.WarningNotice, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM warning_notices WHERE user_id = $1`, noticeColumns)
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_time DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WarningNotice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread returns the user's unread notice count.
func (r *NoticeRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM warning_notices WHERE user_id = $1 AND is_read = false`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks one of the user's notices as read.
func (r *NoticeRepository) MarkRead(ctx context.Context, id, userID int64) error {
	const query = `UPDATE warning_notices SET is_read = true WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead marks every notice of the user as read.
func (r *NoticeRepository) MarkAllRead(ctx context.Context, userID int64) error {
	const query = `UPDATE warning_notices SET is_read = true WHERE user_id = $1 AND is_read = false`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// Delete removes one of the user's notices.
func (r *NoticeRepository) Delete(ctx context.Context, id, userID int64) error {
	const query = `DELETE FROM warning_notices WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
