package sqlite

import (
	"context"
	"encoding/json"

	"airdrophub-backend/internal/models"
)

func (s *Store) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	if err := s.ready(); err != nil {
		return err
	}
	details := "{}"
	if len(e.Details) > 0 {
		details = string(e.Details)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = timeNow()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_type, target_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ActorID, e.Action, e.TargetType, e.TargetID, details, fmtTime(e.CreatedAt))
	if err != nil {
		return s.wrap("append audit", err)
	}
	e.ID, err = res.LastInsertId()
	return s.wrap("append audit", err)
}

func (s *Store) AuditLog(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := `SELECT id, admin_id, action, target_type, target_id, details, created_at
		FROM admin_logs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap("audit log", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e       models.AuditEntry
			details string
			created string
		)
		err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetType,
			&e.TargetID, &details, &created)
		if err != nil {
			return nil, s.wrap("audit log", err)
		}
		e.Details = json.RawMessage(details)
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, s.wrap("audit log", rows.Err())
}
