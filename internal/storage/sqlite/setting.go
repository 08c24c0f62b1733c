package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT setting_value FROM settings WHERE setting_key = ?", key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return "", s.wrap("get setting", err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (setting_key, setting_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET
			setting_value = excluded.setting_value,
			updated_at = excluded.updated_at`,
		key, value, fmtTime(timeNow()))
	return s.wrap("set setting", err)
}

func (s *Store) Settings(ctx context.Context) ([]models.Setting, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT setting_key, setting_value FROM settings ORDER BY setting_key")
	if err != nil {
		return nil, s.wrap("list settings", err)
	}
	defer rows.Close()

	var out []models.Setting
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, s.wrap("list settings", err)
		}
		out = append(out, st)
	}
	return out, s.wrap("list settings", rows.Err())
}
