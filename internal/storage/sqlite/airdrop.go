package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

const airdropColumns = `id, title, description, logo, reward, totalReward,
	participants, maxParticipants, startDate, endDate, status, category,
	blockchain, tasks, requirements, created_at, updated_at`

func (s *Store) SaveAirdrop(ctx context.Context, a *models.Airdrop) error {
	if err := s.ready(); err != nil {
		return err
	}
	tasks, err := encodeJSON(a.Tasks)
	if err != nil {
		return fmt.Errorf("save airdrop: encode tasks: %w", err)
	}
	requirements, err := encodeJSON(a.Requirements)
	if err != nil {
		return fmt.Errorf("save airdrop: encode requirements: %w", err)
	}
	now := timeNow()
	if a.CreatedAt.IsZero() {
		// Preserve the original creation time on full replacement.
		var created string
		err := s.db.QueryRowContext(ctx,
			"SELECT created_at FROM airdrops WHERE id = ?", a.ID).Scan(&created)
		switch {
		case err == nil:
			a.CreatedAt = parseTime(created)
		case errors.Is(err, sql.ErrNoRows):
			a.CreatedAt = now
		default:
			return s.wrap("save airdrop", err)
		}
	}
	a.UpdatedAt = now
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO airdrops (`+airdropColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, a.Logo, a.Reward, a.TotalReward,
		a.Participants, a.MaxParticipants, fmtTime(a.StartDate), fmtTime(a.EndDate),
		string(a.Status), a.Category, a.Blockchain, tasks, requirements,
		fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt))
	return s.wrap("save airdrop", err)
}

func (s *Store) Airdrops(ctx context.Context, f models.AirdropFilter) ([]*models.Airdrop, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := "SELECT " + airdropColumns + " FROM airdrops WHERE 1=1"
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Blockchain != "" {
		query += " AND blockchain = ?"
		args = append(args, f.Blockchain)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap("list airdrops", err)
	}
	defer rows.Close()

	var out []*models.Airdrop
	for rows.Next() {
		a, err := scanAirdrop(rows)
		if err != nil {
			return nil, fmt.Errorf("list airdrops: %w", err)
		}
		out = append(out, a)
	}
	return out, s.wrap("list airdrops", rows.Err())
}

func (s *Store) AirdropByID(ctx context.Context, id string) (*models.Airdrop, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+airdropColumns+" FROM airdrops WHERE id = ?", id)
	a, err := scanAirdrop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get airdrop: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAirdrop(ctx context.Context, id string, p models.Patch) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	a, err := s.AirdropByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := models.ApplyAirdropPatch(a, p); err != nil {
		return false, fmt.Errorf("update airdrop: %w: %w", storage.ErrConstraint, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	if err := s.SaveAirdrop(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteAirdrop(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM airdrops WHERE id = ?", id)
	if err != nil {
		return false, s.wrap("delete airdrop", err)
	}
	n, err := res.RowsAffected()
	return n > 0, s.wrap("delete airdrop", err)
}

type rowScanner interface {
	Scan(dst ...any) error
}

func scanAirdrop(row rowScanner) (*models.Airdrop, error) {
	var (
		a                            models.Airdrop
		status                       string
		start, end, created, updated string
		tasks, requirements          string
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Logo, &a.Reward,
		&a.TotalReward, &a.Participants, &a.MaxParticipants, &start, &end,
		&status, &a.Category, &a.Blockchain, &tasks, &requirements,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	a.Status = models.AirdropStatus(status)
	a.StartDate = parseTime(start)
	a.EndDate = parseTime(end)
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	if err := decodeJSON(tasks, &a.Tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if err := decodeJSON(requirements, &a.Requirements); err != nil {
		return nil, fmt.Errorf("decode requirements: %w", err)
	}
	return &a, nil
}
