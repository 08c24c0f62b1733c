package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

const userColumns = `id, walletAddress, telegram, twitter, discord,
	completedTasks, totalPoints, isConnected, balance, joinedAt, lastActive`

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.ready(); err != nil {
		return err
	}
	completed, err := encodeJSON(u.CompletedTasks)
	if err != nil {
		return fmt.Errorf("save user: encode completed tasks: %w", err)
	}
	now := timeNow()
	if u.JoinedAt.IsZero() {
		var joined string
		err := s.db.QueryRowContext(ctx,
			"SELECT joinedAt FROM users WHERE id = ?", u.ID).Scan(&joined)
		switch {
		case err == nil:
			u.JoinedAt = parseTime(joined)
		case errors.Is(err, sql.ErrNoRows):
			u.JoinedAt = now
		default:
			return s.wrap("save user", err)
		}
	}
	if u.LastActive.IsZero() {
		u.LastActive = now
	}
	// ON CONFLICT, not INSERT OR REPLACE: REPLACE resolves the PK clash by
	// deleting the old row, which would fire the withdrawals cascade and
	// erase the user's withdrawal history.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			walletAddress = excluded.walletAddress,
			telegram = excluded.telegram,
			twitter = excluded.twitter,
			discord = excluded.discord,
			completedTasks = excluded.completedTasks,
			totalPoints = excluded.totalPoints,
			isConnected = excluded.isConnected,
			balance = excluded.balance,
			joinedAt = excluded.joinedAt,
			lastActive = excluded.lastActive`,
		u.ID, u.WalletAddress, u.Telegram, u.Twitter, u.Discord, completed,
		u.TotalPoints, boolToInt(u.IsConnected), u.Balance,
		fmtTime(u.JoinedAt), fmtTime(u.LastActive))
	return s.wrap("save user", err)
}

func (s *Store) Users(ctx context.Context, f models.UserFilter) ([]*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := "SELECT " + userColumns + " FROM users WHERE 1=1"
	var args []any
	if f.Connected != nil {
		query += " AND isConnected = ?"
		args = append(args, boolToInt(*f.Connected))
	}
	if f.MinPoints > 0 {
		query += " AND totalPoints >= ?"
		args = append(args, f.MinPoints)
	}
	query += " ORDER BY totalPoints DESC, lastActive DESC, id"
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
		return nil, s.wrap("list users", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	return out, s.wrap("list users", rows.Err())
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, p models.Patch) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	u, err := s.UserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := models.ApplyUserPatch(u, p); err != nil {
		return false, fmt.Errorf("update user: %w: %w", storage.ErrConstraint, err)
	}
	if err := s.SaveUser(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return false, s.wrap("delete user", err)
	}
	n, err := res.RowsAffected()
	return n > 0, s.wrap("delete user", err)
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                models.User
		completed        string
		connected        int
		joined, lastSeen string
	)
	err := row.Scan(&u.ID, &u.WalletAddress, &u.Telegram, &u.Twitter,
		&u.Discord, &completed, &u.TotalPoints, &connected, &u.Balance,
		&joined, &lastSeen)
	if err != nil {
		return nil, err
	}
	u.IsConnected = connected != 0
	u.JoinedAt = parseTime(joined)
	u.LastActive = parseTime(lastSeen)
	if err := decodeJSON(completed, &u.CompletedTasks); err != nil {
		return nil, fmt.Errorf("decode completed tasks: %w", err)
	}
	if u.CompletedTasks == nil {
		u.CompletedTasks = models.CompletedTasks{}
	}
	return &u, nil
}
