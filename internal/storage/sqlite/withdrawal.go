package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

const withdrawalColumns = `id, userId, amount, usdcAmount, timestamp, status, txHash`

// CreateWithdrawal deducts the amount from the user's balances and inserts
// the withdrawal row in a single transaction. Insufficient points, a missing
// user or a non-positive amount fail with ErrConstraint and leave the user
// untouched.
func (s *Store) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	if err := s.ready(); err != nil {
		return err
	}
	if w.Amount <= 0 {
		return fmt.Errorf("create withdrawal: amount %d: %w", w.Amount, storage.ErrConstraint)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("create withdrawal", err)
	}
	defer tx.Rollback()

	var points, balance int
	err = tx.QueryRowContext(ctx,
		"SELECT totalPoints, balance FROM users WHERE id = ?", w.UserID).
		Scan(&points, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("create withdrawal: user %s: %w", w.UserID, storage.ErrConstraint)
	}
	if err != nil {
		return s.wrap("create withdrawal", err)
	}
	if points < w.Amount {
		return fmt.Errorf("create withdrawal: %d points, want %d: %w",
			points, w.Amount, storage.ErrConstraint)
	}

	now := timeNow()
	if w.Timestamp.IsZero() {
		w.Timestamp = now
	}
	if w.Status == "" {
		w.Status = models.WithdrawalStatusPending
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE users SET totalPoints = totalPoints - ?, balance = balance - ?,
			lastActive = ?
		WHERE id = ?`,
		w.Amount, w.Amount, fmtTime(now), w.UserID)
	if err != nil {
		return s.wrap("create withdrawal", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO withdrawals (`+withdrawalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Amount, w.USDCAmount.String(), fmtTime(w.Timestamp),
		string(w.Status), w.TxHash)
	if err != nil {
		return s.wrap("create withdrawal", err)
	}
	return s.wrap("create withdrawal", tx.Commit())
}

// FailWithdrawal marks the withdrawal failed and refunds the user in the
// same transaction. Already-failed withdrawals are left alone.
func (s *Store) FailWithdrawal(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, s.wrap("fail withdrawal", err)
	}
	defer tx.Rollback()

	var (
		userID string
		amount int
		status string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT userId, amount, status FROM withdrawals WHERE id = ?", id).
		Scan(&userID, &amount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.wrap("fail withdrawal", err)
	}
	if models.WithdrawalStatus(status) == models.WithdrawalStatusFailed {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE withdrawals SET status = ? WHERE id = ?",
		string(models.WithdrawalStatusFailed), id)
	if err != nil {
		return false, s.wrap("fail withdrawal", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE users SET totalPoints = totalPoints + ?, balance = balance + ?
		WHERE id = ?`,
		amount, amount, userID)
	if err != nil {
		return false, s.wrap("fail withdrawal", err)
	}
	if err := tx.Commit(); err != nil {
		return false, s.wrap("fail withdrawal", err)
	}
	return true, nil
}

func (s *Store) Withdrawals(ctx context.Context, f models.WithdrawalFilter) ([]*models.Withdrawal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := "SELECT " + withdrawalColumns + " FROM withdrawals WHERE 1=1"
	var args []any
	if f.UserID != "" {
		query += " AND userId = ?"
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, fmtTime(f.Since))
	}
	query += " ORDER BY timestamp DESC, id DESC"
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
		return nil, s.wrap("list withdrawals", err)
	}
	defer rows.Close()

	var out []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("list withdrawals: %w", err)
		}
		out = append(out, w)
	}
	return out, s.wrap("list withdrawals", rows.Err())
}

func (s *Store) WithdrawalByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = ?", id)
	w, err := scanWithdrawal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return w, nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, id string, p models.Patch) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	w, err := s.WithdrawalByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := models.ApplyWithdrawalPatch(w, p); err != nil {
		return false, fmt.Errorf("update withdrawal: %w: %w", storage.ErrConstraint, err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE withdrawals SET status = ?, txHash = ? WHERE id = ?",
		string(w.Status), w.TxHash, id)
	if err != nil {
		return false, s.wrap("update withdrawal", err)
	}
	return true, nil
}

func (s *Store) DeleteWithdrawal(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM withdrawals WHERE id = ?", id)
	if err != nil {
		return false, s.wrap("delete withdrawal", err)
	}
	n, err := res.RowsAffected()
	return n > 0, s.wrap("delete withdrawal", err)
}

func scanWithdrawal(row rowScanner) (*models.Withdrawal, error) {
	var (
		w          models.Withdrawal
		usdc       string
		ts, status string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &usdc, &ts, &status, &w.TxHash)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(usdc)
	if err != nil {
		return nil, fmt.Errorf("decode usdc amount %q: %w", usdc, err)
	}
	w.USDCAmount = amount
	w.Timestamp = parseTime(ts)
	w.Status = models.WithdrawalStatus(status)
	return &w, nil
}
