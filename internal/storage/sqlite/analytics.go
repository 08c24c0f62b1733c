package sqlite

import (
	"context"

	"github.com/shopspring/decimal"

	"airdrophub-backend/internal/models"
)

// Analytics recomputes every aggregate from the live rows on each call.
func (s *Store) Analytics(ctx context.Context) (*models.Analytics, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var a models.Analytics
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM airdrops),
			(SELECT COUNT(*) FROM airdrops WHERE status = 'active'),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE isConnected = 1),
			(SELECT COALESCE(SUM(totalPoints), 0) FROM users),
			(SELECT COUNT(*) FROM withdrawals),
			(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending')`).
		Scan(&a.TotalAirdrops, &a.ActiveAirdrops, &a.TotalUsers,
			&a.ConnectedUsers, &a.TotalPoints, &a.TotalWithdrawals,
			&a.PendingWithdrawals)
	if err != nil {
		return nil, s.wrap("analytics", err)
	}

	// usdcAmount is stored as decimal text, so sum it outside SQL to keep
	// exact arithmetic.
	rows, err := s.db.QueryContext(ctx,
		"SELECT usdcAmount FROM withdrawals WHERE status = 'completed'")
	if err != nil {
		return nil, s.wrap("analytics", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, s.wrap("analytics", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, s.wrap("analytics", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("analytics", err)
	}
	a.TotalRewardsDistributedUSD = total
	return &a, nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := `SELECT id, walletAddress, totalPoints, completedTasks
		FROM users ORDER BY totalPoints DESC, lastActive DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap("leaderboard", err)
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for rows.Next() {
		var (
			e         models.LeaderboardEntry
			completed string
		)
		if err := rows.Scan(&e.UserID, &e.WalletAddress, &e.TotalPoints, &completed); err != nil {
			return nil, s.wrap("leaderboard", err)
		}
		var tasks models.CompletedTasks
		if err := decodeJSON(completed, &tasks); err != nil {
			return nil, s.wrap("leaderboard", err)
		}
		e.CompletedAirdrops = len(tasks)
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	return out, s.wrap("leaderboard", rows.Err())
}
