package sqlite

import (
	"context"
	"fmt"

	"airdrophub-backend/internal/models"
)

// schemaStatements create the entity tables. Fields are additive only, so
// re-running them is always safe; no migration versioning is kept.
// Booleans are persisted as 0/1 integers, timestamps as RFC3339 text and
// nested structures (tasks, completedTasks) as JSON text columns.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS airdrops (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		logo TEXT DEFAULT '',
		reward TEXT DEFAULT '',
		totalReward TEXT DEFAULT '',
		participants INTEGER NOT NULL DEFAULT 0,
		maxParticipants INTEGER NOT NULL DEFAULT 0,
		startDate TEXT,
		endDate TEXT,
		status TEXT NOT NULL DEFAULT 'upcoming',
		category TEXT DEFAULT '',
		blockchain TEXT DEFAULT '',
		tasks TEXT DEFAULT '[]',
		requirements TEXT DEFAULT '[]',
		created_at TEXT,
		updated_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_airdrops_status ON airdrops (status)`,
	`CREATE INDEX IF NOT EXISTS idx_airdrops_created ON airdrops (created_at)`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		walletAddress TEXT DEFAULT '',
		telegram TEXT DEFAULT '',
		twitter TEXT DEFAULT '',
		discord TEXT DEFAULT '',
		completedTasks TEXT DEFAULT '{}',
		totalPoints INTEGER NOT NULL DEFAULT 0,
		isConnected INTEGER NOT NULL DEFAULT 0,
		balance INTEGER NOT NULL DEFAULT 0,
		joinedAt TEXT,
		lastActive TEXT,
		CHECK (totalPoints >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_wallet ON users (walletAddress)`,
	`CREATE INDEX IF NOT EXISTS idx_users_points ON users (totalPoints)`,

	`CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		userId TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		amount INTEGER NOT NULL,
		usdcAmount TEXT NOT NULL DEFAULT '0',
		timestamp TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		txHash TEXT DEFAULT '',
		CHECK (amount > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_user ON withdrawals (userId)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals (status)`,

	`CREATE TABLE IF NOT EXISTS settings (
		setting_key TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL DEFAULT '',
		updated_at TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS admin_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		admin_id TEXT NOT NULL,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		details TEXT,
		created_at TEXT
	)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	// Seed defaults once; existing values are never overwritten.
	for _, def := range models.DefaultSettings {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)`,
			def.Key, def.Value, fmtTime(timeNow()))
		if err != nil {
			return fmt.Errorf("sqlite: seed setting %q: %w", def.Key, err)
		}
	}
	return nil
}
