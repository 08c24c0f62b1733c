package storage

import (
	"context"
	"errors"

	"airdrophub-backend/internal/models"
)

// Error taxonomy shared by all engines. Callers may treat ErrNotInitialized
// as retryable once the engine finishes opening; ErrConstraint is a
// non-retryable input error; anything else is an unknown engine failure
// wrapped with context.
var (
	ErrNotInitialized = errors.New("storage: engine not initialized")
	ErrConstraint     = errors.New("storage: constraint violation")
	ErrNotFound       = errors.New("storage: not found")
)

// Store is the single persistence contract behind which the backing
// engines (embedded SQL, in-memory, remote) are swapped by configuration.
//
// The execution model is single-process and synchronous per call. Engines
// serialize reentrant callers internally; if the same backing store is
// shared by multiple processes, last-writer-wins applies at the row level
// and no cross-row isolation is provided beyond the operations documented
// as atomic below.
type Store interface {
	// Airdrops.
	SaveAirdrop(ctx context.Context, a *models.Airdrop) error
	Airdrops(ctx context.Context, f models.AirdropFilter) ([]*models.Airdrop, error)
	AirdropByID(ctx context.Context, id string) (*models.Airdrop, error)
	UpdateAirdrop(ctx context.Context, id string, p models.Patch) (bool, error)
	DeleteAirdrop(ctx context.Context, id string) (bool, error)

	// Users. Listings order by total points descending, then last
	// activity descending.
	SaveUser(ctx context.Context, u *models.User) error
	Users(ctx context.Context, f models.UserFilter) ([]*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, p models.Patch) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)

	// Withdrawals. CreateWithdrawal atomically deducts the amount from
	// the user's points and inserts the row; it fails with ErrConstraint
	// when the user is missing, the amount is not positive, or the
	// balance is insufficient — in which case no state changes.
	// FailWithdrawal atomically flips a pending withdrawal to failed and
	// refunds its amount to the user.
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	Withdrawals(ctx context.Context, f models.WithdrawalFilter) ([]*models.Withdrawal, error)
	WithdrawalByID(ctx context.Context, id string) (*models.Withdrawal, error)
	UpdateWithdrawal(ctx context.Context, id string, p models.Patch) (bool, error)
	FailWithdrawal(ctx context.Context, id string) (bool, error)
	DeleteWithdrawal(ctx context.Context, id string) (bool, error)

	// Settings, upsert-only. Setting returns ErrNotFound for missing keys.
	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	Settings(ctx context.Context) ([]models.Setting, error)

	// Audit log, append-only.
	AppendAudit(ctx context.Context, e *models.AuditEntry) error
	AuditLog(ctx context.Context, limit int) ([]models.AuditEntry, error)

	// Derived aggregates, recomputed on every call.
	Analytics(ctx context.Context) (*models.Analytics, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	Close() error
}
