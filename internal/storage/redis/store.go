package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

var timeNow = time.Now

const (
	airdropKeyPrefix    = "airdrop:"
	userKeyPrefix       = "user:"
	withdrawalKeyPrefix = "withdrawal:"

	airdropIndexKey    = "airdrops"
	userIndexKey       = "users"
	withdrawalIndexKey = "withdrawals"

	settingsKey = "settings"
	auditLogKey = "audit:log"
	auditSeqKey = "audit:seq"
)

// Store persists every record as a JSON value under a typed key, with a set
// per entity acting as the index. It is the remote engine; the process model
// stays single-writer, so read-modify-write sequences are not guarded by
// WATCH.
type Store struct {
	rdb  *redis.Client
	open atomic.Bool
}

func New(ctx context.Context, addr, pass string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	s := &Store{rdb: rdb}
	if err := s.seedSettings(ctx); err != nil {
		return nil, err
	}
	s.open.Store(true)
	return s, nil
}

func (s *Store) seedSettings(ctx context.Context) error {
	for _, st := range models.DefaultSettings {
		if err := s.rdb.HSetNX(ctx, settingsKey, st.Key, st.Value).Err(); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if !s.open.Swap(false) {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) ready() error {
	if !s.open.Load() {
		return storage.ErrNotInitialized
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, index, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, 0)
	pipe.SAdd(ctx, index, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dst)
}

func (s *Store) deleteJSON(ctx context.Context, index, key string) (bool, error) {
	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, key)
	pipe.SRem(ctx, index, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

func (s *Store) SaveAirdrop(ctx context.Context, a *models.Airdrop) error {
	if err := s.ready(); err != nil {
		return err
	}
	now := timeNow().UTC()
	if a.CreatedAt.IsZero() {
		var prev models.Airdrop
		switch err := s.getJSON(ctx, airdropKeyPrefix+a.ID, &prev); {
		case err == nil:
			a.CreatedAt = prev.CreatedAt
		case errors.Is(err, storage.ErrNotFound):
			a.CreatedAt = now
		default:
			return fmt.Errorf("save airdrop: %w", err)
		}
	}
	a.UpdatedAt = now
	if err := s.setJSON(ctx, airdropIndexKey, airdropKeyPrefix+a.ID, a); err != nil {
		return fmt.Errorf("save airdrop: %w", err)
	}
	return nil
}

func (s *Store) Airdrops(ctx context.Context, f models.AirdropFilter) ([]*models.Airdrop, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	keys, err := s.rdb.SMembers(ctx, airdropIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list airdrops: %w", err)
	}
	var out []*models.Airdrop
	for _, key := range keys {
		var a models.Airdrop
		err := s.getJSON(ctx, key, &a)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list airdrops: %w", err)
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.Blockchain != "" && a.Blockchain != f.Blockchain {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) AirdropByID(ctx context.Context, id string) (*models.Airdrop, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var a models.Airdrop
	if err := s.getJSON(ctx, airdropKeyPrefix+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
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
	if err := s.SaveAirdrop(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteAirdrop(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.deleteJSON(ctx, airdropIndexKey, airdropKeyPrefix+id)
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.ready(); err != nil {
		return err
	}
	now := timeNow().UTC()
	if u.JoinedAt.IsZero() {
		var prev models.User
		switch err := s.getJSON(ctx, userKeyPrefix+u.ID, &prev); {
		case err == nil:
			u.JoinedAt = prev.JoinedAt
		case errors.Is(err, storage.ErrNotFound):
			u.JoinedAt = now
		default:
			return fmt.Errorf("save user: %w", err)
		}
	}
	if u.LastActive.IsZero() {
		u.LastActive = now
	}
	if u.CompletedTasks == nil {
		u.CompletedTasks = models.CompletedTasks{}
	}
	if err := s.setJSON(ctx, userIndexKey, userKeyPrefix+u.ID, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) Users(ctx context.Context, f models.UserFilter) ([]*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if f.Connected != nil && u.IsConnected != *f.Connected {
			continue
		}
		if f.MinPoints > 0 && u.TotalPoints < f.MinPoints {
			continue
		}
		out = append(out, u)
	}
	sortUsers(out)
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) allUsers(ctx context.Context) ([]*models.User, error) {
	keys, err := s.rdb.SMembers(ctx, userIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var out []*models.User
	for _, key := range keys {
		var u models.User
		err := s.getJSON(ctx, key, &u)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, &u)
	}
	return out, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var u models.User
	if err := s.getJSON(ctx, userKeyPrefix+id, &u); err != nil {
		return nil, err
	}
	return &u, nil
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
	deleted, err := s.deleteJSON(ctx, userIndexKey, userKeyPrefix+id)
	if err != nil || !deleted {
		return deleted, err
	}
	// Cascade, matching the SQL engine's foreign key.
	withdrawals, err := s.Withdrawals(ctx, models.WithdrawalFilter{UserID: id})
	if err != nil {
		return true, err
	}
	for _, w := range withdrawals {
		if _, err := s.deleteJSON(ctx, withdrawalIndexKey, withdrawalKeyPrefix+w.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Store) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	if err := s.ready(); err != nil {
		return err
	}
	if w.Amount <= 0 {
		return fmt.Errorf("create withdrawal: amount %d: %w", w.Amount, storage.ErrConstraint)
	}
	u, err := s.UserByID(ctx, w.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("create withdrawal: user %s: %w", w.UserID, storage.ErrConstraint)
	}
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	if u.TotalPoints < w.Amount {
		return fmt.Errorf("create withdrawal: %d points, want %d: %w",
			u.TotalPoints, w.Amount, storage.ErrConstraint)
	}
	now := timeNow().UTC()
	if w.Timestamp.IsZero() {
		w.Timestamp = now
	}
	if w.Status == "" {
		w.Status = models.WithdrawalStatusPending
	}
	u.TotalPoints -= w.Amount
	u.Balance -= w.Amount
	u.LastActive = now

	rawUser, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	rawWithdrawal, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	// Both writes land in one MULTI/EXEC so the deduct and the insert
	// cannot be split.
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, userKeyPrefix+u.ID, rawUser, 0)
	pipe.Set(ctx, withdrawalKeyPrefix+w.ID, rawWithdrawal, 0)
	pipe.SAdd(ctx, withdrawalIndexKey, withdrawalKeyPrefix+w.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	return nil
}

func (s *Store) Withdrawals(ctx context.Context, f models.WithdrawalFilter) ([]*models.Withdrawal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	keys, err := s.rdb.SMembers(ctx, withdrawalIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	var out []*models.Withdrawal
	for _, key := range keys {
		var w models.Withdrawal
		err := s.getJSON(ctx, key, &w)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list withdrawals: %w", err)
		}
		if f.UserID != "" && w.UserID != f.UserID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if !f.Since.IsZero() && w.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) WithdrawalByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var w models.Withdrawal
	if err := s.getJSON(ctx, withdrawalKeyPrefix+id, &w); err != nil {
		return nil, err
	}
	return &w, nil
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
	if err := s.setJSON(ctx, withdrawalIndexKey, withdrawalKeyPrefix+id, w); err != nil {
		return false, fmt.Errorf("update withdrawal: %w", err)
	}
	return true, nil
}

func (s *Store) FailWithdrawal(ctx context.Context, id string) (bool, error) {
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
	if w.Status == models.WithdrawalStatusFailed {
		return false, nil
	}
	w.Status = models.WithdrawalStatusFailed

	u, err := s.UserByID(ctx, w.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	rawWithdrawal, err := json.Marshal(w)
	if err != nil {
		return false, fmt.Errorf("fail withdrawal: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, withdrawalKeyPrefix+id, rawWithdrawal, 0)
	if u != nil {
		u.TotalPoints += w.Amount
		u.Balance += w.Amount
		rawUser, err := json.Marshal(u)
		if err != nil {
			return false, fmt.Errorf("fail withdrawal: %w", err)
		}
		pipe.Set(ctx, userKeyPrefix+u.ID, rawUser, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("fail withdrawal: %w", err)
	}
	return true, nil
}

func (s *Store) DeleteWithdrawal(ctx context.Context, id string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.deleteJSON(ctx, withdrawalIndexKey, withdrawalKeyPrefix+id)
}

func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	v, err := s.rdb.HGet(ctx, settingsKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	return v, err
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.rdb.HSet(ctx, settingsKey, key, value).Err()
}

func (s *Store) Settings(ctx context.Context) ([]models.Setting, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.rdb.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make([]models.Setting, 0, len(all))
	for k, v := range all {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	if err := s.ready(); err != nil {
		return err
	}
	id, err := s.rdb.Incr(ctx, auditSeqKey).Result()
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	e.ID = id
	if e.CreatedAt.IsZero() {
		e.CreatedAt = timeNow().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return s.rdb.RPush(ctx, auditLogKey, raw).Err()
}

func (s *Store) AuditLog(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	raws, err := s.rdb.LRange(ctx, auditLogKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	var out []models.AuditEntry
	for i := len(raws) - 1; i >= 0; i-- {
		var e models.AuditEntry
		if err := json.Unmarshal([]byte(raws[i]), &e); err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Analytics(ctx context.Context) (*models.Analytics, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	a := &models.Analytics{}
	airdrops, err := s.Airdrops(ctx, models.AirdropFilter{})
	if err != nil {
		return nil, err
	}
	a.TotalAirdrops = len(airdrops)
	for _, ad := range airdrops {
		if ad.Status == models.AirdropStatusActive {
			a.ActiveAirdrops++
		}
	}
	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	a.TotalUsers = len(users)
	for _, u := range users {
		if u.IsConnected {
			a.ConnectedUsers++
		}
		a.TotalPoints += u.TotalPoints
	}
	withdrawals, err := s.Withdrawals(ctx, models.WithdrawalFilter{})
	if err != nil {
		return nil, err
	}
	a.TotalWithdrawals = len(withdrawals)
	for _, w := range withdrawals {
		switch w.Status {
		case models.WithdrawalStatusPending:
			a.PendingWithdrawals++
		case models.WithdrawalStatusCompleted:
			a.TotalRewardsDistributedUSD = a.TotalRewardsDistributedUSD.Add(w.USDCAmount)
		}
	}
	return a, nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	sortUsers(users)
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	out := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, models.LeaderboardEntry{
			Rank:              i + 1,
			UserID:            u.ID,
			WalletAddress:     u.WalletAddress,
			TotalPoints:       u.TotalPoints,
			CompletedAirdrops: len(u.CompletedTasks),
		})
	}
	return out, nil
}

func sortUsers(users []*models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalPoints != users[j].TotalPoints {
			return users[i].TotalPoints > users[j].TotalPoints
		}
		if !users[i].LastActive.Equal(users[j].LastActive) {
			return users[i].LastActive.After(users[j].LastActive)
		}
		return users[i].ID < users[j].ID
	})
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
