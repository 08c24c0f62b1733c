package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

var timeNow = time.Now

// Store keeps everything in process memory behind a single RWMutex. It is
// the engine for tests and for ephemeral deployments; nothing survives a
// restart.
type Store struct {
	mu          sync.RWMutex
	open        bool
	airdrops    map[string]*models.Airdrop
	users       map[string]*models.User
	withdrawals map[string]*models.Withdrawal
	settings    map[string]string
	audit       []models.AuditEntry
	auditSeq    int64
}

func New() *Store {
	s := &Store{
		open:        true,
		airdrops:    map[string]*models.Airdrop{},
		users:       map[string]*models.User{},
		withdrawals: map[string]*models.Withdrawal{},
		settings:    map[string]string{},
	}
	for _, st := range models.DefaultSettings {
		s.settings[st.Key] = st.Value
	}
	return s
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *Store) ready() error {
	if !s.open {
		return storage.ErrNotInitialized
	}
	return nil
}

func (s *Store) SaveAirdrop(ctx context.Context, a *models.Airdrop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	now := timeNow().UTC()
	if a.CreatedAt.IsZero() {
		if prev, ok := s.airdrops[a.ID]; ok {
			a.CreatedAt = prev.CreatedAt
		} else {
			a.CreatedAt = now
		}
	}
	a.UpdatedAt = now
	s.airdrops[a.ID] = cloneAirdrop(a)
	return nil
}

func (s *Store) Airdrops(ctx context.Context, f models.AirdropFilter) ([]*models.Airdrop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []*models.Airdrop
	for _, a := range s.airdrops {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.Blockchain != "" && a.Blockchain != f.Blockchain {
			continue
		}
		out = append(out, cloneAirdrop(a))
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	a, ok := s.airdrops[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneAirdrop(a), nil
}

func (s *Store) UpdateAirdrop(ctx context.Context, id string, p models.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	a, ok := s.airdrops[id]
	if !ok {
		return false, nil
	}
	next := cloneAirdrop(a)
	if err := models.ApplyAirdropPatch(next, p); err != nil {
		return false, fmt.Errorf("update airdrop: %w: %w", storage.ErrConstraint, err)
	}
	next.UpdatedAt = timeNow().UTC()
	s.airdrops[id] = next
	return true, nil
}

func (s *Store) DeleteAirdrop(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	if _, ok := s.airdrops[id]; !ok {
		return false, nil
	}
	delete(s.airdrops, id)
	return true, nil
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	now := timeNow().UTC()
	if u.JoinedAt.IsZero() {
		if prev, ok := s.users[u.ID]; ok {
			u.JoinedAt = prev.JoinedAt
		} else {
			u.JoinedAt = now
		}
	}
	if u.LastActive.IsZero() {
		u.LastActive = now
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) Users(ctx context.Context, f models.UserFilter) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []*models.User
	for _, u := range s.users {
		if f.Connected != nil && u.IsConnected != *f.Connected {
			continue
		}
		if f.MinPoints > 0 && u.TotalPoints < f.MinPoints {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sortUsers(out)
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, p models.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	next := cloneUser(u)
	if err := models.ApplyUserPatch(next, p); err != nil {
		return false, fmt.Errorf("update user: %w: %w", storage.ErrConstraint, err)
	}
	s.users[id] = next
	return true, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	// Cascade, matching the SQL engine's foreign key.
	for wid, w := range s.withdrawals {
		if w.UserID == id {
			delete(s.withdrawals, wid)
		}
	}
	return true, nil
}

func (s *Store) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	if w.Amount <= 0 {
		return fmt.Errorf("create withdrawal: amount %d: %w", w.Amount, storage.ErrConstraint)
	}
	u, ok := s.users[w.UserID]
	if !ok {
		return fmt.Errorf("create withdrawal: user %s: %w", w.UserID, storage.ErrConstraint)
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
	s.withdrawals[w.ID] = cloneWithdrawal(w)
	return nil
}

func (s *Store) Withdrawals(ctx context.Context, f models.WithdrawalFilter) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []*models.Withdrawal
	for _, w := range s.withdrawals {
		if f.UserID != "" && w.UserID != f.UserID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if !f.Since.IsZero() && w.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, cloneWithdrawal(w))
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneWithdrawal(w), nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, id string, p models.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	w, ok := s.withdrawals[id]
	if !ok {
		return false, nil
	}
	next := cloneWithdrawal(w)
	if err := models.ApplyWithdrawalPatch(next, p); err != nil {
		return false, fmt.Errorf("update withdrawal: %w: %w", storage.ErrConstraint, err)
	}
	s.withdrawals[id] = next
	return true, nil
}

func (s *Store) FailWithdrawal(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	w, ok := s.withdrawals[id]
	if !ok || w.Status == models.WithdrawalStatusFailed {
		return false, nil
	}
	w.Status = models.WithdrawalStatusFailed
	if u, ok := s.users[w.UserID]; ok {
		u.TotalPoints += w.Amount
		u.Balance += w.Amount
	}
	return true, nil
}

func (s *Store) DeleteWithdrawal(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	if _, ok := s.withdrawals[id]; !ok {
		return false, nil
	}
	delete(s.withdrawals, id)
	return true, nil
}

func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return "", err
	}
	v, ok := s.settings[key]
	if !ok {
		return "", fmt.Errorf("setting %s: %w", key, storage.ErrNotFound)
	}
	return v, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	s.settings[key] = value
	return nil
}

func (s *Store) Settings(ctx context.Context) ([]models.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]models.Setting, 0, len(s.settings))
	for k, v := range s.settings {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	s.auditSeq++
	e.ID = s.auditSeq
	if e.CreatedAt.IsZero() {
		e.CreatedAt = timeNow().UTC()
	}
	entry := *e
	entry.Details = append([]byte(nil), e.Details...)
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) AuditLog(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]models.AuditEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0; i-- {
		out = append(out, s.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Analytics(ctx context.Context) (*models.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	a := &models.Analytics{TotalRewardsDistributedUSD: decimal.Zero}
	for _, ad := range s.airdrops {
		a.TotalAirdrops++
		if ad.Status == models.AirdropStatusActive {
			a.ActiveAirdrops++
		}
	}
	for _, u := range s.users {
		a.TotalUsers++
		if u.IsConnected {
			a.ConnectedUsers++
		}
		a.TotalPoints += u.TotalPoints
	}
	for _, w := range s.withdrawals {
		a.TotalWithdrawals++
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
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

func cloneAirdrop(a *models.Airdrop) *models.Airdrop {
	cp := *a
	cp.Tasks = append([]models.Task(nil), a.Tasks...)
	cp.Requirements = append([]string(nil), a.Requirements...)
	return &cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.CompletedTasks = models.CompletedTasks{}
	for k, v := range u.CompletedTasks {
		cp.CompletedTasks[k] = append([]string(nil), v...)
	}
	return &cp
}

func cloneWithdrawal(w *models.Withdrawal) *models.Withdrawal {
	cp := *w
	return &cp
}
