package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

type UserService interface {
	List(ctx context.Context, f models.UserFilter) ([]*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	ConnectWallet(ctx context.Context, address string) (*models.User, error)
	CompleteTask(ctx context.Context, userID, airdropID, taskID string) (*models.User, error)
	Update(ctx context.Context, actorID, id string, p models.Patch) (*models.User, error)
	Delete(ctx context.Context, actorID, id string) error
}

type userService struct {
	store storage.Store
	audit AuditService
}

func NewUserService(store storage.Store, audit AuditService) UserService {
	return &userService{store: store, audit: audit}
}

func (s *userService) List(ctx context.Context, f models.UserFilter) ([]*models.User, error) {
	users, err := s.store.Users(ctx, f)
	if err != nil {
		return nil, mapStorageError("list users", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, mapStorageError("get user", err)
	}
	return u, nil
}

// ConnectWallet returns the user already bound to the address, or creates
// one. Addresses are normalized to lower case before lookup.
func (s *userService) ConnectWallet(ctx context.Context, address string) (*models.User, error) {
	if !common.IsHexAddress(address) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWallet, "Invalid wallet address").
			WithDetail("address", address)
	}
	address = strings.ToLower(address)

	users, err := s.store.Users(ctx, models.UserFilter{})
	if err != nil {
		return nil, mapStorageError("connect wallet", err)
	}
	for _, u := range users {
		if u.WalletAddress == address {
			if !u.IsConnected {
				u.IsConnected = true
				if err := s.store.SaveUser(ctx, u); err != nil {
					return nil, mapStorageError("connect wallet", err)
				}
				s.audit.Record(ctx, u.ID, models.AuditActionUpdate, models.AuditTargetUser, u.ID,
					map[string]any{"is_connected": true})
			}
			return u, nil
		}
	}

	u := &models.User{
		ID:             uuid.New().String(),
		WalletAddress:  address,
		CompletedTasks: models.CompletedTasks{},
		IsConnected:    true,
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, mapStorageError("connect wallet", err)
	}
	s.audit.Record(ctx, u.ID, models.AuditActionCreate, models.AuditTargetUser, u.ID,
		map[string]any{"wallet_address": address})
	return u, nil
}

// CompleteTask credits the task's points to the user exactly once. A repeat
// completion of the same (airdrop, task) pair is rejected without touching
// any state. The airdrop's participant count grows when this is the user's
// first task in it.
func (s *userService) CompleteTask(ctx context.Context, userID, airdropID, taskID string) (*models.User, error) {
	airdrop, err := s.store.AirdropByID(ctx, airdropID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("airdrop", airdropID)
	}
	if err != nil {
		return nil, mapStorageError("complete task", err)
	}
	task := airdrop.Task(taskID)
	if task == nil {
		return nil, apperrors.NewNotFoundError("task", taskID)
	}

	user, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("user", userID)
	}
	if err != nil {
		return nil, mapStorageError("complete task", err)
	}

	firstInAirdrop := len(user.CompletedTasks[airdropID]) == 0
	if !user.CompletedTasks.Add(airdropID, taskID) {
		return nil, apperrors.New(apperrors.ErrCodeTaskCompleted, "Task already completed").
			WithDetail("airdrop_id", airdropID).
			WithDetail("task_id", taskID)
	}
	user.TotalPoints += task.Points
	user.Balance += task.Points

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, mapStorageError("complete task", err)
	}
	if firstInAirdrop {
		airdrop.Participants++
		if err := s.store.SaveAirdrop(ctx, airdrop); err != nil {
			return nil, mapStorageError("complete task", err)
		}
	}
	s.audit.Record(ctx, userID, models.AuditActionCompleteTask, models.AuditTargetTask, taskID,
		map[string]any{"airdrop_id": airdropID, "points": task.Points})
	return user, nil
}

func (s *userService) Update(ctx context.Context, actorID, id string, p models.Patch) (*models.User, error) {
	updated, err := s.store.UpdateUser(ctx, id, p)
	if err != nil {
		var unknown *models.UnknownFieldError
		if errors.As(err, &unknown) {
			return nil, apperrors.NewValidationError(unknown.Field, "unknown field")
		}
		return nil, mapStorageError("update user", err)
	}
	if !updated {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	action := models.AuditActionUpdate
	if _, ok := p["total_points"]; ok {
		action = models.AuditActionUpdatePoints
	}
	s.audit.Record(ctx, actorID, action, models.AuditTargetUser, id, p)
	return s.Get(ctx, id)
}

func (s *userService) Delete(ctx context.Context, actorID, id string) error {
	deleted, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return mapStorageError("delete user", err)
	}
	if !deleted {
		return apperrors.NewNotFoundError("user", id)
	}
	s.audit.Record(ctx, actorID, models.AuditActionDelete, models.AuditTargetUser, id, nil)
	return nil
}
