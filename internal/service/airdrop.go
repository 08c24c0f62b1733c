package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

type AirdropService interface {
	Create(ctx context.Context, actorID string, a *models.Airdrop) (*models.Airdrop, error)
	List(ctx context.Context, f models.AirdropFilter) ([]*models.Airdrop, error)
	Get(ctx context.Context, id string) (*models.Airdrop, error)
	Update(ctx context.Context, actorID, id string, p models.Patch) (*models.Airdrop, error)
	Delete(ctx context.Context, actorID, id string) error
}

type airdropService struct {
	store storage.Store
	audit AuditService
}

func NewAirdropService(store storage.Store, audit AuditService) AirdropService {
	return &airdropService{store: store, audit: audit}
}

func (s *airdropService) Create(ctx context.Context, actorID string, a *models.Airdrop) (*models.Airdrop, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = models.AirdropStatusUpcoming
	}
	if err := a.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid airdrop")
	}
	if err := s.store.SaveAirdrop(ctx, a); err != nil {
		return nil, mapStorageError("create airdrop", err)
	}
	s.audit.Record(ctx, actorID, models.AuditActionCreate, models.AuditTargetAirdrop, a.ID,
		map[string]any{"title": a.Title})
	return a, nil
}

func (s *airdropService) List(ctx context.Context, f models.AirdropFilter) ([]*models.Airdrop, error) {
	airdrops, err := s.store.Airdrops(ctx, f)
	if err != nil {
		return nil, mapStorageError("list airdrops", err)
	}
	return airdrops, nil
}

func (s *airdropService) Get(ctx context.Context, id string) (*models.Airdrop, error) {
	a, err := s.store.AirdropByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("airdrop", id)
	}
	if err != nil {
		return nil, mapStorageError("get airdrop", err)
	}
	return a, nil
}

func (s *airdropService) Update(ctx context.Context, actorID, id string, p models.Patch) (*models.Airdrop, error) {
	updated, err := s.store.UpdateAirdrop(ctx, id, p)
	if err != nil {
		var unknown *models.UnknownFieldError
		if errors.As(err, &unknown) {
			return nil, apperrors.NewValidationError(unknown.Field, "unknown field")
		}
		return nil, mapStorageError("update airdrop", err)
	}
	if !updated {
		return nil, apperrors.NewNotFoundError("airdrop", id)
	}
	s.audit.Record(ctx, actorID, models.AuditActionUpdate, models.AuditTargetAirdrop, id, p)
	return s.Get(ctx, id)
}

func (s *airdropService) Delete(ctx context.Context, actorID, id string) error {
	deleted, err := s.store.DeleteAirdrop(ctx, id)
	if err != nil {
		return mapStorageError("delete airdrop", err)
	}
	if !deleted {
		return apperrors.NewNotFoundError("airdrop", id)
	}
	s.audit.Record(ctx, actorID, models.AuditActionDelete, models.AuditTargetAirdrop, id, nil)
	return nil
}
