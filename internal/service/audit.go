package service

import (
	"context"
	"encoding/json"

	"airdrophub-backend/internal/common/logger"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

// AuditService appends one trail entry per mutation. Recording is
// best-effort: a failed append is logged and swallowed so it never blocks
// the mutation that triggered it.
type AuditService interface {
	Record(ctx context.Context, actorID, action, targetType, targetID string, details any)
	Log(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type auditService struct {
	store storage.Store
}

func NewAuditService(store storage.Store) AuditService {
	return &auditService{store: store}
}

func (s *auditService) Record(ctx context.Context, actorID, action, targetType, targetID string, details any) {
	raw, err := json.Marshal(details)
	if err != nil {
		logger.Warn().Err(err).
			Str("action", action).
			Str("target_id", targetID).
			Msg("Audit details not serializable")
		raw = []byte("{}")
	}
	entry := &models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    raw,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		logger.Warn().Err(err).
			Str("action", action).
			Str("target_type", targetType).
			Str("target_id", targetID).
			Msg("Audit append failed")
	}
}

func (s *auditService) Log(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	entries, err := s.store.AuditLog(ctx, limit)
	if err != nil {
		return nil, mapStorageError("audit log", err)
	}
	return entries, nil
}
