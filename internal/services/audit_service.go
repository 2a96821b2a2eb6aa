package services

import (
	"context"

	"customermind/internal/models/doc_models"
	"customermind/internal/repositories"

	"go.uber.org/zap"
)

type AuditServiceInterface interface {
	// Record stores the event; failures are logged and never surface to the caller.
	Record(ctx context.Context, event doc_models.AuditEvent)
	Query(ctx context.Context, filter doc_models.AuditFilter) ([]doc_models.AuditEvent, int64, error)
}

type auditService struct {
	store repositories.AuditStore
	log   *zap.Logger
}

func NewAuditService(store repositories.AuditStore, log *zap.Logger) AuditServiceInterface {
	return &auditService{store: store, log: log}
}

func (s *auditService) Record(ctx context.Context, event doc_models.AuditEvent) {
	if err := s.store.Log(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn("audit event not stored",
			zap.String("category", event.Category),
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}
}

func (s *auditService) Query(ctx context.Context, filter doc_models.AuditFilter) ([]doc_models.AuditEvent, int64, error) {
	return s.store.Query(ctx, filter)
}
