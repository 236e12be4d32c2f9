package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type notifier interface {
	Create(ctx context.Context, n *models.Notification) error
}

// auditTrail emits best-effort audit records for engine mutations. Failures
// are logged and never fail the operation itself.
type auditTrail struct {
	repo   auditLogger
	logger *zap.Logger
}

func newAuditTrail(repo auditLogger, logger *zap.Logger) *auditTrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditTrail{repo: repo, logger: logger}
}

// Emit records one audit entry for a mutating operation.
func (a *auditTrail) Emit(ctx context.Context, actorID, action, entity, entityID string, details interface{}) {
	if a == nil || a.repo == nil {
		return
	}
	log := &models.AuditLog{
		Action:    action,
		Entity:    entity,
		IPAddress: "system",
		UserAgent: "workflow-engine",
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if entityID != "" {
		log.EntityID = &entityID
	}
	if details != nil {
		if payload, err := json.Marshal(details); err == nil {
			log.Details = payload
		}
	}
	if err := a.repo.CreateAuditLog(ctx, log); err != nil {
		a.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}

func (a *auditTrail) notify(ctx context.Context, sink notifier, n *models.Notification) {
	if a == nil || sink == nil || n == nil {
		return
	}
	if err := sink.Create(ctx, n); err != nil {
		a.logger.Warn("failed to emit notification", zap.String("type", string(n.Type)), zap.Error(err))
	}
}
