package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-onboarding/internal/events"
)

// AuditService writes one structured audit line per domain event.
// Payloads never carry salary amounts, passwords or keys.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes the audit log to every audited event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	events.SubscribeAll(a.dispatcher, a.handle, events.AuditEvents...)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Actor.Username != "" {
		fields = append(fields, zap.String("actor", event.Actor.Username))
	}
	if event.Actor.Service != "" {
		fields = append(fields, zap.String("actor_service", event.Actor.Service))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info("audit", fields...)
	return nil
}
