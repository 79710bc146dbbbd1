package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	"github.com/noah-isme/member-console/pkg/jobs"
	"github.com/noah-isme/member-console/pkg/middleware/requestid"
)

const auditTaskKind = "audit_log"

// AuditRecorder receives one entry per committed console mutation.
type AuditRecorder interface {
	Record(ctx context.Context, action, resource, resourceID string, payload interface{})
}

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditService writes the console audit trail off the request path.
type AuditService struct {
	store   auditStore
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the service. A nil store or a disabled config turns Record into a no-op.
func NewAuditService(store auditStore, cfg config.AuditConfig, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{store: store, metrics: metrics, logger: logger}
	if store == nil || !cfg.Enabled {
		return s
	}
	s.queue = jobs.NewQueue("audit", s.write, jobs.Options{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnDiscard: func(jobs.Task, error) {
			metrics.RecordAuditWrite(OutcomeDropped)
		},
	})
	return s
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains buffered entries and stops the workers.
func (s *AuditService) Stop() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Stop()
}

// Record queues an audit entry stamped with the actor and request id found in ctx.
func (s *AuditService) Record(ctx context.Context, action, resource, resourceID string, payload interface{}) {
	if s == nil || s.queue == nil {
		return
	}

	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		RequestID: requestid.FromContext(ctx),
	}
	if actor := models.ActorFromContext(ctx); actor != "" {
		entry.ActorID = &actor
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("audit payload not encodable", zap.String("action", action), zap.Error(err))
		} else {
			entry.Payload = raw
		}
	}

	if err := s.queue.Submit(jobs.Task{Kind: auditTaskKind, Payload: entry}); err != nil {
		s.metrics.RecordAuditWrite(OutcomeDropped)
		s.logger.Warn("audit entry dropped", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func (s *AuditService) write(ctx context.Context, task jobs.Task) error {
	entry, ok := task.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", task.Payload)
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return err
	}
	s.metrics.RecordAuditWrite(OutcomeSuccess)
	return nil
}

// Trail lists recent audit entries for one resource.
func (s *AuditService) Trail(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if s == nil || s.store == nil {
		return []models.AuditLog{}, nil
	}
	logs, err := s.store.ListByResource(ctx, resource, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return logs, nil
}
