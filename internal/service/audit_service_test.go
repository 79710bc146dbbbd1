package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/config"
	"github.com/noah-isme/member-console/pkg/middleware/requestid"
)

type auditStoreStub struct {
	mu       sync.Mutex
	logs     []models.AuditLog
	failures int
	listErr  error
}

func (s *auditStoreStub) Create(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	s.logs = append(s.logs, *log)
	return nil
}

func (s *auditStoreStub) ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.logs...), nil
}

func (s *auditStoreStub) written() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.logs...)
}

func TestAuditServiceRecordsWithActorAndRequestID(t *testing.T) {
	store := &auditStoreStub{failures: 1}
	metrics := NewMetricsService()
	svc := NewAuditService(store, config.AuditConfig{Enabled: true, WorkerConcurrency: 1, WorkerRetries: 2, RetryDelay: time.Millisecond}, metrics, nil)
	svc.Start(context.Background())

	ctx := models.ContextWithActor(requestid.WithContext(context.Background(), "req-7"), "staff-1")
	svc.Record(ctx, models.AuditActionPremiumRenew, "member", "m-1", map[string]int{"renewalCount": 2})
	svc.Stop()

	logs := store.written()
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, models.AuditActionPremiumRenew, entry.Action)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "staff-1", *entry.ActorID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "m-1", *entry.ResourceID)
	assert.Equal(t, "req-7", entry.RequestID)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, 2, payload["renewalCount"])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.auditWrites.WithLabelValues(OutcomeSuccess)))
}

func TestAuditServiceDisabledIsNoop(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, config.AuditConfig{Enabled: false}, nil, nil)
	svc.Start(context.Background())
	svc.Record(context.Background(), models.AuditActionMemberDelete, "member", "m-1", nil)
	svc.Stop()
	assert.Empty(t, store.written())

	var nilSvc *AuditService
	nilSvc.Record(context.Background(), models.AuditActionMemberDelete, "member", "m-1", nil)
	logs, err := nilSvc.Trail(context.Background(), "member", "m-1", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAuditServiceTrailWrapsStoreError(t *testing.T) {
	store := &auditStoreStub{listErr: errors.New("relation does not exist")}
	svc := NewAuditService(store, config.AuditConfig{Enabled: true}, nil, nil)

	_, err := svc.Trail(context.Background(), "member", "m-1", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load audit trail")
}

func TestAuditServiceStopKeepsEntriesWithTransientFailures(t *testing.T) {
	store := &auditStoreStub{failures: 3}
	svc := NewAuditService(store, config.AuditConfig{Enabled: true, WorkerConcurrency: 2, WorkerRetries: 3, RetryDelay: 5 * time.Millisecond}, NewMetricsService(), nil)
	svc.Start(context.Background())

	for _, id := range []string{"m-1", "m-2", "m-3"} {
		svc.Record(context.Background(), models.AuditActionMemberUpdate, "member", id, nil)
	}
	svc.Stop()

	assert.Len(t, store.written(), 3)
}
