package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

// RoleAssigner issues bulk role assignments.
type RoleAssigner interface {
	AssignRole(ctx context.Context, kind models.RoleKind, memberIDs []string, roleID string) error
}

// AssignmentService coordinates the selection of a directory view with bulk role assignment.
type AssignmentService struct {
	directory *DirectoryService
	repo      RoleAssigner
	audit     AuditRecorder
	metrics   *MetricsService
	logger    *zap.Logger
	inFlight  *inFlightGuard
}

// NewAssignmentService constructs the coordinator.
func NewAssignmentService(directory *DirectoryService, repo RoleAssigner, audit AuditRecorder, metrics *MetricsService, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		directory: directory,
		repo:      repo,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
		inFlight:  newInFlightGuard(),
	}
}

// Toggle flips one member in the view's selection.
func (s *AssignmentService) Toggle(viewID, memberID string) (*models.SelectionState, error) {
	view, err := s.directory.View(viewID)
	if err != nil {
		return nil, err
	}
	if _, err := view.ToggleSelection(memberID); err != nil {
		return nil, err
	}
	return s.state(view, ""), nil
}

// SelectAll adds ids, or every committed row when ids is empty, to the selection.
func (s *AssignmentService) SelectAll(viewID string, ids []string) (*models.SelectionState, error) {
	view, err := s.directory.View(viewID)
	if err != nil {
		return nil, err
	}
	if _, err := view.SelectAll(ids); err != nil {
		return nil, err
	}
	return s.state(view, ""), nil
}

// Clear empties the selection.
func (s *AssignmentService) Clear(viewID string) (*models.SelectionState, error) {
	view, err := s.directory.View(viewID)
	if err != nil {
		return nil, err
	}
	view.ClearSelection()
	return s.state(view, ""), nil
}

// Status reports the selection with its aggregate assignment status for kind.
func (s *AssignmentService) Status(viewID string, kind models.RoleKind) (*models.SelectionState, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be navigator or doctor")
	}
	view, err := s.directory.View(viewID)
	if err != nil {
		return nil, err
	}
	return s.state(view, kind), nil
}

func (s *AssignmentService) state(view *DirectoryView, kind models.RoleKind) *models.SelectionState {
	ids, members := view.SelectionWithMembers()
	state := &models.SelectionState{ViewID: view.ID(), IDs: ids, Count: len(ids)}
	if kind != "" {
		status := ComputeAssignmentStatus(ids, members, kind)
		state.Role = kind
		state.Status = &status
		state.Label = status.ActionLabel()
	}
	return state
}

// BulkAssign assigns roleID to every selected member in one request. On success
// the selection is cleared and the view refreshed from the server; on failure
// nothing local changes.
func (s *AssignmentService) BulkAssign(ctx context.Context, viewID string, kind models.RoleKind, roleID string) (*models.BulkAssignResult, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be navigator or doctor")
	}
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roleId is required")
	}
	view, err := s.directory.View(viewID)
	if err != nil {
		return nil, err
	}

	release, ok := s.inFlight.acquire(viewID)
	if !ok {
		return nil, appErrors.ErrMutationInFlight
	}
	defer release()

	ids := view.SelectedIDs()
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "selection is empty")
	}

	err = s.repo.AssignRole(ctx, kind, ids, roleID)
	s.metrics.RecordBulkAssignment(string(kind), err)
	if err != nil {
		s.logger.Warn("bulk assignment failed",
			zap.String("view_id", viewID),
			zap.String("role", string(kind)),
			zap.Int("members", len(ids)),
			zap.Error(err),
		)
		return nil, err
	}

	view.ClearSelection()
	result := &models.BulkAssignResult{Role: kind, RoleID: roleID, MemberIDs: ids}
	if _, err := view.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after bulk assignment failed", zap.String("view_id", viewID), zap.Error(err))
	} else {
		result.Refreshed = true
	}

	// One entry per member so each member's trail shows the role change.
	if s.audit != nil {
		for _, id := range ids {
			s.audit.Record(ctx, models.AuditActionBulkAssign, auditResourceMember, id, map[string]interface{}{
				"role":      kind,
				"roleId":    roleID,
				"memberIds": ids,
			})
		}
	}
	return result, nil
}
