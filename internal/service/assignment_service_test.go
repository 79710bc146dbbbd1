package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

func assignedTo(m models.Member, kind models.RoleKind, id string) models.Member {
	a := &models.TeamAssignment{ID: id, Name: "Staff " + id, AssignedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if kind == models.RoleNavigator {
		m.HealthcareTeam.Navigator = a
	} else {
		m.HealthcareTeam.Doctor = a
	}
	return m
}

func newAssignmentFixture(t *testing.T, members []models.Member) (*AssignmentService, *memberRepoStub, *auditRecorderStub, string) {
	t.Helper()
	directory, repo, audit, viewID := newDirectoryFixture(t, members)
	return NewAssignmentService(directory, repo, audit, directory.metrics, nil), repo, audit, viewID
}

func TestAssignmentStatusLabels(t *testing.T) {
	members := makeMembers("m", 3)
	members[0] = assignedTo(members[0], models.RoleNavigator, "n-1")
	svc, _, _, viewID := newAssignmentFixture(t, members)

	_, err := svc.Toggle(viewID, "m-1")
	require.NoError(t, err)
	state, err := svc.Status(viewID, models.RoleNavigator)
	require.NoError(t, err)
	assert.Equal(t, "Change", state.Label)
	assert.True(t, state.Status.AllAssigned)

	_, err = svc.Toggle(viewID, "m-2")
	require.NoError(t, err)
	state, err = svc.Status(viewID, models.RoleNavigator)
	require.NoError(t, err)
	assert.Equal(t, "Assign & Change", state.Label)
	assert.Equal(t, 2, state.Count)

	state, err = svc.Status(viewID, models.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, "Assign", state.Label)

	_, err = svc.Status(viewID, models.RoleKind("nurse"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestBulkAssignSuccessClearsSelectionAndRefreshes(t *testing.T) {
	svc, repo, audit, viewID := newAssignmentFixture(t, makeMembers("m", 3))
	_, err := svc.SelectAll(viewID, []string{"m-1", "m-3"})
	require.NoError(t, err)

	result, err := svc.BulkAssign(context.Background(), viewID, models.RoleDoctor, " d-9 ")
	require.NoError(t, err)
	assert.Equal(t, "d-9", result.RoleID)
	assert.ElementsMatch(t, []string{"m-1", "m-3"}, result.MemberIDs)
	assert.True(t, result.Refreshed)

	require.Len(t, repo.assigned, 1)
	assert.ElementsMatch(t, []string{"m-1", "m-3"}, repo.assigned[0])
	assert.Equal(t, 2, repo.listCalls)

	state, err := svc.Clear(viewID)
	require.NoError(t, err)
	assert.Zero(t, state.Count)
	assert.Equal(t, []string{models.AuditActionBulkAssign, models.AuditActionBulkAssign}, audit.actions())
	assert.ElementsMatch(t, []string{"m-1", "m-3"}, audit.resourceIDs())
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.bulkAssign.WithLabelValues("doctor", OutcomeSuccess)))
}

func TestBulkAssignFailureKeepsSelection(t *testing.T) {
	svc, repo, audit, viewID := newAssignmentFixture(t, makeMembers("m", 2))
	repo.assignErr = appErrors.Clone(appErrors.ErrServer, "doctor not found")
	_, err := svc.SelectAll(viewID, nil)
	require.NoError(t, err)

	_, err = svc.BulkAssign(context.Background(), viewID, models.RoleDoctor, "d-404")
	assert.True(t, errors.Is(err, appErrors.ErrServer))

	state, err := svc.Status(viewID, models.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Count)
	assert.Equal(t, 1, repo.listCalls)
	assert.Empty(t, audit.actions())
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.bulkAssign.WithLabelValues("doctor", OutcomeError)))
}

func TestBulkAssignValidation(t *testing.T) {
	svc, repo, _, viewID := newAssignmentFixture(t, makeMembers("m", 2))

	_, err := svc.BulkAssign(context.Background(), viewID, models.RoleNavigator, "n-1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Toggle(viewID, "m-1")
	require.NoError(t, err)
	_, err = svc.BulkAssign(context.Background(), viewID, models.RoleNavigator, "  ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.BulkAssign(context.Background(), viewID, models.RoleKind("nurse"), "n-1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.BulkAssign(context.Background(), "missing", models.RoleNavigator, "n-1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, repo.assigned)
}

func TestBulkAssignRejectsConcurrentRequest(t *testing.T) {
	svc, _, _, viewID := newAssignmentFixture(t, makeMembers("m", 1))
	_, err := svc.Toggle(viewID, "m-1")
	require.NoError(t, err)

	release, ok := svc.inFlight.acquire(viewID)
	require.True(t, ok)
	_, err = svc.BulkAssign(context.Background(), viewID, models.RoleNavigator, "n-1")
	assert.True(t, errors.Is(err, appErrors.ErrMutationInFlight))
	release()

	_, err = svc.BulkAssign(context.Background(), viewID, models.RoleNavigator, "n-1")
	assert.NoError(t, err)
}
