package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

type assignmentServiceMock struct {
	state      *models.SelectionState
	err        error
	lastIDs    []string
	lastRole   models.RoleKind
	lastRoleID string
	assignErr  error
	assigned   bool
}

func (m *assignmentServiceMock) Toggle(viewID, memberID string) (*models.SelectionState, error) {
	m.lastIDs = []string{memberID}
	return m.state, m.err
}

func (m *assignmentServiceMock) SelectAll(viewID string, ids []string) (*models.SelectionState, error) {
	m.lastIDs = ids
	return m.state, m.err
}

func (m *assignmentServiceMock) Clear(viewID string) (*models.SelectionState, error) {
	return m.state, m.err
}

func (m *assignmentServiceMock) Status(viewID string, kind models.RoleKind) (*models.SelectionState, error) {
	m.lastRole = kind
	return m.state, m.err
}

func (m *assignmentServiceMock) BulkAssign(ctx context.Context, viewID string, kind models.RoleKind, roleID string) (*models.BulkAssignResult, error) {
	m.assigned = true
	m.lastRole = kind
	m.lastRoleID = roleID
	if m.assignErr != nil {
		return nil, m.assignErr
	}
	return &models.BulkAssignResult{Role: kind, RoleID: roleID, Refreshed: true}, nil
}

var viewParams = gin.Params{{Key: "viewId", Value: "v-1"}}

func TestSelectionHandlerToggleRequiresMember(t *testing.T) {
	mock := &assignmentServiceMock{}
	handler := NewSelectionHandler(mock)
	c, w := newDirectoryContext(http.MethodPost, "/directory/views/v-1/selection/toggle", []byte(`{}`), viewParams)

	handler.Toggle(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.lastIDs)
}

func TestSelectionHandlerSelectAllWithoutBody(t *testing.T) {
	mock := &assignmentServiceMock{state: &models.SelectionState{ViewID: "v-1", IDs: []string{"m-1", "m-2"}, Count: 2}}
	handler := NewSelectionHandler(mock)
	c, w := newDirectoryContext(http.MethodPost, "/directory/views/v-1/selection/all", nil, viewParams)

	handler.SelectAll(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mock.lastIDs)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
}

func TestSelectionHandlerStatus(t *testing.T) {
	mock := &assignmentServiceMock{state: &models.SelectionState{ViewID: "v-1", Role: models.RoleDoctor, Label: "Assign"}}
	handler := NewSelectionHandler(mock)
	c, w := newDirectoryContext(http.MethodGet, "/directory/views/v-1/selection/status?role=doctor", nil, viewParams)

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleDoctor, mock.lastRole)
	assert.Equal(t, "Assign", decodeEnvelope(t, w)["data"].(map[string]interface{})["label"])
}

func TestSelectionHandlerAssign(t *testing.T) {
	mock := &assignmentServiceMock{}
	handler := NewSelectionHandler(mock)
	c, w := newDirectoryContext(http.MethodPost, "/directory/views/v-1/selection/assign", []byte(`{"role":"navigator","roleId":"n-1"}`), viewParams)

	handler.Assign(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleNavigator, mock.lastRole)
	assert.Equal(t, "n-1", mock.lastRoleID)
}

func TestSelectionHandlerAssignRejectsUnknownRole(t *testing.T) {
	mock := &assignmentServiceMock{}
	handler := NewSelectionHandler(mock)
	c, w := newDirectoryContext(http.MethodPost, "/directory/views/v-1/selection/assign", []byte(`{"role":"nurse","roleId":"x"}`), viewParams)

	handler.Assign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.assigned)
}

func TestSelectionHandlerAssignInFlight(t *testing.T) {
	mock := &assignmentServiceMock{assignErr: appErrors.ErrMutationInFlight}
	handler := NewSelectionHandler(mock)
	c, w := newDirectoryContext(http.MethodPost, "/directory/views/v-1/selection/assign", []byte(`{"role":"doctor","roleId":"d-1"}`), viewParams)

	handler.Assign(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrMutationInFlight.Code, decodeEnvelope(t, w)["error"].(map[string]interface{})["code"])
}
