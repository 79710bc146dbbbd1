package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/response"
)

type assignmentService interface {
	Toggle(viewID, memberID string) (*models.SelectionState, error)
	SelectAll(viewID string, ids []string) (*models.SelectionState, error)
	Clear(viewID string) (*models.SelectionState, error)
	Status(viewID string, kind models.RoleKind) (*models.SelectionState, error)
	BulkAssign(ctx context.Context, viewID string, kind models.RoleKind, roleID string) (*models.BulkAssignResult, error)
}

// SelectionHandler exposes the selection of a directory view and bulk assignment.
type SelectionHandler struct {
	service assignmentService
}

// NewSelectionHandler builds a selection handler.
func NewSelectionHandler(service assignmentService) *SelectionHandler {
	return &SelectionHandler{service: service}
}

// Toggle godoc
// @Summary Toggle one member in the selection
// @Tags Selection
// @Accept json
// @Produce json
// @Param viewId path string true "View ID"
// @Param payload body dto.ToggleSelectionRequest true "Member"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/selection/toggle [post]
func (h *SelectionHandler) Toggle(c *gin.Context) {
	var req dto.ToggleSelectionRequest
	if !bindJSON(c, &req, "invalid selection payload") {
		return
	}
	state, err := h.service.Toggle(c.Param("viewId"), req.MemberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// SelectAll godoc
// @Summary Select members, or the whole buffer when none are given
// @Tags Selection
// @Accept json
// @Produce json
// @Param viewId path string true "View ID"
// @Param payload body dto.SelectAllRequest false "Members"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/selection/all [post]
func (h *SelectionHandler) SelectAll(c *gin.Context) {
	var req dto.SelectAllRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid selection payload") {
		return
	}
	state, err := h.service.SelectAll(c.Param("viewId"), req.MemberIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Clear godoc
// @Summary Clear the selection
// @Tags Selection
// @Produce json
// @Param viewId path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/selection [delete]
func (h *SelectionHandler) Clear(c *gin.Context) {
	state, err := h.service.Clear(c.Param("viewId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Status godoc
// @Summary Aggregate assignment status of the selection
// @Tags Selection
// @Produce json
// @Param viewId path string true "View ID"
// @Param role query string true "navigator or doctor"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/selection/status [get]
func (h *SelectionHandler) Status(c *gin.Context) {
	state, err := h.service.Status(c.Param("viewId"), models.RoleKind(c.Query("role")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Assign godoc
// @Summary Assign a navigator or doctor to every selected member
// @Tags Selection
// @Accept json
// @Produce json
// @Param viewId path string true "View ID"
// @Param payload body dto.BulkAssignRequest true "Role assignment"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/selection/assign [post]
func (h *SelectionHandler) Assign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	result, err := h.service.BulkAssign(c.Request.Context(), c.Param("viewId"), req.Role, req.RoleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
