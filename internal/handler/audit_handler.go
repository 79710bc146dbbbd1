package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/response"
)

const auditResourceMember = "member"

type auditTrail interface {
	Trail(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the console audit trail.
type AuditHandler struct {
	trail auditTrail
}

// NewAuditHandler builds an audit handler.
func NewAuditHandler(trail auditTrail) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// Member godoc
// @Summary Console actions recorded for a member
// @Tags Audit
// @Produce json
// @Param id path string true "Member ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/audit [get]
func (h *AuditHandler) Member(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.trail.Trail(c.Request.Context(), auditResourceMember, c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
