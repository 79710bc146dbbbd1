package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/pkg/response"
)

type subscriptionService interface {
	Details(ctx context.Context, memberID string, cached bool) (*dto.SubscriptionDetails, error)
	CloseSession(memberID string)
	Register(ctx context.Context, memberID string, applyDiscount bool) (*dto.SubscriptionDetails, error)
	ActivatePremium(ctx context.Context, memberID string) (*dto.SubscriptionDetails, error)
	Renew(ctx context.Context, memberID string) (*dto.SubscriptionDetails, error)
	AddPackage(ctx context.Context, memberID, packageID string) (*dto.SubscriptionDetails, error)
}

// SubscriptionHandler exposes the membership lifecycle of one member.
type SubscriptionHandler struct {
	service subscriptionService
}

// NewSubscriptionHandler builds a subscription handler.
func NewSubscriptionHandler(service subscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Details godoc
// @Summary Membership and package details of a member
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Member ID"
// @Param cached query bool false "Serve the open session without a remote call"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/subscriptions [get]
func (h *SubscriptionHandler) Details(c *gin.Context) {
	cached, _ := strconv.ParseBool(c.DefaultQuery("cached", "false"))
	details, err := h.service.Details(c.Request.Context(), c.Param("id"), cached)
	h.respond(c, details, err)
}

// CloseSession godoc
// @Summary Close the details session of a member
// @Tags Subscriptions
// @Param id path string true "Member ID"
// @Success 204
// @Router /members/{id}/subscriptions/session [delete]
func (h *SubscriptionHandler) CloseSession(c *gin.Context) {
	h.service.CloseSession(c.Param("id"))
	response.NoContent(c)
}

// Register godoc
// @Summary Register a member
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.RegisterRequest false "Registration options"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/membership/register [post]
func (h *SubscriptionHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	details, err := h.service.Register(c.Request.Context(), c.Param("id"), req.ApplyDiscount)
	h.respond(c, details, err)
}

// ActivatePremium godoc
// @Summary Activate a premium membership
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/membership/premium [post]
func (h *SubscriptionHandler) ActivatePremium(c *gin.Context) {
	details, err := h.service.ActivatePremium(c.Request.Context(), c.Param("id"))
	h.respond(c, details, err)
}

// Renew godoc
// @Summary Renew an active premium membership
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/membership/renewal [post]
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	details, err := h.service.Renew(c.Request.Context(), c.Param("id"))
	h.respond(c, details, err)
}

// AddPackage godoc
// @Summary Subscribe a member to a catalog package
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.AddPackageRequest true "Package"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/subscriptions [post]
func (h *SubscriptionHandler) AddPackage(c *gin.Context) {
	var req dto.AddPackageRequest
	if !bindJSON(c, &req, "invalid package payload") {
		return
	}
	details, err := h.service.AddPackage(c.Request.Context(), c.Param("id"), req.PackageID)
	h.respond(c, details, err)
}

func (h *SubscriptionHandler) respond(c *gin.Context, details *dto.SubscriptionDetails, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}
