package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-console/internal/middleware"
	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/pkg/response"
)

type packageCatalog interface {
	List(ctx context.Context) ([]models.Package, bool, error)
	Invalidate(ctx context.Context) error
}

// PackageHandler exposes the package catalog.
type PackageHandler struct {
	catalog packageCatalog
}

// NewPackageHandler builds a package handler.
func NewPackageHandler(catalog packageCatalog) *PackageHandler {
	return &PackageHandler{catalog: catalog}
}

// List godoc
// @Summary List active catalog packages
// @Tags Packages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /packages [get]
func (h *PackageHandler) List(c *gin.Context) {
	packages, cacheHit, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, packages, nil, middleware.ExtractMeta(c))
}

// Invalidate godoc
// @Summary Drop the cached catalog
// @Tags Packages
// @Success 204
// @Router /packages/cache [delete]
func (h *PackageHandler) Invalidate(c *gin.Context) {
	if err := h.catalog.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
