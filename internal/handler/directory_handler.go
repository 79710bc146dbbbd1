package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/internal/models"
	"github.com/noah-isme/member-console/internal/service"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
	"github.com/noah-isme/member-console/pkg/response"
)

type directoryService interface {
	Open(scope models.DirectoryScope) (*service.DirectoryView, error)
	Snapshot(viewID string) (*models.ViewSnapshot, error)
	Close(viewID string) error
	Query(ctx context.Context, viewID string, q models.DirectoryQuery, mode models.FetchMode) (*models.FetchResult, error)
	LoadMore(ctx context.Context, viewID string) (*models.FetchResult, error)
	Refresh(ctx context.Context, viewID string) (*models.FetchResult, error)
	CreateMember(ctx context.Context, viewID string, draft models.MemberDraft) (*models.Member, error)
	UpdateMember(ctx context.Context, viewID, memberID string, updated models.MemberProfile) (*models.Member, error)
	DeleteMember(ctx context.Context, viewID, memberID string) error
	Rank(viewID, term string) ([]models.RankedMember, error)
}

type exportService interface {
	Export(viewID string, format service.ExportFormat) (*service.ExportFile, error)
}

// memberQueryParams are the directory query parameters with fixed meaning.
// Every other parameter is forwarded as a filter.
type memberQueryParams struct {
	Search    string `form:"search"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Mode      string `form:"mode"`
}

var memberQueryKeys = map[string]struct{}{
	"search": {}, "page": {}, "limit": {}, "sortBy": {}, "sortOrder": {}, "mode": {},
}

// DirectoryHandler exposes directory views and their rows.
type DirectoryHandler struct {
	directory directoryService
	exports   exportService
}

// NewDirectoryHandler builds a directory handler.
func NewDirectoryHandler(directory directoryService, exports exportService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, exports: exports}
}

// Open godoc
// @Summary Open a directory view
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body dto.OpenViewRequest false "Population scope"
// @Success 201 {object} response.Envelope
// @Router /directory/views [post]
func (h *DirectoryHandler) Open(c *gin.Context) {
	var req dto.OpenViewRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid view scope") {
		return
	}
	view, err := h.directory.Open(models.DirectoryScope{IsStudent: req.IsStudent, ExcludeType: req.ExcludeType})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view.Snapshot())
}

// Get godoc
// @Summary Get a directory view snapshot
// @Tags Directory
// @Produce json
// @Param viewId path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId} [get]
func (h *DirectoryHandler) Get(c *gin.Context) {
	snap, err := h.directory.Snapshot(c.Param("viewId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, paginationOf(snap))
}

// Close godoc
// @Summary Close a directory view
// @Tags Directory
// @Param viewId path string true "View ID"
// @Success 204
// @Router /directory/views/{viewId} [delete]
func (h *DirectoryHandler) Close(c *gin.Context) {
	if err := h.directory.Close(c.Param("viewId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Members godoc
// @Summary Query members into a directory view
// @Tags Directory
// @Produce json
// @Param viewId path string true "View ID"
// @Param search query string false "Search term"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "asc or desc"
// @Param mode query string false "replace or append"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/members [get]
func (h *DirectoryHandler) Members(c *gin.Context) {
	var params memberQueryParams
	if err := bindQuery(c, &params); err != nil {
		response.Error(c, err)
		return
	}
	mode := models.FetchReplace
	if params.Mode != "" {
		mode = models.FetchMode(params.Mode)
	}
	q := models.DirectoryQuery{
		Search:   params.Search,
		Filters:  extraQuery(c, memberQueryKeys),
		Page:     params.Page,
		PageSize: params.Limit,
		Sort:     models.Sort{By: params.SortBy, Order: models.SortOrder(params.SortOrder)},
	}

	viewID := c.Param("viewId")
	result, err := h.directory.Query(c.Request.Context(), viewID, q, mode)
	h.respondFetch(c, viewID, result, err)
}

// More godoc
// @Summary Append the next page to a directory view
// @Tags Directory
// @Produce json
// @Param viewId path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/members/more [post]
func (h *DirectoryHandler) More(c *gin.Context) {
	viewID := c.Param("viewId")
	result, err := h.directory.LoadMore(c.Request.Context(), viewID)
	h.respondFetch(c, viewID, result, err)
}

// Refresh godoc
// @Summary Reload the first page of the last query
// @Tags Directory
// @Produce json
// @Param viewId path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/refresh [post]
func (h *DirectoryHandler) Refresh(c *gin.Context) {
	viewID := c.Param("viewId")
	result, err := h.directory.Refresh(c.Request.Context(), viewID)
	h.respondFetch(c, viewID, result, err)
}

// respondFetch renders a fetch outcome. A superseded fetch is not an error for
// the caller: the current view state is returned instead.
func (h *DirectoryHandler) respondFetch(c *gin.Context, viewID string, result *models.FetchResult, err error) {
	if errors.Is(err, appErrors.ErrStaleResponse) {
		snap, snapErr := h.directory.Snapshot(viewID)
		if snapErr != nil {
			response.Error(c, snapErr)
			return
		}
		response.JSON(c, http.StatusOK, snap, paginationOf(snap), map[string]interface{}{"superseded": true})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	if result == nil {
		response.JSON(c, http.StatusOK, []models.Member{}, nil, map[string]interface{}{"exhausted": true})
		return
	}
	response.JSON(c, http.StatusOK, result.Rows, &models.Pagination{
		Page:    result.Page,
		Pages:   result.Pages,
		Total:   result.Total,
		HasMore: result.HasMore,
	})
}

// CreateMember godoc
// @Summary Create a member from a directory view
// @Tags Directory
// @Accept json
// @Produce json
// @Param viewId path string true "View ID"
// @Param payload body models.MemberDraft true "Member draft"
// @Success 201 {object} response.Envelope
// @Router /directory/views/{viewId}/members [post]
func (h *DirectoryHandler) CreateMember(c *gin.Context) {
	var draft models.MemberDraft
	if !bindJSON(c, &draft, "invalid member payload") {
		return
	}
	member, err := h.directory.CreateMember(c.Request.Context(), c.Param("viewId"), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateMember godoc
// @Summary Update the profile of a buffered member
// @Tags Directory
// @Accept json
// @Produce json
// @Param viewId path string true "View ID"
// @Param id path string true "Member ID"
// @Param payload body models.MemberProfile true "Full edited profile"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/members/{id} [patch]
func (h *DirectoryHandler) UpdateMember(c *gin.Context) {
	var profile models.MemberProfile
	if !bindJSON(c, &profile, "invalid member payload") {
		return
	}
	member, err := h.directory.UpdateMember(c.Request.Context(), c.Param("viewId"), c.Param("id"), profile)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// DeleteMember godoc
// @Summary Delete a buffered member
// @Tags Directory
// @Param viewId path string true "View ID"
// @Param id path string true "Member ID"
// @Success 204
// @Router /directory/views/{viewId}/members/{id} [delete]
func (h *DirectoryHandler) DeleteMember(c *gin.Context) {
	if err := h.directory.DeleteMember(c.Request.Context(), c.Param("viewId"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Rank godoc
// @Summary Fuzzy rank the buffered members
// @Tags Directory
// @Produce json
// @Param viewId path string true "View ID"
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /directory/views/{viewId}/members/rank [get]
func (h *DirectoryHandler) Rank(c *gin.Context) {
	ranked, err := h.directory.Rank(c.Param("viewId"), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}

// Export godoc
// @Summary Export the buffered members
// @Tags Directory
// @Produce text/csv
// @Produce application/pdf
// @Param viewId path string true "View ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /directory/views/{viewId}/export [get]
func (h *DirectoryHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	file, err := h.exports.Export(c.Param("viewId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func paginationOf(snap *models.ViewSnapshot) *models.Pagination {
	p := &models.Pagination{Page: snap.Page, Pages: snap.Pages, Total: snap.Total, HasMore: snap.HasMore}
	if snap.Descriptor != nil {
		p.PageSize = snap.Descriptor.Limit
	}
	return p
}
