package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/page"
	"github.com/noah-isme/sma-adp-console/internal/service"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

type pageService interface {
	View(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	Refresh(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	Search(ctx context.Context, ws *service.Workspace, name string, req dto.SearchRequest) (*page.View, error)
	SetFilter(ctx context.Context, ws *service.Workspace, name, category string, req dto.FilterRequest) (*page.View, error)
	ClearFilters(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	Sort(ctx context.Context, ws *service.Workspace, name string, req dto.SortRequest) (*page.View, error)
	Paginate(ctx context.Context, ws *service.Workspace, name string, req dto.PaginationRequest) (*page.View, error)
	Suggest(ctx context.Context, ws *service.Workspace, name string, q dto.SuggestQuery) ([]listquery.Suggestion[models.Entity], error)
	ToggleSelection(ctx context.Context, ws *service.Workspace, name string, req dto.SelectionRequest) (*page.View, error)
	SelectVisible(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	ClearSelection(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	RequestBulk(ctx context.Context, ws *service.Workspace, name string, req dto.BulkRequest) (*bulkaction.Result, error)
	ConfirmBulk(ctx context.Context, ws *service.Workspace, name string) (*bulkaction.Result, error)
	CancelBulk(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	DismissBulk(ctx context.Context, ws *service.Workspace, name string) (*page.View, error)
	RowDetails(ctx context.Context, ws *service.Workspace, name, id string) (models.RowDetail, error)
	RefreshRow(ctx context.Context, ws *service.Workspace, name, id string) error
	SoftDelete(ctx context.Context, ws *service.Workspace, name, id string, req dto.SoftDeleteRequest) (*bulkaction.Result, error)
}

// PageHandler exposes list page state and operations.
type PageHandler struct {
	pages pageService
}

// NewPageHandler constructs the handler.
func NewPageHandler(pages pageService) *PageHandler {
	return &PageHandler{pages: pages}
}

// View godoc
// @Summary Derived list view
// @Description Current page of rows plus query parameters, selection and bulk state.
// @Tags Pages
// @Produce json
// @Param page path string true "Page name" Enums(students, schedules, rfid-logs)
// @Param X-Session-ID header string false "Console session"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pages/{page} [get]
func (h *PageHandler) View(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.View(ctx, ws, c.Param("page"))
	})
}

// Refresh godoc
// @Summary Refetch the collection
// @Tags Pages
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pages/{page}/refresh [post]
func (h *PageHandler) Refresh(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.Refresh(ctx, ws, c.Param("page"))
	})
}

// Search godoc
// @Summary Update the search text
// @Description The text is committed after the debounce unless immediate is set.
// @Tags Pages
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param payload body dto.SearchRequest true "Search text"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/search [put]
func (h *PageHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if !bindJSON(c, &req, "invalid search payload") {
		return
	}
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.Search(ctx, ws, c.Param("page"), req)
	})
}

// SetFilter godoc
// @Summary Replace one filter category
// @Tags Pages
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param category path string true "Filter category"
// @Param payload body dto.FilterRequest true "Accepted values"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/filters/{category} [put]
func (h *PageHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if !bindJSON(c, &req, "invalid filter payload") {
		return
	}
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.SetFilter(ctx, ws, c.Param("page"), c.Param("category"), req)
	})
}

// ClearFilters godoc
// @Summary Reset search, filters, sort and pagination
// @Tags Pages
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/filters [delete]
func (h *PageHandler) ClearFilters(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.ClearFilters(ctx, ws, c.Param("page"))
	})
}

// Sort godoc
// @Summary Change the sort
// @Tags Pages
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param payload body dto.SortRequest true "Sort field and optional order"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/sort [post]
func (h *PageHandler) Sort(c *gin.Context) {
	var req dto.SortRequest
	if !bindJSON(c, &req, "invalid sort payload") {
		return
	}
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.Sort(ctx, ws, c.Param("page"), req)
	})
}

// Paginate godoc
// @Summary Change page or page size
// @Tags Pages
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param payload body dto.PaginationRequest true "Page and page size"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/pagination [put]
func (h *PageHandler) Paginate(c *gin.Context) {
	var req dto.PaginationRequest
	if !bindJSON(c, &req, "invalid pagination payload") {
		return
	}
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.Paginate(ctx, ws, c.Param("page"), req)
	})
}

// Suggest godoc
// @Summary Fuzzy quick-jump suggestions
// @Tags Pages
// @Produce json
// @Param page path string true "Page name"
// @Param q query string true "Query"
// @Param limit query int false "Maximum suggestions"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/suggest [get]
func (h *PageHandler) Suggest(c *gin.Context) {
	var q dto.SuggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	suggestions, err := h.pages.Suggest(c.Request.Context(), ws, c.Param("page"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// ToggleSelection godoc
// @Summary Toggle one row in the selection
// @Tags Selection
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param payload body dto.SelectionRequest true "Row id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pages/{page}/selection/toggle [post]
func (h *PageHandler) ToggleSelection(c *gin.Context) {
	var req dto.SelectionRequest
	if !bindJSON(c, &req, "invalid selection payload") {
		return
	}
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.ToggleSelection(ctx, ws, c.Param("page"), req)
	})
}

// SelectVisible godoc
// @Summary Select every row on the current page
// @Tags Selection
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/selection/visible [post]
func (h *PageHandler) SelectVisible(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.SelectVisible(ctx, ws, c.Param("page"))
	})
}

// ClearSelection godoc
// @Summary Clear the selection
// @Tags Selection
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/selection [delete]
func (h *PageHandler) ClearSelection(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.ClearSelection(ctx, ws, c.Param("page"))
	})
}

// RequestBulk godoc
// @Summary Start a bulk operation on the selection
// @Description Destructive operations return state confirming and wait for confirm or cancel.
// @Tags Bulk
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param payload body dto.BulkRequest true "Operation"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pages/{page}/bulk [post]
func (h *PageHandler) RequestBulk(c *gin.Context) {
	var req dto.BulkRequest
	if !bindJSON(c, &req, "invalid bulk payload") {
		return
	}
	h.respondResult(c, func(ctx context.Context, ws *service.Workspace) (*bulkaction.Result, error) {
		return h.pages.RequestBulk(ctx, ws, c.Param("page"), req)
	})
}

// ConfirmBulk godoc
// @Summary Confirm the pending bulk operation
// @Tags Bulk
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pages/{page}/bulk/confirm [post]
func (h *PageHandler) ConfirmBulk(c *gin.Context) {
	h.respondResult(c, func(ctx context.Context, ws *service.Workspace) (*bulkaction.Result, error) {
		return h.pages.ConfirmBulk(ctx, ws, c.Param("page"))
	})
}

// CancelBulk godoc
// @Summary Cancel the pending bulk operation
// @Tags Bulk
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pages/{page}/bulk/cancel [post]
func (h *PageHandler) CancelBulk(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.CancelBulk(ctx, ws, c.Param("page"))
	})
}

// DismissBulk godoc
// @Summary Acknowledge a finished bulk operation
// @Tags Bulk
// @Produce json
// @Param page path string true "Page name"
// @Success 200 {object} response.Envelope
// @Router /pages/{page}/bulk/dismiss [post]
func (h *PageHandler) DismissBulk(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, ws *service.Workspace) (*page.View, error) {
		return h.pages.DismissBulk(ctx, ws, c.Param("page"))
	})
}

// RowDetails godoc
// @Summary Expanded row details
// @Description Fetched once per row and cached until refreshed.
// @Tags Rows
// @Produce json
// @Param page path string true "Page name"
// @Param id path string true "Row id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pages/{page}/rows/{id}/details [get]
func (h *PageHandler) RowDetails(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	detail, err := h.pages.RowDetails(c.Request.Context(), ws, c.Param("page"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// RefreshRow godoc
// @Summary Forget cached row details
// @Tags Rows
// @Param page path string true "Page name"
// @Param id path string true "Row id"
// @Success 204
// @Router /pages/{page}/rows/{id}/details [delete]
func (h *PageHandler) RefreshRow(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	if err := h.pages.RefreshRow(c.Request.Context(), ws, c.Param("page"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SoftDelete godoc
// @Summary Archive or deactivate one row
// @Tags Rows
// @Accept json
// @Produce json
// @Param page path string true "Page name"
// @Param id path string true "Row id"
// @Param payload body dto.SoftDeleteRequest true "Reason and action"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pages/{page}/rows/{id}/soft-delete [post]
func (h *PageHandler) SoftDelete(c *gin.Context) {
	var req dto.SoftDeleteRequest
	if !bindJSON(c, &req, "invalid soft delete payload") {
		return
	}
	h.respondResult(c, func(ctx context.Context, ws *service.Workspace) (*bulkaction.Result, error) {
		return h.pages.SoftDelete(ctx, ws, c.Param("page"), c.Param("id"), req)
	})
}

func (h *PageHandler) respondView(c *gin.Context, fn func(ctx context.Context, ws *service.Workspace) (*page.View, error)) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	view, err := fn(c.Request.Context(), ws)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := view.Pagination
	response.JSON(c, http.StatusOK, view, &pagination)
}

func (h *PageHandler) respondResult(c *gin.Context, fn func(ctx context.Context, ws *service.Workspace) (*bulkaction.Result, error)) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), ws)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"state": res.State}
	if res.Err != nil {
		meta["error"] = appErrors.FromError(res.Err)
	}
	response.JSON(c, http.StatusOK, res, nil, meta)
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
