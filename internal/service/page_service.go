package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/page"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/listquery"
)

const defaultSuggestLimit = 8

// PageService validates dashboard input and applies it to a page of a workspace.
type PageService struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPageService constructs the service.
func NewPageService(validate *validator.Validate, logger *zap.Logger) *PageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PageService{validator: validate, logger: logger}
	svc.validator.RegisterValidation("operation_kind", func(fl validator.FieldLevel) bool {
		return bulkaction.ParseKind(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("sort_order", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
		case "asc", "ascending", "desc", "descending":
			return true
		}
		return false
	})
	return svc
}

// View returns the derived view of a page.
func (s *PageService) View(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// Refresh refetches the page collection. Load failures are part of the view.
func (s *PageService) Refresh(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil && errors.Is(err, appErrors.ErrBusy) {
		return nil, err
	}
	return viewOf(c), nil
}

// Search records typed search text.
func (s *PageService) Search(ctx context.Context, ws *Workspace, name string, req dto.SearchRequest) (*page.View, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	c.Query().SetSearchText(req.Text)
	if req.Immediate {
		c.Query().FlushSearch()
	}
	return viewOf(c), nil
}

// SetFilter replaces one filter category.
func (s *PageService) SetFilter(ctx context.Context, ws *Workspace, name, category string, req dto.FilterRequest) (*page.View, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Descriptor().FilterFields[category]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown filter category "+category)
	}
	c.Query().SetFilter(category, req.Values)
	return viewOf(c), nil
}

// ClearFilters resets search, filters, sort and pagination.
func (s *PageService) ClearFilters(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	c.Query().ClearFilters()
	return viewOf(c), nil
}

// Sort changes the sort field or order.
func (s *PageService) Sort(ctx context.Context, ws *Workspace, name string, req dto.SortRequest) (*page.View, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if req.Order == "" {
		c.Query().SetSort(req.Field)
	} else {
		c.Query().SetSortBy(req.Field, listquery.ParseSortOrder(req.Order))
	}
	return viewOf(c), nil
}

// Paginate changes the page size and/or the page.
func (s *PageService) Paginate(ctx context.Context, ws *Workspace, name string, req dto.PaginationRequest) (*page.View, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.Page == nil && req.PageSize == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "page or page_size required")
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if req.PageSize != nil {
		c.Query().SetPageSize(*req.PageSize)
	}
	if req.Page != nil {
		c.Query().SetPage(*req.Page)
	}
	return viewOf(c), nil
}

// Suggest returns fuzzy quick-jump matches.
func (s *PageService) Suggest(ctx context.Context, ws *Workspace, name string, q dto.SuggestQuery) ([]listquery.Suggestion[models.Entity], error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultSuggestLimit
	}
	out := c.Suggest(q.Q, limit)
	if out == nil {
		out = []listquery.Suggestion[models.Entity]{}
	}
	return out, nil
}

// ToggleSelection flips one row.
func (s *PageService) ToggleSelection(ctx context.Context, ws *Workspace, name string, req dto.SelectionRequest) (*page.View, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := c.ToggleSelection(req.ID); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// SelectVisible selects every row of the current page.
func (s *PageService) SelectVisible(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := c.SelectVisible(); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// ClearSelection empties the selection.
func (s *PageService) ClearSelection(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.ClearSelection(); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// RequestBulk starts an operation on the selection. Destructive kinds stop
// at Confirming.
func (s *PageService) RequestBulk(ctx context.Context, ws *Workspace, name string, req dto.BulkRequest) (*bulkaction.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	return operationResult(c.Bulk().RequestOperation(ctx, bulkaction.ParseKind(req.Kind), req.Payload))
}

// ConfirmBulk executes the operation awaiting confirmation.
func (s *PageService) ConfirmBulk(ctx context.Context, ws *Workspace, name string) (*bulkaction.Result, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	return operationResult(c.Bulk().Confirm(ctx))
}

// CancelBulk abandons the operation awaiting confirmation.
func (s *PageService) CancelBulk(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.Bulk().Cancel(); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// DismissBulk returns a finished operation to Idle.
func (s *PageService) DismissBulk(ctx context.Context, ws *Workspace, name string) (*page.View, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	c.Bulk().Dismiss()
	return viewOf(c), nil
}

// RowDetails returns the expansion payload of one row.
func (s *PageService) RowDetails(ctx context.Context, ws *Workspace, name, id string) (models.RowDetail, error) {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.RowDetails(ctx, id)
}

// RefreshRow drops the cached details of one row.
func (s *PageService) RefreshRow(ctx context.Context, ws *Workspace, name, id string) error {
	c, err := ws.Page(ctx, name)
	if err != nil {
		return err
	}
	c.RefreshRow(id)
	return nil
}

// SoftDelete archives or deactivates one row with a reason.
func (s *PageService) SoftDelete(ctx context.Context, ws *Workspace, name, id string, req dto.SoftDeleteRequest) (*bulkaction.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := ws.Page(ctx, name)
	if err != nil {
		return nil, err
	}
	action := models.SoftDeleteAction(req.Action)
	if action == "" {
		action = models.SoftDeleteArchive
	}
	if _, ok := c.Descriptor().SoftDelete[action]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "soft delete action not available for this page")
	}
	return operationResult(c.SoftDelete(ctx, id, models.SoftDeleteRequest{
		Reason: strings.TrimSpace(req.Reason),
		Action: action,
	}))
}

func (s *PageService) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return nil
}

func viewOf(c *page.Container) *page.View {
	v := c.View()
	return &v
}

// operationResult keeps the result of an operation that reached a terminal
// state. Failed and partially failed operations are reported through the
// result, not as request errors.
func operationResult(res *bulkaction.Result, err error) (*bulkaction.Result, error) {
	if res != nil {
		return res, nil
	}
	return nil, err
}
