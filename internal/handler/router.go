package handler

import "github.com/gin-gonic/gin"

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Pages    *PageHandler
	Sessions *SessionHandler
	Exports  *ExportHandler
}

// RegisterSessionRoutes mounts routes that need a console session. The group
// must carry the session middleware.
func (h Handlers) RegisterSessionRoutes(api gin.IRouter) {
	api.GET("/session", h.Sessions.Current)
	api.DELETE("/session", h.Sessions.End)
	api.GET("/toasts", h.Sessions.Toasts)
	api.GET("/pages", h.Sessions.Pages)

	pages := api.Group("/pages/:page")
	pages.GET("", h.Pages.View)
	pages.POST("/refresh", h.Pages.Refresh)
	pages.PUT("/search", h.Pages.Search)
	pages.PUT("/filters/:category", h.Pages.SetFilter)
	pages.DELETE("/filters", h.Pages.ClearFilters)
	pages.POST("/sort", h.Pages.Sort)
	pages.PUT("/pagination", h.Pages.Paginate)
	pages.GET("/suggest", h.Pages.Suggest)

	pages.POST("/selection/toggle", h.Pages.ToggleSelection)
	pages.POST("/selection/visible", h.Pages.SelectVisible)
	pages.DELETE("/selection", h.Pages.ClearSelection)

	pages.POST("/bulk", h.Pages.RequestBulk)
	pages.POST("/bulk/confirm", h.Pages.ConfirmBulk)
	pages.POST("/bulk/cancel", h.Pages.CancelBulk)
	pages.POST("/bulk/dismiss", h.Pages.DismissBulk)

	pages.GET("/rows/:id/details", h.Pages.RowDetails)
	pages.DELETE("/rows/:id/details", h.Pages.RefreshRow)
	pages.POST("/rows/:id/soft-delete", h.Pages.SoftDelete)
}

// RegisterPublicRoutes mounts routes authorised by their own token.
func (h Handlers) RegisterPublicRoutes(api gin.IRouter) {
	api.GET("/exports/:token", h.Exports.Download)
}
