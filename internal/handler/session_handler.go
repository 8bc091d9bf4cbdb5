package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/catalog"
	"github.com/noah-isme/sma-adp-console/internal/service"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

// SessionHandler exposes the session toast feed and the page catalog.
type SessionHandler struct {
	sessions *service.SessionService
	catalog  *catalog.Registry
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions *service.SessionService, registry *catalog.Registry) *SessionHandler {
	if registry == nil {
		registry = catalog.Default()
	}
	return &SessionHandler{sessions: sessions, catalog: registry}
}

type sessionInfo struct {
	ID            string   `json:"id"`
	Pages         []string `json:"pages"`
	PendingToasts int      `json:"pending_toasts"`
}

type pageSummary struct {
	Name           string            `json:"name"`
	Title          string            `json:"title"`
	ServerFiltered bool              `json:"server_filtered"`
	Operations     []bulkaction.Kind `json:"operations"`
	StatusOptions  []string          `json:"status_options,omitempty"`
	ExportColumns  []export.Column   `json:"export_columns,omitempty"`
}

// Current godoc
// @Summary Current console session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, sessionInfo{ID: ws.ID, Pages: ws.Pages(), PendingToasts: ws.Toasts.Len()}, nil)
}

// End godoc
// @Summary End the console session
// @Description Drops page state and saved views of the session.
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) End(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	h.sessions.Close(c.Request.Context(), ws.ID)
	response.NoContent(c)
}

// Toasts godoc
// @Summary Drain pending toasts
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /toasts [get]
func (h *SessionHandler) Toasts(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, ws.Toasts.Drain(), nil)
}

// Pages godoc
// @Summary List pages and their capabilities
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pages [get]
func (h *SessionHandler) Pages(c *gin.Context) {
	names := h.catalog.Names()
	out := make([]pageSummary, 0, len(names))
	for _, name := range names {
		desc, err := h.catalog.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, pageSummary{
			Name:           desc.Name,
			Title:          desc.Title,
			ServerFiltered: desc.ServerFiltered,
			Operations:     desc.Operations,
			StatusOptions:  desc.StatusOptions,
			ExportColumns:  desc.ExportColumns,
		})
	}
	response.JSON(c, http.StatusOK, out, nil)
}
