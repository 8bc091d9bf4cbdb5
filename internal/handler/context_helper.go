package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/middleware"
	"github.com/noah-isme/sma-adp-console/internal/service"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

// workspaceFromContext returns the session workspace, writing an error
// response when the session middleware did not run.
func workspaceFromContext(c *gin.Context) (*service.Workspace, bool) {
	ws, ok := middleware.WorkspaceFrom(c)
	if !ok || ws == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "session not initialised"))
		return nil, false
	}
	return ws, true
}
