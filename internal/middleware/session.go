package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/service"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/logger"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

const (
	// ContextWorkspaceKey holds the *service.Workspace of the request.
	ContextWorkspaceKey = "console_workspace"
	// DefaultSessionHeader carries the session id in both directions.
	DefaultSessionHeader = "X-Session-ID"
)

// Session resolves the admin session named by header for the authenticated
// admin, creating one when the header is absent, unknown or owned by someone
// else, and echoes its id back. It runs after JWT.
func Session(sessions *service.SessionService, header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultSessionHeader
	}
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		ws, _, err := sessions.Open(service.Principal{
			Subject: claims.Owner(),
			Token:   c.GetString(ContextTokenKey),
		}, c.GetHeader(header))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(ContextWorkspaceKey, ws)
		c.Set(logger.SessionKey, ws.ID)
		c.Header(header, ws.ID)
		c.Next()
	}
}

// WorkspaceFrom returns the workspace stored by Session.
func WorkspaceFrom(c *gin.Context) (*service.Workspace, bool) {
	value, exists := c.Get(ContextWorkspaceKey)
	if !exists {
		return nil, false
	}
	ws, ok := value.(*service.Workspace)
	return ws, ok
}
