package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"financas/internal/auth"
	"financas/internal/domain"
)

type sessionHandler func(c *gin.Context, session auth.Session)

type scopedHandler func(c *gin.Context, scope domain.Scope)

// withSession resolves the caller's session before fn runs. Requests without
// one are rejected with 401 and fn is never invoked.
func (h *Handler) withSession(fn sessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := h.sessions.Resolve(c.Request)
		if !ok || session.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(msgUnauthorized))
			return
		}
		fn(c, session)
	}
}

// withSpace extends withSession with the spaceId query parameter. Membership
// is checked by the service each handler calls.
func (h *Handler) withSpace(fn scopedHandler) gin.HandlerFunc {
	return h.withSession(func(c *gin.Context, session auth.Session) {
		spaceID := strings.TrimSpace(c.Query("spaceId"))
		if spaceID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(msgSpaceRequired))
			return
		}
		fn(c, domain.Scope{UserID: session.UserID, SpaceID: spaceID})
	})
}

var publicPrefixes = []string{
	"/api",
	"/static",
	"/_next/static",
	"/_next/image",
	"/favicon.ico",
}

// pageGate sends unauthenticated page navigations to the sign-in page.
func (h *Handler) pageGate() gin.HandlerFunc {
	signIn := h.opts.SignInPath
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == signIn || isPublicPath(p) {
			c.Next()
			return
		}
		if _, ok := h.sessions.Resolve(c.Request); ok {
			c.Next()
			return
		}
		target := signIn + "?callbackUrl=" + url.QueryEscape(p)
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

func isPublicPath(p string) bool {
	for _, prefix := range publicPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Warn("request failed")
		default:
			entry.Debug("request handled")
		}
	}
}
