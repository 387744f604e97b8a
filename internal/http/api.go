package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"financas/internal/auth"
	"financas/internal/exporter"
	"financas/internal/service"
	"financas/internal/storage"
)

const defaultDownloadURLTTL = 15 * time.Minute

// Services groups the collaborators the HTTP layer dispatches to.
// Exports, ExportManager and Storage are optional; export routes are only
// registered when all three are present and a bucket is configured.
type Services struct {
	Users         service.UserService
	Spaces        service.SpaceService
	Ledger        service.LedgerService
	Exports       service.ExportService
	ExportManager exporter.Manager
	Storage       storage.Service
	Sessions      auth.SessionResolver
	Tokens        *auth.TokenManager
}

type Options struct {
	Bucket         string
	CookieSecure   bool
	SignInPath     string
	DownloadURLTTL time.Duration
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	spaces   service.SpaceService
	ledger   service.LedgerService
	exports  service.ExportService
	manager  exporter.Manager
	storage  storage.Service
	sessions auth.SessionResolver
	tokens   *auth.TokenManager
	opts     Options
	logger   *logrus.Logger
}

func NewHandler(svc Services, opts Options, logger *logrus.Logger) *Handler {
	if opts.SignInPath == "" {
		opts.SignInPath = "/auth/signin"
	}
	if opts.DownloadURLTTL <= 0 {
		opts.DownloadURLTTL = defaultDownloadURLTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:    svc.Users,
		spaces:   svc.Spaces,
		ledger:   svc.Ledger,
		exports:  svc.Exports,
		manager:  svc.ExportManager,
		storage:  svc.Storage,
		sessions: svc.Sessions,
		tokens:   svc.Tokens,
		opts:     opts,
		logger:   logger,
	}
}

func (h *Handler) exportsEnabled() bool {
	return h.exports != nil && h.manager != nil && h.storage != nil && h.opts.Bucket != ""
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(gin.CustomRecovery(h.recoverPanic))
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware())
	router.Use(h.pageGate())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/session", h.currentSession)

		api.GET("/spaces", h.withSession(h.listSpaces))
		api.POST("/spaces", h.withSession(h.createSpace))
		api.GET("/spaces/members", h.withSpace(h.listMembers))
		api.POST("/spaces/members", h.withSpace(h.addMember))

		tx := api.Group("/transactions")
		tx.GET("/categories", h.withSpace(h.listCategories))
		tx.POST("/categories", h.withSpace(h.createCategory))
		tx.DELETE("/categories/:id", h.withSpace(h.deleteCategory))
		tx.GET("/tags", h.withSpace(h.listTags))
		tx.POST("/tags", h.withSpace(h.createTag))
		tx.DELETE("/tags/:id", h.withSpace(h.deleteTag))
		tx.GET("/reserves", h.withSpace(h.listReserves))
		tx.POST("/reserves", h.withSpace(h.createReserve))
		tx.DELETE("/reserves/:id", h.withSpace(h.deleteReserve))
		tx.GET("/overview", h.withSpace(h.overview))
		tx.GET("", h.withSpace(h.listTransactions))
		tx.POST("", h.withSpace(h.createTransaction))
		tx.GET("/:id", h.withSpace(h.getTransaction))
		tx.PUT("/:id", h.withSpace(h.updateTransaction))
		tx.DELETE("/:id", h.withSpace(h.deleteTransaction))

		if h.exportsEnabled() {
			api.POST("/exports", h.withSpace(h.createExport))
			api.GET("/exports", h.withSpace(h.listExports))
			api.GET("/exports/:id/download", h.withSpace(h.downloadExport))
			api.DELETE("/exports/:id", h.withSpace(h.deleteExport))
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
