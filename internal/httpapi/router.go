package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aironrush/assistant/internal/chat"
	"github.com/aironrush/assistant/internal/common"
	"github.com/aironrush/assistant/internal/config"
	"github.com/aironrush/assistant/internal/httpapi/handlers"
	"github.com/aironrush/assistant/internal/httpapi/middleware"
	"github.com/aironrush/assistant/internal/store/redisstore"
)

// NewRouter wires the HTTP surface. rds may be nil when rate limiting is
// disabled.
func NewRouter(svc *chat.Service, cfg config.Config, rds *redisstore.Store, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	h := handlers.NewHandler(svc, log)

	api := r.Group("/openai")
	api.Use(middleware.Auth(cfg.AuthJWTSecret))

	api.GET("/health", h.Health)

	api.POST("/sessions", h.CreateSession)
	api.GET("/users/:user_id/sessions", h.ListUserSessions)
	api.GET("/sessions/:session_id/history", h.SessionHistory)

	chatRoutes := api.Group("/")
	if rds != nil {
		chatRoutes.Use(middleware.RateLimit(rds, cfg.RateLimitPerMinute, log))
	}
	chatRoutes.POST("/chat", h.Chat)
	chatRoutes.POST("/stream-chat", h.StreamChat)
	chatRoutes.POST("/summarize-file", h.SummarizeFile)

	api.GET("/summaries/:user_id", h.ListUserSummaries)

	return r
}
