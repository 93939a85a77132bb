package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/escrow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/escrow-backend/internal/http/middleware"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler      *httpH.AuthHandler
	AuthMiddleware   *httpMW.AuthMiddleware
	ProjectHandler   *httpH.ProjectHandler
	MilestoneHandler *httpH.MilestoneHandler
	WalletHandler    *httpH.WalletHandler
	RealtimeHandler  *httpH.RealtimeHandler
	HealthHandler    *httpH.HealthHandler

	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}

		// Wallet
		if cfg.WalletHandler != nil {
			protected.GET("/wallet", cfg.WalletHandler.Get)
			protected.POST("/wallet/topup", cfg.WalletHandler.Topup)
		}

		// Projects
		if cfg.ProjectHandler != nil {
			protected.POST("/projects", cfg.ProjectHandler.Create)
			protected.GET("/projects", cfg.ProjectHandler.List)
			protected.GET("/projects/:id", cfg.ProjectHandler.Get)
			protected.GET("/projects/:id/balance", cfg.ProjectHandler.GetBalance)
			protected.POST("/projects/:id/setup", cfg.ProjectHandler.Setup)
			protected.POST("/projects/:id/start", cfg.ProjectHandler.Start)
			protected.POST("/projects/:id/cancel", cfg.ProjectHandler.Cancel)
			protected.POST("/projects/:id/resolve", cfg.ProjectHandler.Resolve)
			protected.GET("/projects/:id/events", cfg.ProjectHandler.ListEvents)
		}

		// Milestones
		if cfg.MilestoneHandler != nil {
			protected.POST("/projects/:id/milestones", cfg.MilestoneHandler.Create)
			protected.GET("/projects/:id/milestones", cfg.MilestoneHandler.List)
			protected.GET("/projects/:id/milestones/:idx", cfg.MilestoneHandler.Get)
			protected.POST("/projects/:id/milestones/:idx/submit", cfg.MilestoneHandler.Submit)
			protected.POST("/projects/:id/milestones/:idx/approve", cfg.MilestoneHandler.Approve)
			protected.POST("/projects/:id/milestones/:idx/dispute", cfg.MilestoneHandler.Dispute)
		}
	}

	return r
}
