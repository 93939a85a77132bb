package app

import (
	httpserver "github.com/yungbote/escrow-backend/internal/http"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, middlewareset Middleware) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:              log,
		AuthHandler:      handlerset.Auth,
		AuthMiddleware:   middlewareset.Auth,
		ProjectHandler:   handlerset.Project,
		MilestoneHandler: handlerset.Milestone,
		WalletHandler:    handlerset.Wallet,
		RealtimeHandler:  handlerset.Realtime,
		HealthHandler:    handlerset.Health,
		ServiceName:      cfg.ServiceName,
	})
}
