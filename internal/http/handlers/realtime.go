package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/escrow-backend/internal/http/response"
	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // key: UserID
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// SSEStream opens the event stream. Project channels are joined either via
// the projects query param or a later subscribe call.
func (rh *RealtimeHandler) SSEStream(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	rh.mu.Lock()
	if existing, exists := rh.clients[caller]; exists {
		rh.hub.CloseClient(existing)
		delete(rh.clients, caller)
	}
	client := rh.hub.NewSSEClient(caller)
	rh.clients[caller] = client
	rh.mu.Unlock()

	for _, raw := range c.QueryArray("projects") {
		if projectID, err := uuid.Parse(raw); err == nil {
			rh.hub.AddChannel(client, realtime.ProjectChannel(projectID))
		}
	}

	rh.log.Info("SSE stream open", "user_id", caller.String())
	rh.hub.ServeHTTP(c.Writer, c.Request, client)

	rh.mu.Lock()
	if rh.clients[caller] == client {
		delete(rh.clients, caller)
	}
	rh.mu.Unlock()
	rh.hub.CloseClient(client)
}

func (rh *RealtimeHandler) SSESubscribe(c *gin.Context) {
	rh.changeSubscription(c, true)
}

func (rh *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	rh.changeSubscription(c, false)
}

func (rh *RealtimeHandler) changeSubscription(c *gin.Context, subscribe bool) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		ProjectID uuid.UUID `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("invalid project id"))
		return
	}

	rh.mu.RLock()
	client, exists := rh.clients[caller]
	rh.mu.RUnlock()
	if !exists {
		response.RespondError(c, http.StatusConflict, "NO_STREAM", errors.New("no active SSE connection"))
		return
	}

	channel := realtime.ProjectChannel(req.ProjectID)
	if subscribe {
		rh.hub.AddChannel(client, channel)
		response.RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
		return
	}
	rh.hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}
