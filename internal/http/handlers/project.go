package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/escrow-backend/internal/http/response"
	"github.com/yungbote/escrow-backend/internal/requestdata"
	"github.com/yungbote/escrow-backend/internal/services"
)

type ProjectHandler struct {
	escrowService services.EscrowService
}

func NewProjectHandler(escrowService services.EscrowService) *ProjectHandler {
	return &ProjectHandler{escrowService: escrowService}
}

// callerID resolves the authenticated user from the request context.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("not authenticated"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func projectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "INVALID_PROJECT_ID", errors.New("invalid project id"))
		return uuid.Nil, false
	}
	return id, true
}

func (ph *ProjectHandler) Create(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("invalid request body"))
		return
	}
	project, err := ph.escrowService.CreateProject(c.Request.Context(), caller, req.Title)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) Get(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	project, err := ph.escrowService.GetProject(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", errors.New("project not found"))
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) List(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	projects, err := ph.escrowService.ListProjects(c.Request.Context(), caller)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": projects})
}

func (ph *ProjectHandler) GetBalance(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	balance, err := ph.escrowService.GetBalance(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", errors.New("project not found"))
		return
	}
	response.RespondOK(c, gin.H{"escrow_balance": balance})
}

func (ph *ProjectHandler) Setup(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req struct {
		FreelancerID uuid.UUID `json:"freelancer_id"`
		ArbitratorID uuid.UUID `json:"arbitrator_id"`
		Title        string    `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("invalid request body"))
		return
	}
	project, err := ph.escrowService.SetupProject(c.Request.Context(), caller, id, req.FreelancerID, req.ArbitratorID, req.Title)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) Start(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	project, err := ph.escrowService.StartProject(c.Request.Context(), caller, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) Cancel(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	project, err := ph.escrowService.CancelProject(c.Request.Context(), caller, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) Resolve(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req struct {
		Milestone      int  `json:"milestone"`
		ApprovePayment bool `json:"approve_payment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("invalid request body"))
		return
	}
	project, err := ph.escrowService.ResolveDispute(c.Request.Context(), caller, id, req.Milestone, req.ApprovePayment)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (ph *ProjectHandler) ListEvents(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	events, err := ph.escrowService.ListEvents(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// parseDeadline accepts RFC 3339 timestamps.
func parseDeadline(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}
