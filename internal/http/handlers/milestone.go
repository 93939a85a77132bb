package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/escrow-backend/internal/http/response"
	"github.com/yungbote/escrow-backend/internal/services"
)

type MilestoneHandler struct {
	escrowService services.EscrowService
}

func NewMilestoneHandler(escrowService services.EscrowService) *MilestoneHandler {
	return &MilestoneHandler{escrowService: escrowService}
}

func milestoneIdx(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		response.RespondError(c, http.StatusNotFound, "INVALID_MILESTONE_ID", errors.New("invalid milestone index"))
		return 0, false
	}
	return idx, true
}

func (mh *MilestoneHandler) Create(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
		Amount      uint64 `json:"amount"`
		Deposit     uint64 `json:"deposit"`
		Deadline    string `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("invalid request body"))
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_DEADLINE", errors.New("deadline must be an RFC 3339 timestamp"))
		return
	}
	project, err := mh.escrowService.AddMilestone(c.Request.Context(), caller, id, req.Description, req.Amount, req.Deposit, deadline)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (mh *MilestoneHandler) List(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	milestones, err := mh.escrowService.ListMilestones(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"milestones": milestones})
}

func (mh *MilestoneHandler) Get(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	idx, ok := milestoneIdx(c)
	if !ok {
		return
	}
	milestone, err := mh.escrowService.GetMilestone(c.Request.Context(), id, idx)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "MILESTONE_NOT_FOUND", errors.New("milestone not found"))
		return
	}
	response.RespondOK(c, gin.H{"milestone": milestone})
}

func (mh *MilestoneHandler) Submit(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	idx, ok := milestoneIdx(c)
	if !ok {
		return
	}
	project, err := mh.escrowService.SubmitMilestone(c.Request.Context(), caller, id, idx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (mh *MilestoneHandler) Approve(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	idx, ok := milestoneIdx(c)
	if !ok {
		return
	}
	project, err := mh.escrowService.ApproveMilestone(c.Request.Context(), caller, id, idx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

func (mh *MilestoneHandler) Dispute(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := projectID(c)
	if !ok {
		return
	}
	idx, ok := milestoneIdx(c)
	if !ok {
		return
	}
	project, err := mh.escrowService.RaiseDispute(c.Request.Context(), caller, id, idx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}
