package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/escrow-backend/internal/http/response"
	"github.com/yungbote/escrow-backend/internal/services"
	"github.com/yungbote/escrow-backend/internal/types"
)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (wh *WalletHandler) Get(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	account, err := wh.walletService.GetAccountByOwner(c.Request.Context(), types.WalletOwnerUser, caller)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "WALLET_NOT_FOUND", errors.New("wallet not found"))
		return
	}
	entries, err := wh.walletService.ListEntries(c.Request.Context(), account.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"account": account, "entries": entries})
}

// Topup is the development funding path; production deposits would come from
// a real payment processor callback.
func (wh *WalletHandler) Topup(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("invalid request body"))
		return
	}
	if req.Amount == 0 {
		response.RespondError(c, http.StatusBadRequest, "INVALID_AMOUNT", errors.New("amount must be greater than zero"))
		return
	}
	account, err := wh.walletService.GetAccountByOwner(c.Request.Context(), types.WalletOwnerUser, caller)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "WALLET_NOT_FOUND", errors.New("wallet not found"))
		return
	}
	updated, err := wh.walletService.Topup(c.Request.Context(), account.ID, req.Amount)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"account": updated})
}
