// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

// AccountHandler serves ledger balances and settlement history for the caller.
type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// GET /accounts/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	address, ok := requireActor(c)
	if !ok {
		return
	}

	balance, err := h.accountService.Balance(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, balance)
}

// GET /accounts/settlements
func (h *AccountHandler) GetSettlements(c *gin.Context) {
	address, ok := requireActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "settled_at")
	settlements, total, err := h.accountService.Settlements(c.Request.Context(), address, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(settlements, total, params)
	utils.PaginatedResponse(c, result)
}
