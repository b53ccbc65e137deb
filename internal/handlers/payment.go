// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payments/deposits
func (h *PaymentHandler) CreateDeposit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	address, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.paymentService.CreateDeposit(c.Request.Context(), address, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyPaymentIntentCreated),
		"client_secret": intent.ClientSecret,
		"payment_id":    intent.PaymentID,
		"status":        intent.Status,
		"deposit":       intent.Deposit,
	})
}

// POST /payments/deposits/confirm
func (h *PaymentHandler) ConfirmDeposit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	address, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ConfirmDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	deposit, err := h.paymentService.ConfirmDeposit(c.Request.Context(), address, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDepositCredited),
		"deposit": deposit,
	})
}
