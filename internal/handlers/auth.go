// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type AuthHandler struct {
	accountService *services.AccountService
}

func NewAuthHandler(accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RegisterAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.accountService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, tokenBody(i18n.T(lang, i18n.KeyAuthRegisterSuccess), authResponse))
}

// POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.accountService.Token(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, tokenBody(i18n.T(lang, i18n.KeyAuthTokenIssued), authResponse))
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.accountService.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, tokenBody(i18n.T(lang, i18n.KeyAuthTokenIssued), authResponse))
}

// GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	address, ok := requireActor(c)
	if !ok {
		return
	}

	account, err := h.accountService.Profile(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, account)
}

func tokenBody(message string, authResponse *services.AuthResponse) gin.H {
	return gin.H{
		"message":       message,
		"account":       authResponse.Account,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	}
}
