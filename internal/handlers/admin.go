// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

// AdminHandler serves the one-time setup of the registry and the marketplace.
type AdminHandler struct {
	oracleService      *services.OracleService
	marketplaceService *services.MarketplaceService
}

func NewAdminHandler(oracleService *services.OracleService, marketplaceService *services.MarketplaceService) *AdminHandler {
	return &AdminHandler{
		oracleService:      oracleService,
		marketplaceService: marketplaceService,
	}
}

// POST /oracles/registry
func (h *AdminHandler) InitializeRegistry(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authority, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.InitializeRegistryRequest
	if !bindJSON(c, &req) {
		return
	}

	registry, err := h.oracleService.InitializeRegistry(c.Request.Context(), authority, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyRegistryInitialized),
		"registry": registry,
	})
}

// POST /marketplace
func (h *AdminHandler) InitializeMarketplace(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authority, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.InitializeMarketplaceRequest
	if !bindJSON(c, &req) {
		return
	}

	marketplace, err := h.marketplaceService.InitializeMarketplace(c.Request.Context(), authority, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyMarketplaceInitialized),
		"marketplace": marketplace,
		"fee_percent": utils.FeeRatePercent(marketplace.FeeBasisPoints),
	})
}
