// internal/handlers/oracle.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type OracleHandler struct {
	oracleService *services.OracleService
}

func NewOracleHandler(oracleService *services.OracleService) *OracleHandler {
	return &OracleHandler{
		oracleService: oracleService,
	}
}

// GET /oracles/registry
func (h *OracleHandler) GetRegistry(c *gin.Context) {
	registry, err := h.oracleService.GetRegistry(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, registry)
}

// POST /oracles
func (h *OracleHandler) RegisterOracle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	operator, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.RegisterOracleRequest
	if !bindJSON(c, &req) {
		return
	}

	oracle, err := h.oracleService.RegisterOracle(c.Request.Context(), operator, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOracleRegistered),
		"oracle":  oracle,
	})
}

// GET /oracles/:operator
func (h *OracleHandler) GetOracle(c *gin.Context) {
	oracle, err := h.oracleService.GetOracle(c.Request.Context(), c.Param("operator"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, oracle)
}
