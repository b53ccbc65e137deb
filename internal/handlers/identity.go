// internal/handlers/identity.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type IdentityHandler struct {
	identityService *services.IdentityService
}

func NewIdentityHandler(identityService *services.IdentityService) *IdentityHandler {
	return &IdentityHandler{
		identityService: identityService,
	}
}

// POST /identities
func (h *IdentityHandler) RegisterIdentity(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.RegisterIdentityRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, err := h.identityService.RegisterIdentity(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyIdentityRegistered),
		"identity": identity,
	})
}

// GET /identities?owner=
// Without an owner filter the caller's own identities are listed.
func (h *IdentityHandler) ListIdentities(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		owner = actor
	}

	identities, err := h.identityService.ListIdentities(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, identities)
}

// GET /identities/:key
func (h *IdentityHandler) GetIdentity(c *gin.Context) {
	identity, err := h.identityService.GetIdentity(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, identity)
}

// POST /identities/:key/verify
func (h *IdentityHandler) VerifyIdentity(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	operator, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.VerifyIdentityRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, err := h.identityService.VerifyIdentity(c.Request.Context(), operator, c.Param("key"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyIdentityVerified),
		"identity": identity,
	})
}

// PUT /identities/:key
func (h *IdentityHandler) UpdateIdentity(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.EvidenceRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, err := h.identityService.UpdateIdentity(c.Request.Context(), owner, c.Param("key"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyIdentityUpdated),
		"identity": identity,
	})
}

// POST /identities/:key/revoke
func (h *IdentityHandler) RevokeIdentity(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.EvidenceRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, err := h.identityService.RevokeIdentity(c.Request.Context(), owner, c.Param("key"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyIdentityRevoked),
		"identity": identity,
	})
}
