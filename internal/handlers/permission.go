// internal/handlers/permission.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type PermissionHandler struct {
	permissionService *services.PermissionService
}

func NewPermissionHandler(permissionService *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
	}
}

// POST /identities/:key/permissions
func (h *PermissionHandler) GrantAccess(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.GrantAccessRequest
	if !bindJSON(c, &req) {
		return
	}

	permission, err := h.permissionService.GrantAccess(c.Request.Context(), owner, c.Param("key"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyPermissionGranted),
		"permission": permission,
	})
}

// GET /identities/:key/permissions
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.permissionService.ListPermissions(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, permissions)
}

// GET /identities/:key/permissions/:consumer
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	permission, err := h.permissionService.GetPermission(c.Request.Context(), c.Param("key"), c.Param("consumer"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, permission)
}

// POST /identities/:key/permissions/:consumer/revoke
func (h *PermissionHandler) RevokeAccess(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.EvidenceRequest
	if !bindJSON(c, &req) {
		return
	}

	permission, err := h.permissionService.RevokeAccess(c.Request.Context(), owner, c.Param("key"), c.Param("consumer"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyPermissionRevoked),
		"permission": permission,
	})
}
