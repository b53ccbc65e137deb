// internal/handlers/verification.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

// denials are the authorization outcomes reported as valid=false rather than as errors.
var denials = []error{
	services.ErrIdentityNotVerified,
	services.ErrPermissionNotActive,
	services.ErrDataCategoryNotAuthorized,
	services.ErrPermissionExpired,
}

type VerificationHandler struct {
	permissionService *services.PermissionService
}

func NewVerificationHandler(permissionService *services.PermissionService) *VerificationHandler {
	return &VerificationHandler{
		permissionService: permissionService,
	}
}

// GET /identities/:key/permissions/:consumer/validate?category=
func (h *VerificationHandler) ValidateAccess(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	category := c.Query("category")
	if category == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "category"), nil)
		return
	}

	decision, err := h.permissionService.ValidateAccess(c.Request.Context(), c.Param("key"), c.Param("consumer"), category)
	if err != nil {
		for _, denial := range denials {
			if errors.Is(err, denial) {
				utils.SuccessResponse(c, gin.H{
					"valid":  false,
					"reason": denialReason(lang, err),
				})
				return
			}
		}
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"valid":    decision.Valid,
		"decision": decision,
		"message":  i18n.T(lang, i18n.KeyPermissionValid),
	})
}

func denialReason(lang string, err error) gin.H {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return gin.H{
				"code":    m.code,
				"message": i18n.T(lang, m.key),
			}
		}
	}
	return gin.H{"message": err.Error()}
}
