// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/javajoker/datasov-backend/internal/i18n"

	"github.com/gin-gonic/gin"
)

// Keys the middleware chain stores on the gin context.
const (
	LangKey  = "lang"
	ActorKey = "actor"
	RoleKey  = "role"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respond(c *gin.Context, status int, data, meta interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data, Meta: meta})
}

func SuccessResponse(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data, nil)
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	respond(c, http.StatusOK, data, meta)
}

func CreatedResponse(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data, nil)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Error: &APIError{Code: code, Message: message, Details: details},
	})
}

// localized returns message, or the catalogue text for key when message is
// empty.
func localized(c *gin.Context, message, key string, args ...interface{}) string {
	if message != "" {
		return message
	}
	return i18n.T(GetLangFromContext(c), key, args...)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", localized(c, message, i18n.KeyValidationInvalid, "request"), details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", localized(c, message, i18n.KeyAuthRequired), nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", localized(c, message, i18n.KeyAdminAccessDenied), nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", localized(c, message, i18n.KeyInternalError), nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", localized(c, "", i18n.KeyValidationInvalid, "input"), errors)
}

// PaginatedResponse answers with one page of results, mirrored into the
// X-Total-Count family of headers.
func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func contextString(c *gin.Context, key string) (string, bool) {
	value, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func GetLangFromContext(c *gin.Context) string {
	if lang, ok := contextString(c, LangKey); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage()
}

func GetActorFromContext(c *gin.Context) (string, bool) {
	actor, ok := contextString(c, ActorKey)
	return actor, ok && actor != ""
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	return contextString(c, RoleKey)
}
