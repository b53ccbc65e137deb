// internal/handlers/errors.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type errorMapping struct {
	err    error
	status int
	code   string
	key    string
	field  string // argument for field-level messages
}

// errorTable is scanned in order and the first errors.Is match wins, so an
// error wrapping several sentinels reports the earliest row.
var errorTable = []errorMapping{
	// 404
	{services.ErrRegistryNotInitialized, http.StatusNotFound, "REGISTRY_NOT_INITIALIZED", i18n.KeyRegistryNotInitialized, ""},
	{services.ErrMarketplaceNotInitialized, http.StatusNotFound, "MARKETPLACE_NOT_INITIALIZED", i18n.KeyMarketplaceNotInitialized, ""},
	{services.ErrOracleNotFound, http.StatusNotFound, "ORACLE_NOT_FOUND", i18n.KeyOracleNotFound, ""},
	{services.ErrIdentityNotFound, http.StatusNotFound, "IDENTITY_NOT_FOUND", i18n.KeyIdentityNotFound, ""},
	{services.ErrPermissionNotFound, http.StatusNotFound, "PERMISSION_NOT_FOUND", i18n.KeyPermissionNotFound, ""},
	{services.ErrListingNotFound, http.StatusNotFound, "LISTING_NOT_FOUND", i18n.KeyListingNotFound, ""},
	{services.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND", i18n.KeyAccountNotFound, ""},
	{services.ErrDepositNotFound, http.StatusNotFound, "DEPOSIT_NOT_FOUND", i18n.KeyDepositNotFound, ""},

	// 409
	{services.ErrAlreadyInitialized, http.StatusConflict, "ALREADY_INITIALIZED", i18n.KeyAlreadyInitialized, ""},
	{services.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", i18n.KeyAlreadyExists, ""},
	{services.ErrInvalidStatus, http.StatusConflict, "INVALID_STATUS", i18n.KeyIdentityInvalidState, ""},
	{services.ErrListingNotActive, http.StatusConflict, "LISTING_NOT_ACTIVE", i18n.KeyListingNotActive, ""},
	{services.ErrPermissionNotActive, http.StatusConflict, "PERMISSION_NOT_ACTIVE", i18n.KeyPermissionNotActive, ""},
	{services.ErrDepositPending, http.StatusConflict, "DEPOSIT_PENDING", i18n.KeyDepositPending, ""},

	// 403
	{services.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED_CALLER", i18n.KeyUnauthorized, ""},
	{services.ErrOracleNotActive, http.StatusForbidden, "ORACLE_NOT_ACTIVE", i18n.KeyOracleNotActive, ""},
	{services.ErrIdentityNotVerified, http.StatusForbidden, "IDENTITY_NOT_VERIFIED", i18n.KeyIdentityNotVerified, ""},
	{services.ErrSellerNotVerified, http.StatusForbidden, "SELLER_NOT_VERIFIED", i18n.KeySellerNotVerified, ""},
	{services.ErrBuyerNotVerified, http.StatusForbidden, "BUYER_NOT_VERIFIED", i18n.KeyBuyerNotVerified, ""},
	{services.ErrIdentityMismatch, http.StatusForbidden, "IDENTITY_MISMATCH", i18n.KeyIdentityMismatch, ""},
	{services.ErrNoAccessPermission, http.StatusForbidden, "NO_ACCESS_PERMISSION", i18n.KeyNoAccessPermission, ""},
	{services.ErrDataCategoryNotAuthorized, http.StatusForbidden, "DATA_CATEGORY_NOT_AUTHORIZED", i18n.KeyCategoryNotAuthorized, ""},
	{services.ErrPermissionExpired, http.StatusForbidden, "PERMISSION_EXPIRED", i18n.KeyPermissionExpired, ""},

	// 401
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", i18n.KeyAuthInvalidCredentials, ""},

	// 400
	{services.ErrInsufficientStake, http.StatusBadRequest, "INSUFFICIENT_STAKE", i18n.KeyOracleInsufficientStake, ""},
	{services.ErrDisplayNameTooLong, http.StatusBadRequest, "DISPLAY_NAME_TOO_LONG", i18n.KeyFieldTooLong, "display_name"},
	{services.ErrIdentityKeyRequired, http.StatusBadRequest, "IDENTITY_KEY_REQUIRED", i18n.KeyValidationInvalid, "identity_key"},
	{services.ErrIdentityKeyTooLong, http.StatusBadRequest, "IDENTITY_KEY_TOO_LONG", i18n.KeyFieldTooLong, "identity_key"},
	{services.ErrEvidenceRefTooLong, http.StatusBadRequest, "EVIDENCE_REF_TOO_LONG", i18n.KeyFieldTooLong, "evidence_ref"},
	{services.ErrDescriptionTooLong, http.StatusBadRequest, "DESCRIPTION_TOO_LONG", i18n.KeyFieldTooLong, "description"},
	{services.ErrInvalidVerificationLevel, http.StatusBadRequest, "INVALID_VERIFICATION_LEVEL", i18n.KeyInvalidLevel, ""},
	{services.ErrInvalidPermissionKind, http.StatusBadRequest, "INVALID_PERMISSION_KIND", i18n.KeyInvalidPermissionKind, ""},
	{services.ErrInvalidDataCategory, http.StatusBadRequest, "INVALID_DATA_CATEGORY", i18n.KeyInvalidDataCategory, ""},
	{services.ErrNoDataCategories, http.StatusBadRequest, "NO_DATA_CATEGORIES", i18n.KeyNoDataCategories, ""},
	{services.ErrTooManyDataCategories, http.StatusBadRequest, "TOO_MANY_DATA_CATEGORIES", i18n.KeyTooManyDataCategories, ""},
	{services.ErrInvalidFeeRate, http.StatusBadRequest, "INVALID_FEE_RATE", i18n.KeyInvalidFeeRate, ""},
	{services.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT", i18n.KeyPaymentInvalidAmount, ""},
	{services.ErrAmountTooLarge, http.StatusBadRequest, "AMOUNT_TOO_LARGE", i18n.KeyAmountTooLarge, ""},
	{services.ErrInvalidListingID, http.StatusBadRequest, "INVALID_LISTING_ID", i18n.KeyInvalidListingID, ""},
	{services.ErrEvidenceTypeNotAllowed, http.StatusBadRequest, "EVIDENCE_TYPE_NOT_ALLOWED", i18n.KeyEvidenceTypeNotAllowed, ""},
	{services.ErrEvidenceTooLarge, http.StatusRequestEntityTooLarge, "EVIDENCE_TOO_LARGE", i18n.KeyFileTooLarge, ""},

	// 422
	{services.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", i18n.KeyInsufficientFunds, ""},
	{services.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "ARITHMETIC_OVERFLOW", i18n.KeyArithmeticOverflow, ""},
	{services.ErrPaymentFailed, http.StatusUnprocessableEntity, "PAYMENT_FAILED", i18n.KeyPaymentFailed, ""},

	// 503
	{services.ErrPaymentsDisabled, http.StatusServiceUnavailable, "PAYMENTS_DISABLED", i18n.KeyPaymentsDisabled, ""},
	{services.ErrEvidenceStorageDisabled, http.StatusServiceUnavailable, "EVIDENCE_NOT_CONFIGURED", i18n.KeyEvidenceNotConfigured, ""},
}

// respondError writes the envelope for a service error. Unmapped errors are
// logged and reported as internal errors without their detail.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	for _, m := range errorTable {
		if !errors.Is(err, m.err) {
			continue
		}
		var message string
		if m.field != "" {
			message = i18n.T(lang, m.key, m.field)
		} else {
			message = i18n.T(lang, m.key)
		}
		utils.ErrorResponse(c, m.status, m.code, message, nil)
		return
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Unhandled service error")
	utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyInternalError))
}

// bindJSON decodes and validates the request body. An empty body decodes to
// the zero request. It writes the error response itself and reports whether
// the handler should continue.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// requireActor returns the authenticated caller address.
func requireActor(c *gin.Context) (string, bool) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return actor, ok
}
