// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyAlreadyExists = "conflict.already_exists"
	KeyFieldTooLong  = "field.too_long"
	KeyRateLimited   = "rate_limit.exceeded"
	KeyInternalError = "internal.error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthTokenIssued        = "auth.token_issued"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Oracle registry
	KeyRegistryInitialized     = "registry.initialized"
	KeyRegistryNotInitialized  = "registry.not_initialized"
	KeyAlreadyInitialized      = "registry.already_initialized"
	KeyOracleRegistered        = "oracle.registered"
	KeyOracleNotFound          = "oracle.not_found"
	KeyOracleNotActive         = "oracle.not_active"
	KeyOracleInsufficientStake = "oracle.insufficient_stake"

	// Identity ledger
	KeyIdentityRegistered   = "identity.registered"
	KeyIdentityVerified     = "identity.verified"
	KeyIdentityUpdated      = "identity.updated"
	KeyIdentityRevoked      = "identity.revoked"
	KeyIdentityNotFound     = "identity.not_found"
	KeyIdentityNotVerified  = "identity.not_verified"
	KeyIdentityInvalidState = "identity.invalid_status"
	KeyUnauthorized         = "identity.unauthorized"
	KeyInvalidLevel         = "identity.invalid_level"

	// Access permissions
	KeyPermissionGranted     = "permission.granted"
	KeyPermissionRevoked     = "permission.revoked"
	KeyPermissionValid       = "permission.valid"
	KeyPermissionNotFound    = "permission.not_found"
	KeyPermissionNotActive   = "permission.not_active"
	KeyPermissionExpired     = "permission.expired"
	KeyCategoryNotAuthorized = "permission.category_not_authorized"
	KeyNoDataCategories      = "permission.no_categories"
	KeyTooManyDataCategories = "permission.too_many_categories"
	KeyInvalidDataCategory   = "permission.invalid_category"
	KeyInvalidPermissionKind = "permission.invalid_kind"

	// Marketplace
	KeyMarketplaceInitialized    = "marketplace.initialized"
	KeyMarketplaceNotInitialized = "marketplace.not_initialized"
	KeyInvalidFeeRate            = "marketplace.invalid_fee_rate"
	KeyFeesWithdrawn             = "marketplace.fees_withdrawn"
	KeyListingCreated            = "listing.created"
	KeyListingPriceUpdated       = "listing.price_updated"
	KeyListingCancelled          = "listing.cancelled"
	KeyListingPurchased          = "listing.purchased"
	KeyListingNotFound           = "listing.not_found"
	KeyListingNotActive          = "listing.not_active"
	KeyInvalidListingID          = "listing.invalid_id"
	KeySellerNotVerified         = "listing.seller_not_verified"
	KeyBuyerNotVerified          = "listing.buyer_not_verified"
	KeyIdentityMismatch          = "listing.identity_mismatch"
	KeyNoAccessPermission        = "listing.no_access_permission"
	KeyArithmeticOverflow        = "settlement.arithmetic_overflow"

	// Accounts and payments
	KeyAccountNotFound      = "account.not_found"
	KeyInsufficientFunds    = "account.insufficient_funds"
	KeyPaymentIntentCreated = "payment.intent_created"
	KeyDepositCredited      = "payment.deposit_credited"
	KeyDepositPending       = "payment.deposit_pending"
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentsDisabled     = "payment.disabled"
	KeyPaymentInvalidAmount = "payment.invalid_amount"
	KeyAmountTooLarge       = "payment.amount_too_large"
	KeyDepositNotFound      = "payment.deposit_not_found"

	// Evidence
	KeyEvidenceUploaded       = "evidence.uploaded"
	KeyFileUploadFailed       = "file.upload_failed"
	KeyFileTooLarge           = "file.too_large"
	KeyEvidenceNotConfigured  = "evidence.not_configured"
	KeyEvidenceTypeNotAllowed = "evidence.type_not_allowed"
)
