// internal/services/errors.go
package services

import (
	"errors"

	"github.com/javajoker/datasov-backend/internal/repository"
)

// Setup
var (
	ErrAlreadyInitialized        = errors.New("already initialized")
	ErrRegistryNotInitialized    = errors.New("oracle registry not initialized")
	ErrMarketplaceNotInitialized = errors.New("marketplace not initialized")
	ErrAlreadyExists             = errors.New("already exists")
)

// Oracle registry
var (
	ErrInsufficientStake = errors.New("stake below registry minimum")
	ErrOracleNotFound    = errors.New("oracle not found")
	ErrOracleNotActive   = errors.New("oracle is not active")
)

// Length and input limits
var (
	ErrDisplayNameTooLong       = errors.New("display name exceeds 64 bytes")
	ErrIdentityKeyRequired      = errors.New("identity key is required")
	ErrIdentityKeyTooLong       = errors.New("identity key exceeds 64 bytes")
	ErrEvidenceRefTooLong       = errors.New("evidence reference exceeds 128 bytes")
	ErrDescriptionTooLong       = errors.New("description exceeds 200 bytes")
	ErrInvalidVerificationLevel = errors.New("invalid verification level")
	ErrInvalidPermissionKind    = errors.New("invalid permission kind")
	ErrInvalidDataCategory      = errors.New("invalid data category")
	ErrNoDataCategories         = errors.New("no data categories")
	ErrTooManyDataCategories    = errors.New("more than 10 data categories")
	ErrInvalidFeeRate           = errors.New("fee rate must be between 0 and 10000 basis points")
	ErrInvalidAmount            = errors.New("invalid amount")
)

// Identity ledger
var (
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrInvalidStatus       = errors.New("identity is not pending verification")
	ErrIdentityNotVerified = errors.New("identity is not verified")
	ErrUnauthorized        = errors.New("caller is not authorized")
)

// Access-permission ledger
var (
	ErrPermissionNotFound        = errors.New("access permission not found")
	ErrPermissionNotActive       = errors.New("access permission is not active")
	ErrDataCategoryNotAuthorized = errors.New("data category not authorized")
	ErrPermissionExpired         = errors.New("access permission expired")
)

// Marketplace
var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingNotActive   = errors.New("listing is not active")
	ErrInvalidListingID   = errors.New("listing id mismatch")
	ErrSellerNotVerified  = errors.New("seller identity is not verified")
	ErrBuyerNotVerified   = errors.New("buyer identity is not verified")
	ErrIdentityMismatch   = errors.New("identity owner mismatch")
	ErrNoAccessPermission = errors.New("no active access permission")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrAmountTooLarge     = errors.New("amount exceeds the largest storable value")
)

// Accounts, transfers and payments
var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInvalidCredentials      = errors.New("invalid address or secret")
	ErrPaymentsDisabled        = errors.New("card payments are not configured")
	ErrDepositNotFound         = errors.New("deposit not found")
	ErrDepositPending          = errors.New("deposit has not settled")
	ErrPaymentFailed           = errors.New("payment failed")
	ErrEvidenceTooLarge        = errors.New("evidence file too large")
	ErrEvidenceTypeNotAllowed  = errors.New("evidence file type not allowed")
	ErrEvidenceStorageDisabled = errors.New("evidence storage is not configured")
)

// notFound maps a missing record onto the caller's domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domainErr
	}
	return err
}

// conflict maps a duplicate record onto the caller's domain error.
func conflict(err, domainErr error) error {
	if errors.Is(err, repository.ErrAlreadyExists) {
		return domainErr
	}
	return err
}
