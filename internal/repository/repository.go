// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/utils"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrReadOnly      = errors.New("write attempted in read-only view")
)

// Store hands out a Ledger bound to a unit of work.
type Store interface {
	// Atomic runs fn so that every write it makes commits together or not at all.
	Atomic(ctx context.Context, fn func(Ledger) error) error
	View(ctx context.Context, fn func(Ledger) error) error
}

type ListingFilter struct {
	Seller      string
	IdentityKey string
	Category    models.DataCategory
	Active      *bool
}

// Ledger is the keyed record view used inside a unit of work.
type Ledger interface {
	GetOracleRegistry() (*models.OracleRegistry, error)
	CreateOracleRegistry(registry *models.OracleRegistry) error
	SaveOracleRegistry(registry *models.OracleRegistry) error

	GetOracle(operator string) (*models.Oracle, error)
	CreateOracle(oracle *models.Oracle) error
	SaveOracle(oracle *models.Oracle) error

	GetIdentity(identityKey string) (*models.Identity, error)
	CreateIdentity(identity *models.Identity) error
	SaveIdentity(identity *models.Identity) error
	ListIdentitiesByOwner(owner string) ([]models.Identity, error)

	GetPermission(identityKey, consumer string) (*models.AccessPermission, error)
	// UpsertPermission creates the grant, or overwrites an inactive one stored
	// under the same key. An active grant yields ErrAlreadyExists.
	UpsertPermission(permission *models.AccessPermission) error
	SavePermission(permission *models.AccessPermission) error
	ListPermissionsByIdentity(identityKey string) ([]models.AccessPermission, error)

	GetMarketplace() (*models.MarketplaceConfig, error)
	CreateMarketplace(config *models.MarketplaceConfig) error
	SaveMarketplace(config *models.MarketplaceConfig) error

	GetListing(listingID uint64) (*models.DataListing, error)
	CreateListing(listing *models.DataListing) error
	SaveListing(listing *models.DataListing) error
	ListListings(filter ListingFilter, params utils.PaginationParams) ([]models.DataListing, int64, error)

	GetAccount(address string) (*models.Account, error)
	CreateAccount(account *models.Account) error
	SaveAccount(account *models.Account) error

	CreateSettlement(settlement *models.Settlement) error
	ListSettlements(address string, params utils.PaginationParams) ([]models.Settlement, int64, error)

	GetDeposit(paymentReference string) (*models.Deposit, error)
	CreateDeposit(deposit *models.Deposit) error
	SaveDeposit(deposit *models.Deposit) error
}

// Record keys. Every singleton and keyed entity is addressed through these.
const (
	OracleRegistryKey = "oracle_registry"
	MarketplaceKey    = "marketplace"
)

func OracleKey(operator string) string {
	return "oracle:" + operator
}

func IdentityKey(identityKey string) string {
	return "identity:" + identityKey
}

func PermissionKey(identityKey, consumer string) string {
	return fmt.Sprintf("permission:%s:%s", identityKey, consumer)
}

func ListingKey(listingID uint64) string {
	return "listing:" + strconv.FormatUint(listingID, 10)
}

func AccountKey(address string) string {
	return "account:" + address
}

func DepositKey(paymentReference string) string {
	return "deposit:" + paymentReference
}

// ListingSortFields are the columns listings may be ordered by.
var ListingSortFields = []string{"created_at", "price", "listing_id"}

type nowKey struct{}

// WithNow binds the time a unit of work stamps onto the records it writes.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now.UTC())
}

func nowFrom(ctx context.Context) time.Time {
	if now, ok := ctx.Value(nowKey{}).(time.Time); ok && !now.IsZero() {
		return now
	}
	return time.Now().UTC()
}
