// internal/repository/postgres.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/datasov-backend/internal/database"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Atomic(ctx context.Context, fn func(Ledger) error) error {
	now := nowFrom(ctx)
	db := s.db.WithContext(ctx).Session(&gorm.Session{NowFunc: func() time.Time { return now }})
	return database.WithTransaction(db, func(tx *gorm.DB) error {
		return fn(&gormLedger{db: tx, lock: true})
	})
}

func (s *PostgresStore) View(ctx context.Context, fn func(Ledger) error) error {
	return fn(&gormLedger{db: s.db.WithContext(ctx), readOnly: true})
}

// gormLedger reads with SELECT ... FOR UPDATE inside a transaction so that
// concurrent writers to the same record serialize.
type gormLedger struct {
	db       *gorm.DB
	lock     bool
	readOnly bool
}

func (l *gormLedger) query() *gorm.DB {
	if l.lock {
		return l.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return l.db
}

func (l *gormLedger) first(dest interface{}, recordKey string) error {
	if err := l.query().Where("record_key = ?", recordKey).First(dest).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (l *gormLedger) create(value interface{}) error {
	if l.readOnly {
		return ErrReadOnly
	}
	return translateError(l.db.Create(value).Error)
}

func (l *gormLedger) save(value interface{}) error {
	if l.readOnly {
		return ErrReadOnly
	}
	return translateError(l.db.Save(value).Error)
}

func (l *gormLedger) GetOracleRegistry() (*models.OracleRegistry, error) {
	var registry models.OracleRegistry
	if err := l.first(&registry, OracleRegistryKey); err != nil {
		return nil, err
	}
	return &registry, nil
}

func (l *gormLedger) CreateOracleRegistry(registry *models.OracleRegistry) error {
	registry.RecordKey = OracleRegistryKey
	return l.create(registry)
}

func (l *gormLedger) SaveOracleRegistry(registry *models.OracleRegistry) error {
	return l.save(registry)
}

func (l *gormLedger) GetOracle(operator string) (*models.Oracle, error) {
	var oracle models.Oracle
	if err := l.first(&oracle, OracleKey(operator)); err != nil {
		return nil, err
	}
	return &oracle, nil
}

func (l *gormLedger) CreateOracle(oracle *models.Oracle) error {
	oracle.RecordKey = OracleKey(oracle.Operator)
	return l.create(oracle)
}

func (l *gormLedger) SaveOracle(oracle *models.Oracle) error {
	return l.save(oracle)
}

func (l *gormLedger) GetIdentity(identityKey string) (*models.Identity, error) {
	var identity models.Identity
	if err := l.first(&identity, IdentityKey(identityKey)); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (l *gormLedger) CreateIdentity(identity *models.Identity) error {
	identity.RecordKey = IdentityKey(identity.IdentityKey)
	return l.create(identity)
}

func (l *gormLedger) SaveIdentity(identity *models.Identity) error {
	return l.save(identity)
}

func (l *gormLedger) ListIdentitiesByOwner(owner string) ([]models.Identity, error) {
	var identities []models.Identity
	if err := l.db.Where("owner = ?", owner).Order("created_at ASC").Find(&identities).Error; err != nil {
		return nil, translateError(err)
	}
	return identities, nil
}

func (l *gormLedger) GetPermission(identityKey, consumer string) (*models.AccessPermission, error) {
	var permission models.AccessPermission
	if err := l.first(&permission, PermissionKey(identityKey, consumer)); err != nil {
		return nil, err
	}
	return &permission, nil
}

func (l *gormLedger) UpsertPermission(permission *models.AccessPermission) error {
	if l.readOnly {
		return ErrReadOnly
	}

	existing, err := l.GetPermission(permission.IdentityKey, permission.Consumer)
	switch {
	case errors.Is(err, ErrNotFound):
		permission.RecordKey = PermissionKey(permission.IdentityKey, permission.Consumer)
		return l.create(permission)
	case err != nil:
		return err
	case existing.IsActive:
		return ErrAlreadyExists
	}

	permission.ID = existing.ID
	permission.CreatedAt = existing.CreatedAt
	permission.RecordKey = existing.RecordKey
	return l.save(permission)
}

func (l *gormLedger) SavePermission(permission *models.AccessPermission) error {
	return l.save(permission)
}

func (l *gormLedger) ListPermissionsByIdentity(identityKey string) ([]models.AccessPermission, error) {
	var permissions []models.AccessPermission
	if err := l.db.Where("identity_key = ?", identityKey).Order("created_at ASC").Find(&permissions).Error; err != nil {
		return nil, translateError(err)
	}
	return permissions, nil
}

func (l *gormLedger) GetMarketplace() (*models.MarketplaceConfig, error) {
	var config models.MarketplaceConfig
	if err := l.first(&config, MarketplaceKey); err != nil {
		return nil, err
	}
	return &config, nil
}

func (l *gormLedger) CreateMarketplace(config *models.MarketplaceConfig) error {
	config.RecordKey = MarketplaceKey
	return l.create(config)
}

func (l *gormLedger) SaveMarketplace(config *models.MarketplaceConfig) error {
	return l.save(config)
}

func (l *gormLedger) GetListing(listingID uint64) (*models.DataListing, error) {
	var listing models.DataListing
	if err := l.first(&listing, ListingKey(listingID)); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (l *gormLedger) CreateListing(listing *models.DataListing) error {
	listing.RecordKey = ListingKey(listing.ListingID)
	return l.create(listing)
}

func (l *gormLedger) SaveListing(listing *models.DataListing) error {
	return l.save(listing)
}

func (l *gormLedger) ListListings(filter ListingFilter, params utils.PaginationParams) ([]models.DataListing, int64, error) {
	query := l.db.Model(&models.DataListing{})

	if filter.Seller != "" {
		query = query.Where("seller = ?", filter.Seller)
	}
	if filter.IdentityKey != "" {
		query = query.Where("identity_key = ?", filter.IdentityKey)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if params.Search != "" {
		query = query.Where("description ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query = utils.ApplySort(query, params, ListingSortFields)
	query = utils.ApplyPagination(query, params)

	var listings []models.DataListing
	if err := query.Find(&listings).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return listings, total, nil
}

func (l *gormLedger) GetAccount(address string) (*models.Account, error) {
	var account models.Account
	if err := l.first(&account, AccountKey(address)); err != nil {
		return nil, err
	}
	return &account, nil
}

func (l *gormLedger) CreateAccount(account *models.Account) error {
	account.RecordKey = AccountKey(account.Address)
	return l.create(account)
}

func (l *gormLedger) SaveAccount(account *models.Account) error {
	return l.save(account)
}

func (l *gormLedger) CreateSettlement(settlement *models.Settlement) error {
	return l.create(settlement)
}

func (l *gormLedger) ListSettlements(address string, params utils.PaginationParams) ([]models.Settlement, int64, error) {
	query := l.db.Model(&models.Settlement{}).Where("payer = ? OR payee = ?", address, address)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var settlements []models.Settlement
	err := utils.ApplyPagination(query.Order("settled_at DESC"), params).Find(&settlements).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return settlements, total, nil
}

func (l *gormLedger) GetDeposit(paymentReference string) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := l.first(&deposit, DepositKey(paymentReference)); err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (l *gormLedger) CreateDeposit(deposit *models.Deposit) error {
	deposit.RecordKey = DepositKey(deposit.PaymentReference)
	return l.create(deposit)
}

func (l *gormLedger) SaveDeposit(deposit *models.Deposit) error {
	return l.save(deposit)
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrAlreadyExists
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Store = (*PostgresStore)(nil)
var _ Ledger = (*gormLedger)(nil)
