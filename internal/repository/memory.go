// internal/repository/memory.go
package repository

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/utils"
)

// MemoryStore keeps every record in process memory. Atomic units of work are
// serialized by a single mutex and rolled back by restoring a snapshot.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(Ledger) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if r := recover(); r != nil {
			s.state = snapshot
			panic(r)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(&memoryLedger{state: s.state, now: nowFrom(ctx)})
}

func (s *MemoryStore) View(ctx context.Context, fn func(Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memoryLedger{state: s.state, now: nowFrom(ctx), readOnly: true})
}

type memoryState struct {
	registry    *models.OracleRegistry
	marketplace *models.MarketplaceConfig
	oracles     map[string]models.Oracle
	identities  map[string]models.Identity
	permissions map[string]models.AccessPermission
	listings    map[string]models.DataListing
	accounts    map[string]models.Account
	deposits    map[string]models.Deposit
	settlements []models.Settlement
}

func newMemoryState() *memoryState {
	return &memoryState{
		oracles:     make(map[string]models.Oracle),
		identities:  make(map[string]models.Identity),
		permissions: make(map[string]models.AccessPermission),
		listings:    make(map[string]models.DataListing),
		accounts:    make(map[string]models.Account),
		deposits:    make(map[string]models.Deposit),
	}
}

func (m *memoryState) clone() *memoryState {
	c := newMemoryState()
	if m.registry != nil {
		registry := *m.registry
		c.registry = &registry
	}
	if m.marketplace != nil {
		marketplace := *m.marketplace
		c.marketplace = &marketplace
	}
	for k, v := range m.oracles {
		c.oracles[k] = v
	}
	for k, v := range m.identities {
		c.identities[k] = v
	}
	for k, v := range m.permissions {
		c.permissions[k] = copyPermission(v)
	}
	for k, v := range m.listings {
		c.listings[k] = v
	}
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	for k, v := range m.deposits {
		c.deposits[k] = v
	}
	c.settlements = append([]models.Settlement(nil), m.settlements...)
	return c
}

type memoryLedger struct {
	state    *memoryState
	now      time.Time
	readOnly bool
}

func (l *memoryLedger) stamp(base *models.BaseModel) {
	now := l.now
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func copyPermission(p models.AccessPermission) models.AccessPermission {
	p.Categories = append([]string(nil), p.Categories...)
	return p
}

func (l *memoryLedger) GetOracleRegistry() (*models.OracleRegistry, error) {
	if l.state.registry == nil {
		return nil, ErrNotFound
	}
	registry := *l.state.registry
	return &registry, nil
}

func (l *memoryLedger) CreateOracleRegistry(registry *models.OracleRegistry) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if l.state.registry != nil {
		return ErrAlreadyExists
	}
	registry.RecordKey = OracleRegistryKey
	l.stamp(&registry.BaseModel)
	stored := *registry
	l.state.registry = &stored
	return nil
}

func (l *memoryLedger) SaveOracleRegistry(registry *models.OracleRegistry) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if l.state.registry == nil {
		return ErrNotFound
	}
	l.stamp(&registry.BaseModel)
	stored := *registry
	l.state.registry = &stored
	return nil
}

func (l *memoryLedger) GetOracle(operator string) (*models.Oracle, error) {
	oracle, ok := l.state.oracles[OracleKey(operator)]
	if !ok {
		return nil, ErrNotFound
	}
	return &oracle, nil
}

func (l *memoryLedger) CreateOracle(oracle *models.Oracle) error {
	if l.readOnly {
		return ErrReadOnly
	}
	key := OracleKey(oracle.Operator)
	if _, ok := l.state.oracles[key]; ok {
		return ErrAlreadyExists
	}
	oracle.RecordKey = key
	l.stamp(&oracle.BaseModel)
	l.state.oracles[key] = *oracle
	return nil
}

func (l *memoryLedger) SaveOracle(oracle *models.Oracle) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.state.oracles[oracle.RecordKey]; !ok {
		return ErrNotFound
	}
	l.stamp(&oracle.BaseModel)
	l.state.oracles[oracle.RecordKey] = *oracle
	return nil
}

func (l *memoryLedger) GetIdentity(identityKey string) (*models.Identity, error) {
	identity, ok := l.state.identities[IdentityKey(identityKey)]
	if !ok {
		return nil, ErrNotFound
	}
	return &identity, nil
}

func (l *memoryLedger) CreateIdentity(identity *models.Identity) error {
	if l.readOnly {
		return ErrReadOnly
	}
	key := IdentityKey(identity.IdentityKey)
	if _, ok := l.state.identities[key]; ok {
		return ErrAlreadyExists
	}
	identity.RecordKey = key
	l.stamp(&identity.BaseModel)
	l.state.identities[key] = *identity
	return nil
}

func (l *memoryLedger) SaveIdentity(identity *models.Identity) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.state.identities[identity.RecordKey]; !ok {
		return ErrNotFound
	}
	l.stamp(&identity.BaseModel)
	l.state.identities[identity.RecordKey] = *identity
	return nil
}

func (l *memoryLedger) ListIdentitiesByOwner(owner string) ([]models.Identity, error) {
	identities := make([]models.Identity, 0)
	for _, identity := range l.state.identities {
		if identity.Owner == owner {
			identities = append(identities, identity)
		}
	}
	sort.Slice(identities, func(i, j int) bool {
		if identities[i].CreatedAt.Equal(identities[j].CreatedAt) {
			return identities[i].IdentityKey < identities[j].IdentityKey
		}
		return identities[i].CreatedAt.Before(identities[j].CreatedAt)
	})
	return identities, nil
}

func (l *memoryLedger) GetPermission(identityKey, consumer string) (*models.AccessPermission, error) {
	permission, ok := l.state.permissions[PermissionKey(identityKey, consumer)]
	if !ok {
		return nil, ErrNotFound
	}
	permission = copyPermission(permission)
	return &permission, nil
}

func (l *memoryLedger) UpsertPermission(permission *models.AccessPermission) error {
	if l.readOnly {
		return ErrReadOnly
	}
	key := PermissionKey(permission.IdentityKey, permission.Consumer)
	if existing, ok := l.state.permissions[key]; ok {
		if existing.IsActive {
			return ErrAlreadyExists
		}
		permission.ID = existing.ID
		permission.CreatedAt = existing.CreatedAt
	}
	permission.RecordKey = key
	l.stamp(&permission.BaseModel)
	l.state.permissions[key] = copyPermission(*permission)
	return nil
}

func (l *memoryLedger) SavePermission(permission *models.AccessPermission) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.state.permissions[permission.RecordKey]; !ok {
		return ErrNotFound
	}
	l.stamp(&permission.BaseModel)
	l.state.permissions[permission.RecordKey] = copyPermission(*permission)
	return nil
}

func (l *memoryLedger) ListPermissionsByIdentity(identityKey string) ([]models.AccessPermission, error) {
	permissions := make([]models.AccessPermission, 0)
	for _, permission := range l.state.permissions {
		if permission.IdentityKey == identityKey {
			permissions = append(permissions, copyPermission(permission))
		}
	}
	sort.Slice(permissions, func(i, j int) bool {
		return permissions[i].Consumer < permissions[j].Consumer
	})
	return permissions, nil
}

func (l *memoryLedger) GetMarketplace() (*models.MarketplaceConfig, error) {
	if l.state.marketplace == nil {
		return nil, ErrNotFound
	}
	config := *l.state.marketplace
	return &config, nil
}

func (l *memoryLedger) CreateMarketplace(config *models.MarketplaceConfig) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if l.state.marketplace != nil {
		return ErrAlreadyExists
	}
	config.RecordKey = MarketplaceKey
	l.stamp(&config.BaseModel)
	stored := *config
	l.state.marketplace = &stored
	return nil
}

func (l *memoryLedger) SaveMarketplace(config *models.MarketplaceConfig) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if l.state.marketplace == nil {
		return ErrNotFound
	}
	l.stamp(&config.BaseModel)
	stored := *config
	l.state.marketplace = &stored
	return nil
}

func (l *memoryLedger) GetListing(listingID uint64) (*models.DataListing, error) {
	listing, ok := l.state.listings[ListingKey(listingID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &listing, nil
}

func (l *memoryLedger) CreateListing(listing *models.DataListing) error {
	if l.readOnly {
		return ErrReadOnly
	}
	key := ListingKey(listing.ListingID)
	if _, ok := l.state.listings[key]; ok {
		return ErrAlreadyExists
	}
	listing.RecordKey = key
	l.stamp(&listing.BaseModel)
	l.state.listings[key] = *listing
	return nil
}

func (l *memoryLedger) SaveListing(listing *models.DataListing) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.state.listings[listing.RecordKey]; !ok {
		return ErrNotFound
	}
	l.stamp(&listing.BaseModel)
	l.state.listings[listing.RecordKey] = *listing
	return nil
}

func (l *memoryLedger) ListListings(filter ListingFilter, params utils.PaginationParams) ([]models.DataListing, int64, error) {
	matched := make([]models.DataListing, 0)
	for _, listing := range l.state.listings {
		if filter.Seller != "" && listing.Seller != filter.Seller {
			continue
		}
		if filter.IdentityKey != "" && listing.IdentityKey != filter.IdentityKey {
			continue
		}
		if filter.Category != "" && listing.Category != filter.Category {
			continue
		}
		if filter.Active != nil && listing.IsActive != *filter.Active {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(listing.Description), strings.ToLower(params.Search)) {
			continue
		}
		matched = append(matched, listing)
	}

	sort.Slice(matched, func(i, j int) bool {
		return lessListing(matched[i], matched[j], params)
	})

	total := int64(len(matched))
	return paginate(matched, params), total, nil
}

func lessListing(a, b models.DataListing, params utils.PaginationParams) bool {
	var order int
	switch params.Sort {
	case "price":
		order = cmp.Compare(a.Price, b.Price)
	case "listing_id":
	default:
		order = a.CreatedAt.Compare(b.CreatedAt)
	}
	if order == 0 {
		order = cmp.Compare(a.ListingID, b.ListingID)
	}
	if params.Order == "desc" {
		return order > 0
	}
	return order < 0
}

func (l *memoryLedger) GetAccount(address string) (*models.Account, error) {
	account, ok := l.state.accounts[AccountKey(address)]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (l *memoryLedger) CreateAccount(account *models.Account) error {
	if l.readOnly {
		return ErrReadOnly
	}
	key := AccountKey(account.Address)
	if _, ok := l.state.accounts[key]; ok {
		return ErrAlreadyExists
	}
	account.RecordKey = key
	l.stamp(&account.BaseModel)
	l.state.accounts[key] = *account
	return nil
}

func (l *memoryLedger) SaveAccount(account *models.Account) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.state.accounts[account.RecordKey]; !ok {
		return ErrNotFound
	}
	l.stamp(&account.BaseModel)
	l.state.accounts[account.RecordKey] = *account
	return nil
}

func (l *memoryLedger) CreateSettlement(settlement *models.Settlement) error {
	if l.readOnly {
		return ErrReadOnly
	}
	l.stamp(&settlement.BaseModel)
	l.state.settlements = append(l.state.settlements, *settlement)
	return nil
}

func (l *memoryLedger) ListSettlements(address string, params utils.PaginationParams) ([]models.Settlement, int64, error) {
	matched := make([]models.Settlement, 0)
	// newest first
	for i := len(l.state.settlements) - 1; i >= 0; i-- {
		settlement := l.state.settlements[i]
		if settlement.Payer == address || settlement.Payee == address {
			matched = append(matched, settlement)
		}
	}
	total := int64(len(matched))
	return paginate(matched, params), total, nil
}

func (l *memoryLedger) GetDeposit(paymentReference string) (*models.Deposit, error) {
	deposit, ok := l.state.deposits[DepositKey(paymentReference)]
	if !ok {
		return nil, ErrNotFound
	}
	return &deposit, nil
}

func (l *memoryLedger) CreateDeposit(deposit *models.Deposit) error {
	if l.readOnly {
		return ErrReadOnly
	}
	key := DepositKey(deposit.PaymentReference)
	if _, ok := l.state.deposits[key]; ok {
		return ErrAlreadyExists
	}
	deposit.RecordKey = key
	l.stamp(&deposit.BaseModel)
	l.state.deposits[key] = *deposit
	return nil
}

func (l *memoryLedger) SaveDeposit(deposit *models.Deposit) error {
	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.state.deposits[deposit.RecordKey]; !ok {
		return ErrNotFound
	}
	l.stamp(&deposit.BaseModel)
	l.state.deposits[deposit.RecordKey] = *deposit
	return nil
}

func paginate[T any](items []T, params utils.PaginationParams) []T {
	if params.Limit <= 0 {
		return items
	}
	start, ok := params.Offset()
	if !ok || start >= len(items) {
		return []T{}
	}
	end := start + min(params.Limit, len(items)-start)
	return items[start:end]
}

var _ Store = (*MemoryStore)(nil)
var _ Ledger = (*memoryLedger)(nil)
