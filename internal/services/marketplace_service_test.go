package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
	"github.com/javajoker/datasov-backend/internal/utils"
)

const (
	seller      = "seller"
	sellerKey   = "seller-id"
	buyer       = "buyer"
	buyerKey    = "buyer-id"
	buyerFunds  = 2_000_000
	feeRateBps  = 250
	healthPrice = 1_000_000
)

type MarketplaceTestSuite struct {
	suite.Suite
	f      *fixture
	market *MarketplaceService
}

func (suite *MarketplaceTestSuite) SetupTest() {
	t := suite.T()
	suite.f = newFixture(t)
	suite.f.withOracle(t)
	suite.f.verifiedIdentity(t, seller, sellerKey)
	suite.f.verifiedIdentity(t, buyer, buyerKey)
	suite.f.fund(t, buyer, buyerFunds)

	suite.market = NewMarketplaceService(suite.f.engine, LedgerRail{}, testFeeAccount)
	_, err := suite.market.InitializeMarketplace(suite.f.ctx, testAuthority, &InitializeMarketplaceRequest{FeeBasisPoints: feeRateBps})
	suite.Require().NoError(err)

	_, err = suite.f.permissions.GrantAccess(suite.f.ctx, seller, sellerKey, grantRequest(buyer, "health_data"))
	suite.Require().NoError(err)
}

func (suite *MarketplaceTestSuite) ctx() context.Context {
	return suite.f.ctx
}

func (suite *MarketplaceTestSuite) list(id uint64, price uint64, category string) *models.DataListing {
	listing, err := suite.market.CreateListing(suite.ctx(), seller, &CreateListingRequest{
		ListingID:   id,
		IdentityKey: sellerKey,
		Price:       price,
		Category:    category,
		Description: "thirty days of readings",
	})
	suite.Require().NoError(err)
	return listing
}

func (suite *MarketplaceTestSuite) purchase(id uint64) (*PurchaseReceipt, error) {
	return suite.market.Purchase(suite.ctx(), buyer, id, &PurchaseRequest{BuyerIdentityKey: buyerKey})
}

// assertUntouched checks that a rejected purchase moved no value and left the listing on sale.
func (suite *MarketplaceTestSuite) assertUntouched(id uint64) {
	f := suite.f
	assert.Equal(suite.T(), uint64(buyerFunds), f.balance(suite.T(), buyer))
	assert.Zero(suite.T(), f.balance(suite.T(), seller))
	assert.Zero(suite.T(), f.balance(suite.T(), testFeeAccount))

	listing, err := suite.market.GetListing(suite.ctx(), id)
	suite.Require().NoError(err)
	assert.True(suite.T(), listing.IsActive)
	assert.Nil(suite.T(), listing.Buyer)
	assert.Nil(suite.T(), listing.SoldAt)

	marketplace, err := suite.market.GetMarketplace(suite.ctx())
	suite.Require().NoError(err)
	assert.Zero(suite.T(), marketplace.TotalVolume)
}

func (suite *MarketplaceTestSuite) TestInitializeMarketplace() {
	marketplace, err := suite.market.GetMarketplace(suite.ctx())
	suite.Require().NoError(err)
	assert.Equal(suite.T(), testAuthority, marketplace.Authority)
	assert.Equal(suite.T(), uint16(feeRateBps), marketplace.FeeBasisPoints)
	assert.Equal(suite.T(), testFeeAccount, marketplace.FeeAccount)

	_, err = suite.market.InitializeMarketplace(suite.ctx(), testAuthority, &InitializeMarketplaceRequest{FeeBasisPoints: 100})
	assert.ErrorIs(suite.T(), err, ErrAlreadyInitialized)
}

func (suite *MarketplaceTestSuite) TestInitializeMarketplace_FeeRateBound() {
	f := newFixture(suite.T())
	market := NewMarketplaceService(f.engine, nil, testFeeAccount)

	_, err := market.InitializeMarketplace(f.ctx, testAuthority, &InitializeMarketplaceRequest{FeeBasisPoints: 10001})
	assert.ErrorIs(suite.T(), err, ErrInvalidFeeRate)

	_, err = market.InitializeMarketplace(f.ctx, testAuthority, &InitializeMarketplaceRequest{FeeBasisPoints: 10000})
	assert.NoError(suite.T(), err)
}

func (suite *MarketplaceTestSuite) TestCreateListing() {
	listing := suite.list(1, healthPrice, "health_data")
	assert.True(suite.T(), listing.IsActive)
	assert.Equal(suite.T(), models.DataCategoryHealthData, listing.Category)
	assert.Equal(suite.T(), seller, listing.Seller)

	marketplace, err := suite.market.GetMarketplace(suite.ctx())
	suite.Require().NoError(err)
	assert.Equal(suite.T(), uint64(1), marketplace.TotalListings)

	_, err = suite.market.CreateListing(suite.ctx(), seller, &CreateListingRequest{ListingID: 1, IdentityKey: sellerKey, Category: "app_usage"})
	assert.ErrorIs(suite.T(), err, ErrAlreadyExists)

	marketplace, err = suite.market.GetMarketplace(suite.ctx())
	suite.Require().NoError(err)
	assert.Equal(suite.T(), uint64(1), marketplace.TotalListings)
}

func (suite *MarketplaceTestSuite) TestCreateListing_Rejections() {
	_, err := suite.f.identities.RegisterIdentity(suite.ctx(), seller, &RegisterIdentityRequest{IdentityKey: "seller-pending"})
	suite.Require().NoError(err)

	tests := []struct {
		name   string
		caller string
		req    CreateListingRequest
		err    error
	}{
		{name: "unverified identity", caller: seller, req: CreateListingRequest{ListingID: 2, IdentityKey: "seller-pending", Category: "app_usage"}, err: ErrSellerNotVerified},
		{name: "foreign identity", caller: buyer, req: CreateListingRequest{ListingID: 3, IdentityKey: sellerKey, Category: "app_usage"}, err: ErrIdentityMismatch},
		{name: "unknown identity", caller: seller, req: CreateListingRequest{ListingID: 4, IdentityKey: "nobody", Category: "app_usage"}, err: ErrIdentityNotFound},
		{name: "not listable", caller: seller, req: CreateListingRequest{ListingID: 5, IdentityKey: sellerKey, Category: "financial_data"}, err: ErrInvalidDataCategory},
		{name: "unknown category", caller: seller, req: CreateListingRequest{ListingID: 6, IdentityKey: sellerKey, Category: "weather"}, err: ErrInvalidDataCategory},
		{name: "description too long", caller: seller, req: CreateListingRequest{ListingID: 7, IdentityKey: sellerKey, Category: "app_usage", Description: strings.Repeat("d", 201)}, err: ErrDescriptionTooLong},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			req := tt.req
			_, err := suite.market.CreateListing(suite.ctx(), tt.caller, &req)
			assert.ErrorIs(suite.T(), err, tt.err)
		})
	}

	marketplace, err := suite.market.GetMarketplace(suite.ctx())
	suite.Require().NoError(err)
	assert.Zero(suite.T(), marketplace.TotalListings)
}

func (suite *MarketplaceTestSuite) TestCreateListing_RequiresMarketplace() {
	f := newFixture(suite.T())
	f.withOracle(suite.T())
	f.verifiedIdentity(suite.T(), seller, sellerKey)
	market := NewMarketplaceService(f.engine, nil, testFeeAccount)

	_, err := market.CreateListing(f.ctx, seller, &CreateListingRequest{ListingID: 1, IdentityKey: sellerKey, Category: "app_usage"})
	assert.ErrorIs(suite.T(), err, ErrMarketplaceNotInitialized)
}

func (suite *MarketplaceTestSuite) TestPurchase_HealthData() {
	suite.list(1, healthPrice, "health_data")
	suite.f.now = suite.f.now.Add(time.Hour)

	receipt, err := suite.purchase(1)
	suite.Require().NoError(err)

	settlement := receipt.Settlement
	assert.Equal(suite.T(), models.SettlementTypePurchase, settlement.Type)
	assert.Equal(suite.T(), uint64(healthPrice), settlement.GrossAmount)
	assert.Equal(suite.T(), uint64(25_000), settlement.FeeAmount)
	assert.Equal(suite.T(), uint64(975_000), settlement.NetAmount)
	assert.Equal(suite.T(), uint16(feeRateBps), settlement.FeeBasisPoints)

	f := suite.f
	assert.Equal(suite.T(), uint64(975_000), f.balance(suite.T(), seller))
	assert.Equal(suite.T(), uint64(25_000), f.balance(suite.T(), testFeeAccount))
	assert.Equal(suite.T(), uint64(buyerFunds-healthPrice), f.balance(suite.T(), buyer))

	listing, err := suite.market.GetListing(suite.ctx(), 1)
	suite.Require().NoError(err)
	assert.False(suite.T(), listing.IsActive)
	suite.Require().NotNil(listing.Buyer)
	assert.Equal(suite.T(), buyer, *listing.Buyer)
	suite.Require().NotNil(listing.SoldAt)
	assert.Equal(suite.T(), f.now, *listing.SoldAt)

	marketplace, err := suite.market.GetMarketplace(suite.ctx())
	suite.Require().NoError(err)
	assert.Equal(suite.T(), uint64(healthPrice), marketplace.TotalVolume)

	last, ok := f.recorder.Last()
	suite.Require().True(ok)
	assert.Equal(suite.T(), events.ListingPurchased, last.Type)
	assert.Equal(suite.T(), buyer, last.Actor)

	_, err = suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrListingNotActive)
}

func (suite *MarketplaceTestSuite) TestPurchase_CategoryNotGranted() {
	suite.list(1, 500, "app_usage")

	_, err := suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrDataCategoryNotAuthorized)
	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestPurchase_Rejections() {
	suite.list(1, 500, "health_data")

	_, err := suite.market.Purchase(suite.ctx(), "stranger", 1, &PurchaseRequest{BuyerIdentityKey: sellerKey})
	assert.ErrorIs(suite.T(), err, ErrIdentityMismatch)

	_, err = suite.f.identities.RegisterIdentity(suite.ctx(), "newcomer", &RegisterIdentityRequest{IdentityKey: "newcomer-id"})
	suite.Require().NoError(err)
	_, err = suite.market.Purchase(suite.ctx(), "newcomer", 1, &PurchaseRequest{BuyerIdentityKey: "newcomer-id"})
	assert.ErrorIs(suite.T(), err, ErrBuyerNotVerified)

	suite.f.verifiedIdentity(suite.T(), "outsider", "outsider-id")
	_, err = suite.market.Purchase(suite.ctx(), "outsider", 1, &PurchaseRequest{BuyerIdentityKey: "outsider-id"})
	assert.ErrorIs(suite.T(), err, ErrNoAccessPermission)

	_, err = suite.market.Purchase(suite.ctx(), buyer, 99, &PurchaseRequest{BuyerIdentityKey: buyerKey})
	assert.ErrorIs(suite.T(), err, ErrListingNotFound)

	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestPurchase_RevokedGrant() {
	suite.list(1, 500, "health_data")
	_, err := suite.f.permissions.RevokeAccess(suite.ctx(), seller, sellerKey, buyer, &EvidenceRequest{})
	suite.Require().NoError(err)

	_, err = suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrNoAccessPermission)
	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestPurchase_ExpiredGrant() {
	f := suite.f
	_, err := f.permissions.RevokeAccess(suite.ctx(), seller, sellerKey, buyer, &EvidenceRequest{})
	suite.Require().NoError(err)

	expiresAt := f.now.Add(time.Hour)
	req := grantRequest(buyer, "health_data")
	req.ExpiresAt = &expiresAt
	_, err = f.permissions.GrantAccess(suite.ctx(), seller, sellerKey, req)
	suite.Require().NoError(err)
	suite.list(1, 500, "health_data")

	f.now = expiresAt
	_, err = suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrPermissionExpired)
	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestPurchase_SellerIdentityRevoked() {
	suite.list(1, 500, "health_data")
	_, err := suite.f.identities.RevokeIdentity(suite.ctx(), seller, sellerKey, &EvidenceRequest{})
	suite.Require().NoError(err)

	_, err = suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrSellerNotVerified)
	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestPurchase_InsufficientFunds() {
	suite.list(1, buyerFunds+1, "health_data")

	_, err := suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrInsufficientFunds)
	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestPurchase_ZeroFee() {
	suite.list(1, 3, "health_data")

	receipt, err := suite.purchase(1)
	suite.Require().NoError(err)
	assert.Zero(suite.T(), receipt.Settlement.FeeAmount)
	assert.Equal(suite.T(), uint64(3), receipt.Settlement.NetAmount)
	assert.Equal(suite.T(), uint64(3), suite.f.balance(suite.T(), seller))
	assert.Zero(suite.T(), suite.f.balance(suite.T(), testFeeAccount))
}

func (suite *MarketplaceTestSuite) TestPurchase_CustomLabel() {
	suite.list(1, 500, "custom:genomics")
	suite.list(2, 500, "custom:sleep")

	_, err := suite.f.permissions.RevokeAccess(suite.ctx(), seller, sellerKey, buyer, &EvidenceRequest{})
	suite.Require().NoError(err)
	_, err = suite.f.permissions.GrantAccess(suite.ctx(), seller, sellerKey, grantRequest(buyer, "custom:genomics"))
	suite.Require().NoError(err)

	_, err = suite.purchase(2)
	assert.ErrorIs(suite.T(), err, ErrDataCategoryNotAuthorized)

	_, err = suite.purchase(1)
	assert.NoError(suite.T(), err)
}

// failingRail fails every transfer into one account.
type failingRail struct {
	LedgerRail
	failTo string
}

var errRailDown = errors.New("rail unavailable")

func (r failingRail) Transfer(ctx context.Context, l repository.Ledger, from, to string, amount uint64) error {
	if to == r.failTo {
		return errRailDown
	}
	return r.LedgerRail.Transfer(ctx, l, from, to, amount)
}

func (suite *MarketplaceTestSuite) TestPurchase_FeeLegFailureRollsBack() {
	suite.list(1, healthPrice, "health_data")
	market := NewMarketplaceService(suite.f.engine, failingRail{failTo: testFeeAccount}, testFeeAccount)

	_, err := market.Purchase(suite.ctx(), buyer, 1, &PurchaseRequest{BuyerIdentityKey: buyerKey})
	assert.ErrorIs(suite.T(), err, errRailDown)
	suite.assertUntouched(1)
}

func (suite *MarketplaceTestSuite) TestListingPriceBound() {
	request := &CreateListingRequest{
		ListingID:   1,
		IdentityKey: sellerKey,
		Price:       models.MaxAmount + 1,
		Category:    "health_data",
	}
	_, err := suite.market.CreateListing(suite.ctx(), seller, request)
	assert.ErrorIs(suite.T(), err, ErrAmountTooLarge)
	_, err = suite.market.GetListing(suite.ctx(), 1)
	assert.ErrorIs(suite.T(), err, ErrListingNotFound)

	listing := suite.list(1, models.MaxAmount, "health_data")
	assert.Equal(suite.T(), models.MaxAmount, listing.Price)

	_, err = suite.market.UpdateListingPrice(suite.ctx(), seller, 1, &UpdatePriceRequest{Price: models.MaxAmount + 1})
	assert.ErrorIs(suite.T(), err, ErrAmountTooLarge)

	stored, err := suite.market.GetListing(suite.ctx(), 1)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.MaxAmount, stored.Price)
}

func (suite *MarketplaceTestSuite) TestUpdateListingPrice() {
	suite.list(1, 500, "health_data")

	_, err := suite.market.UpdateListingPrice(suite.ctx(), buyer, 1, &UpdatePriceRequest{Price: 1})
	assert.ErrorIs(suite.T(), err, ErrUnauthorized)

	listing, err := suite.market.UpdateListingPrice(suite.ctx(), seller, 1, &UpdatePriceRequest{Price: 750})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), uint64(750), listing.Price)

	receipt, err := suite.purchase(1)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), uint64(750), receipt.Settlement.GrossAmount)

	_, err = suite.market.UpdateListingPrice(suite.ctx(), seller, 1, &UpdatePriceRequest{Price: 1})
	assert.ErrorIs(suite.T(), err, ErrListingNotActive)
}

func (suite *MarketplaceTestSuite) TestCancelListing() {
	suite.list(1, 500, "health_data")

	_, err := suite.market.CancelListing(suite.ctx(), buyer, 1)
	assert.ErrorIs(suite.T(), err, ErrUnauthorized)

	listing, err := suite.market.CancelListing(suite.ctx(), seller, 1)
	suite.Require().NoError(err)
	assert.False(suite.T(), listing.IsActive)
	suite.Require().NotNil(listing.CancelledAt)
	cancelledAt := *listing.CancelledAt
	assert.Equal(suite.T(), suite.f.now, cancelledAt)

	// a repeated cancel is rejected and leaves the first timestamp alone
	suite.f.now = suite.f.now.Add(time.Hour)
	_, err = suite.market.CancelListing(suite.ctx(), seller, 1)
	assert.ErrorIs(suite.T(), err, ErrListingNotActive)

	stored, err := suite.market.GetListing(suite.ctx(), 1)
	suite.Require().NoError(err)
	suite.Require().NotNil(stored.CancelledAt)
	assert.Equal(suite.T(), cancelledAt, *stored.CancelledAt)
	assert.Equal(suite.T(), cancelledAt, stored.UpdatedAt)

	_, err = suite.purchase(1)
	assert.ErrorIs(suite.T(), err, ErrListingNotActive)

	_, err = suite.market.CancelListing(suite.ctx(), seller, 42)
	assert.ErrorIs(suite.T(), err, ErrListingNotFound)
}

func (suite *MarketplaceTestSuite) TestWithdrawFees() {
	suite.list(1, healthPrice, "health_data")
	_, err := suite.purchase(1)
	suite.Require().NoError(err)

	_, err = suite.market.WithdrawFees(suite.ctx(), seller, &WithdrawFeesRequest{Amount: 1})
	assert.ErrorIs(suite.T(), err, ErrUnauthorized)

	_, err = suite.market.WithdrawFees(suite.ctx(), testAuthority, &WithdrawFeesRequest{Amount: 0})
	assert.ErrorIs(suite.T(), err, ErrInvalidAmount)

	_, err = suite.market.WithdrawFees(suite.ctx(), testAuthority, &WithdrawFeesRequest{Amount: 25_001})
	assert.ErrorIs(suite.T(), err, ErrInsufficientFunds)

	settlement, err := suite.market.WithdrawFees(suite.ctx(), testAuthority, &WithdrawFeesRequest{Amount: 25_000})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.SettlementTypeFeeWithdrawal, settlement.Type)
	assert.Equal(suite.T(), uint64(25_000), suite.f.balance(suite.T(), testAuthority))
	assert.Zero(suite.T(), suite.f.balance(suite.T(), testFeeAccount))
}

func (suite *MarketplaceTestSuite) TestSearchListings() {
	suite.list(1, 300, "health_data")
	suite.list(2, 100, "app_usage")
	suite.list(3, 200, "health_data")
	_, err := suite.market.CancelListing(suite.ctx(), seller, 3)
	suite.Require().NoError(err)

	active := true
	listings, total, err := suite.market.SearchListings(suite.ctx(), ListingSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10, Sort: "price", Order: "asc"},
		Filter:           repository.ListingFilter{Seller: seller, Active: &active},
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(2), total)
	suite.Require().Len(listings, 2)
	assert.Equal(suite.T(), uint64(2), listings[0].ListingID)
	assert.Equal(suite.T(), uint64(1), listings[1].ListingID)
}

func TestMarketplaceTestSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceTestSuite))
}
