// internal/services/marketplace_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type MarketplaceService struct {
	*Engine
	rail       TransferRail
	feeAccount string
}

type InitializeMarketplaceRequest struct {
	FeeBasisPoints uint16 `json:"fee_basis_points" validate:"max=10000"`
}

type CreateListingRequest struct {
	ListingID   uint64 `json:"listing_id"`
	IdentityKey string `json:"identity_key" validate:"required,max=64"`
	Price       uint64 `json:"price"`
	Category    string `json:"category" validate:"required,data_category"`
	Description string `json:"description" validate:"max=200"`
}

type UpdatePriceRequest struct {
	Price uint64 `json:"price"`
}

type PurchaseRequest struct {
	BuyerIdentityKey string `json:"buyer_identity_key" validate:"required,max=64"`
}

type WithdrawFeesRequest struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

type ListingSearchParams struct {
	utils.PaginationParams
	Filter repository.ListingFilter
}

// ListingSortFields lists the accepted ?sort= values for listing searches.
var ListingSortFields = repository.ListingSortFields

type PurchaseReceipt struct {
	Listing    *models.DataListing `json:"listing"`
	Settlement *models.Settlement  `json:"settlement"`
}

func NewMarketplaceService(engine *Engine, rail TransferRail, feeAccount string) *MarketplaceService {
	if rail == nil {
		rail = LedgerRail{}
	}
	return &MarketplaceService{
		Engine:     engine,
		rail:       rail,
		feeAccount: feeAccount,
	}
}

// InitializeMarketplace fixes the fee rate and provisions the fee account.
func (s *MarketplaceService) InitializeMarketplace(ctx context.Context, authority string, req *InitializeMarketplaceRequest) (*models.MarketplaceConfig, error) {
	if req.FeeBasisPoints > models.BasisPointsDenominator {
		return nil, ErrInvalidFeeRate
	}

	config := &models.MarketplaceConfig{
		Authority:      authority,
		FeeBasisPoints: req.FeeBasisPoints,
		FeeAccount:     s.feeAccount,
	}

	err := s.atomic(ctx, "initialize_marketplace", func(l repository.Ledger) error {
		if err := l.CreateMarketplace(config); err != nil {
			return conflict(err, ErrAlreadyInitialized)
		}

		_, err := l.GetAccount(s.feeAccount)
		if errors.Is(err, repository.ErrNotFound) {
			return l.CreateAccount(&models.Account{Address: s.feeAccount, Role: models.AccountRoleSystem})
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.MarketplaceInitialized, authority, s.now(), map[string]interface{}{
		"fee_basis_points": config.FeeBasisPoints,
		"fee_account":      config.FeeAccount,
	})
	return config, nil
}

func (s *MarketplaceService) CreateListing(ctx context.Context, seller string, req *CreateListingRequest) (*models.DataListing, error) {
	if len(req.Description) > models.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if req.Price > models.MaxAmount {
		return nil, ErrAmountTooLarge
	}
	category, label, ok := models.ParseCategoryRef(req.Category)
	if !ok || !category.IsListable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDataCategory, req.Category)
	}

	listing := &models.DataListing{
		ListingID:   req.ListingID,
		Seller:      seller,
		Price:       req.Price,
		Category:    category,
		CustomLabel: label,
		Description: req.Description,
		IdentityKey: req.IdentityKey,
		IsActive:    true,
	}

	err := s.atomic(ctx, "create_listing", func(l repository.Ledger) error {
		marketplace, err := l.GetMarketplace()
		if err != nil {
			return notFound(err, ErrMarketplaceNotInitialized)
		}

		identity, err := l.GetIdentity(req.IdentityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if !identity.IsVerified() {
			return ErrSellerNotVerified
		}
		if identity.Owner != seller {
			return ErrIdentityMismatch
		}

		if err := l.CreateListing(listing); err != nil {
			return conflict(err, fmt.Errorf("%w: listing %d", ErrAlreadyExists, req.ListingID))
		}

		if marketplace.TotalListings, err = checkedAdd(marketplace.TotalListings, 1); err != nil {
			return err
		}
		return l.SaveMarketplace(marketplace)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.ListingCreated, seller, s.now(), map[string]interface{}{
		"listing_id":   listing.ListingID,
		"identity_key": listing.IdentityKey,
		"category":     models.CategoryRef(listing.Category, listing.CustomLabel),
		"price":        listing.Price,
	})
	return listing, nil
}

func (s *MarketplaceService) UpdateListingPrice(ctx context.Context, seller string, listingID uint64, req *UpdatePriceRequest) (*models.DataListing, error) {
	if req.Price > models.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	var listing *models.DataListing
	var oldPrice uint64

	err := s.atomic(ctx, "update_listing_price", func(l repository.Ledger) error {
		var err error
		listing, err = s.activeListingOwnedBy(l, seller, listingID)
		if err != nil {
			return err
		}
		oldPrice = listing.Price
		listing.Price = req.Price
		return l.SaveListing(listing)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.ListingPriceUpdated, seller, s.now(), map[string]interface{}{
		"listing_id": listingID,
		"old_price":  oldPrice,
		"new_price":  req.Price,
	})
	return listing, nil
}

func (s *MarketplaceService) CancelListing(ctx context.Context, seller string, listingID uint64) (*models.DataListing, error) {
	now := s.now()
	var listing *models.DataListing

	err := s.atomicAt(ctx, "cancel_listing", now, func(l repository.Ledger) error {
		var err error
		listing, err = s.activeListingOwnedBy(l, seller, listingID)
		if err != nil {
			return err
		}
		listing.IsActive = false
		listing.CancelledAt = &now
		return l.SaveListing(listing)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.ListingCancelled, seller, now, map[string]interface{}{
		"listing_id": listingID,
	})
	return listing, nil
}

func (s *MarketplaceService) activeListingOwnedBy(l repository.Ledger, seller string, listingID uint64) (*models.DataListing, error) {
	listing, err := l.GetListing(listingID)
	if err != nil {
		return nil, notFound(err, ErrListingNotFound)
	}
	if !listing.IsActive {
		return nil, ErrListingNotActive
	}
	if listing.Seller != seller {
		return nil, ErrUnauthorized
	}
	return listing, nil
}

// Purchase settles a listing for buyer. Every check, both transfer legs and
// the listing/marketplace updates commit as one unit of work.
func (s *MarketplaceService) Purchase(ctx context.Context, buyer string, listingID uint64, req *PurchaseRequest) (*PurchaseReceipt, error) {
	now := s.now()
	receipt := &PurchaseReceipt{}

	err := s.atomicAt(ctx, "purchase", now, func(l repository.Ledger) error {
		marketplace, err := l.GetMarketplace()
		if err != nil {
			return notFound(err, ErrMarketplaceNotInitialized)
		}

		listing, err := l.GetListing(listingID)
		if err != nil {
			return notFound(err, ErrListingNotFound)
		}
		if !listing.IsActive {
			return ErrListingNotActive
		}
		if listing.ListingID != listingID {
			return ErrInvalidListingID
		}

		sellerIdentity, err := l.GetIdentity(listing.IdentityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if !sellerIdentity.IsVerified() {
			return ErrSellerNotVerified
		}
		if sellerIdentity.Owner != listing.Seller {
			return ErrIdentityMismatch
		}

		buyerIdentity, err := l.GetIdentity(req.BuyerIdentityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if !buyerIdentity.IsVerified() {
			return ErrBuyerNotVerified
		}
		if buyerIdentity.Owner != buyer {
			return ErrIdentityMismatch
		}

		permission, err := l.GetPermission(listing.IdentityKey, buyer)
		if err != nil {
			return notFound(err, ErrNoAccessPermission)
		}
		if !permission.IsActive {
			return ErrNoAccessPermission
		}
		entries := models.GrantEntries(listing.Category, listing.CustomLabel)
		if err := authorizeAccess(sellerIdentity, permission, entries, now); err != nil {
			return err
		}

		fee, net, err := ComputeFee(listing.Price, marketplace.FeeBasisPoints)
		if err != nil {
			return err
		}
		volume, err := checkedCredit(marketplace.TotalVolume, listing.Price)
		if err != nil {
			return err
		}

		if err := s.rail.Transfer(ctx, l, buyer, listing.Seller, net); err != nil {
			return fmt.Errorf("seller transfer: %w", err)
		}
		if fee > 0 {
			if err := s.rail.Transfer(ctx, l, buyer, marketplace.FeeAccount, fee); err != nil {
				return fmt.Errorf("fee transfer: %w", err)
			}
		}

		listing.IsActive = false
		listing.Buyer = &buyer
		listing.SoldAt = &now
		if err := l.SaveListing(listing); err != nil {
			return err
		}

		marketplace.TotalVolume = volume
		if err := l.SaveMarketplace(marketplace); err != nil {
			return err
		}

		id := listing.ListingID
		settlement := &models.Settlement{
			Type:           models.SettlementTypePurchase,
			ListingID:      &id,
			Payer:          buyer,
			Payee:          listing.Seller,
			GrossAmount:    listing.Price,
			FeeAmount:      fee,
			NetAmount:      net,
			FeeBasisPoints: marketplace.FeeBasisPoints,
			SettledAt:      now,
		}
		if err := l.CreateSettlement(settlement); err != nil {
			return err
		}

		receipt.Listing = listing
		receipt.Settlement = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}

	settlement := receipt.Settlement
	s.metrics.ObserveSettlement(string(settlement.Type), settlement.GrossAmount, settlement.FeeAmount)

	logrus.WithFields(logrus.Fields{
		"listing_id": listingID,
		"buyer":      buyer,
		"gross":      settlement.GrossAmount,
		"fee":        settlement.FeeAmount,
	}).Info("Listing purchased")

	s.emit(ctx, events.ListingPurchased, buyer, now, map[string]interface{}{
		"listing_id": listingID,
		"seller":     settlement.Payee,
		"gross":      settlement.GrossAmount,
		"fee":        settlement.FeeAmount,
		"net":        settlement.NetAmount,
	})
	return receipt, nil
}

// WithdrawFees moves amount from the fee account to the marketplace authority.
// The fee account balance is the only cap.
func (s *MarketplaceService) WithdrawFees(ctx context.Context, authority string, req *WithdrawFeesRequest) (*models.Settlement, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}

	now := s.now()
	var settlement *models.Settlement

	err := s.atomicAt(ctx, "withdraw_fees", now, func(l repository.Ledger) error {
		marketplace, err := l.GetMarketplace()
		if err != nil {
			return notFound(err, ErrMarketplaceNotInitialized)
		}
		if marketplace.Authority != authority {
			return ErrUnauthorized
		}

		if err := s.rail.Transfer(ctx, l, marketplace.FeeAccount, authority, req.Amount); err != nil {
			return err
		}

		settlement = &models.Settlement{
			Type:        models.SettlementTypeFeeWithdrawal,
			Payer:       marketplace.FeeAccount,
			Payee:       authority,
			GrossAmount: req.Amount,
			NetAmount:   req.Amount,
			SettledAt:   now,
		}
		return l.CreateSettlement(settlement)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSettlement(string(settlement.Type), 0, 0)
	s.emit(ctx, events.FeesWithdrawn, authority, now, map[string]interface{}{
		"amount": req.Amount,
	})
	return settlement, nil
}

func (s *MarketplaceService) GetMarketplace(ctx context.Context) (*models.MarketplaceConfig, error) {
	var config *models.MarketplaceConfig
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		config, err = l.GetMarketplace()
		return notFound(err, ErrMarketplaceNotInitialized)
	})
	return config, err
}

func (s *MarketplaceService) GetListing(ctx context.Context, listingID uint64) (*models.DataListing, error) {
	var listing *models.DataListing
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		listing, err = l.GetListing(listingID)
		return notFound(err, ErrListingNotFound)
	})
	return listing, err
}

func (s *MarketplaceService) SearchListings(ctx context.Context, params ListingSearchParams) ([]models.DataListing, int64, error) {
	var listings []models.DataListing
	var total int64
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		listings, total, err = l.ListListings(params.Filter, params.PaginationParams)
		return err
	})
	return listings, total, err
}
