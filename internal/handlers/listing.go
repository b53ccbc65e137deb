// internal/handlers/listing.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type MarketplaceHandler struct {
	marketplaceService *services.MarketplaceService
}

func NewMarketplaceHandler(marketplaceService *services.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
	}
}

// GET /marketplace
func (h *MarketplaceHandler) GetMarketplace(c *gin.Context) {
	marketplace, err := h.marketplaceService.GetMarketplace(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"marketplace": marketplace,
		"fee_percent": utils.FeeRatePercent(marketplace.FeeBasisPoints),
	})
}

// POST /marketplace/withdraw
func (h *MarketplaceHandler) WithdrawFees(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authority, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.WithdrawFeesRequest
	if !bindJSON(c, &req) {
		return
	}

	settlement, err := h.marketplaceService.WithdrawFees(c.Request.Context(), authority, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyFeesWithdrawn),
		"settlement": settlement,
	})
}

// GET /listings
func (h *MarketplaceHandler) SearchListings(c *gin.Context) {
	params := utils.GetPaginationParams(c, services.ListingSortFields...)

	searchParams := services.ListingSearchParams{
		PaginationParams: params,
	}

	// Parse filters
	searchParams.Filter.Seller = c.Query("seller")
	searchParams.Filter.IdentityKey = c.Query("identity_key")
	if category, _, ok := models.ParseCategoryRef(params.Category); ok {
		searchParams.Filter.Category = category
	}
	if active := c.Query("active"); active != "" {
		if isActive, err := strconv.ParseBool(active); err == nil {
			searchParams.Filter.Active = &isActive
		}
	}

	listings, total, err := h.marketplaceService.SearchListings(c.Request.Context(), searchParams)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(listings, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /listings
func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	seller, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.marketplaceService.CreateListing(c.Request.Context(), seller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCreated),
		"listing": listing,
	})
}

// GET /listings/:id
func (h *MarketplaceHandler) GetListing(c *gin.Context) {
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	listing, err := h.marketplaceService.GetListing(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// PUT /listings/:id/price
func (h *MarketplaceHandler) UpdatePrice(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	seller, ok := requireActor(c)
	if !ok {
		return
	}
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	var req services.UpdatePriceRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.marketplaceService.UpdateListingPrice(c.Request.Context(), seller, listingID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingPriceUpdated),
		"listing": listing,
	})
}

// POST /listings/:id/cancel
func (h *MarketplaceHandler) CancelListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	seller, ok := requireActor(c)
	if !ok {
		return
	}
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	listing, err := h.marketplaceService.CancelListing(c.Request.Context(), seller, listingID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCancelled),
		"listing": listing,
	})
}

// POST /listings/:id/purchase
func (h *MarketplaceHandler) Purchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyer, ok := requireActor(c)
	if !ok {
		return
	}
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	var req services.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.marketplaceService.Purchase(c.Request.Context(), buyer, listingID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyListingPurchased),
		"listing":    receipt.Listing,
		"settlement": receipt.Settlement,
	})
}

func parseListingID(c *gin.Context) (uint64, bool) {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "listing id"), nil)
		return 0, false
	}
	return listingID, true
}
