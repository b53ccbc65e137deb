// internal/models/listing.go
package models

import "time"

type MarketplaceConfig struct {
	BaseModel
	RecordKey      string `json:"-" gorm:"size:200;uniqueIndex;not null"`
	Authority      string `json:"authority" gorm:"size:128;not null"`
	FeeBasisPoints uint16 `json:"fee_basis_points" gorm:"not null"`
	FeeAccount     string `json:"fee_account" gorm:"size:128;not null"`
	TotalListings  uint64 `json:"total_listings" gorm:"not null"`
	TotalVolume    uint64 `json:"total_volume" gorm:"not null"`
}

type DataListing struct {
	BaseModel
	RecordKey   string       `json:"-" gorm:"size:200;uniqueIndex;not null"`
	ListingID   uint64       `json:"listing_id" gorm:"not null;index"`
	Seller      string       `json:"seller" gorm:"size:128;not null;index"`
	Price       uint64       `json:"price" gorm:"not null"`
	Category    DataCategory `json:"category" gorm:"type:varchar(32);not null;index"`
	CustomLabel string       `json:"custom_label,omitempty" gorm:"size:64"`
	Description string       `json:"description" gorm:"size:200"`
	IdentityKey string       `json:"identity_key" gorm:"size:64;not null;index"`
	IsActive    bool         `json:"is_active" gorm:"not null;index"`
	SoldAt      *time.Time   `json:"sold_at"`
	CancelledAt *time.Time   `json:"cancelled_at"`
	Buyer       *string      `json:"buyer" gorm:"size:128;index"`
}
