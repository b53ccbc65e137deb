// internal/models/settlement.go
package models

import "time"

type Settlement struct {
	BaseModel
	Type           SettlementType `json:"type" gorm:"type:varchar(20);not null;index"`
	ListingID      *uint64        `json:"listing_id" gorm:"index"`
	Payer          string         `json:"payer" gorm:"size:128;not null;index"`
	Payee          string         `json:"payee" gorm:"size:128;not null;index"`
	GrossAmount    uint64         `json:"gross_amount" gorm:"not null"`
	FeeAmount      uint64         `json:"fee_amount" gorm:"not null"`
	NetAmount      uint64         `json:"net_amount" gorm:"not null"`
	FeeBasisPoints uint16         `json:"fee_basis_points" gorm:"not null"`
	SettledAt      time.Time      `json:"settled_at" gorm:"index"`
}

type Deposit struct {
	BaseModel
	RecordKey        string        `json:"-" gorm:"size:200;uniqueIndex;not null"`
	Account          string        `json:"account" gorm:"size:128;not null;index"`
	Amount           uint64        `json:"amount" gorm:"not null"`
	Currency         string        `json:"currency" gorm:"size:8"`
	PaymentReference string        `json:"payment_reference" gorm:"size:255;not null"`
	Status           DepositStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CompletedAt      *time.Time    `json:"completed_at"`
}
