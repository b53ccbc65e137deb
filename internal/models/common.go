// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type IdentityStatus string

const (
	IdentityStatusPending  IdentityStatus = "pending"
	IdentityStatusVerified IdentityStatus = "verified"
	IdentityStatusRevoked  IdentityStatus = "revoked"
	// IdentityStatusSuspended is part of the persisted vocabulary but no
	// operation transitions into or out of it.
	IdentityStatusSuspended IdentityStatus = "suspended"
)

type VerificationLevel string

const (
	VerificationLevelNone       VerificationLevel = "none"
	VerificationLevelBasic      VerificationLevel = "basic"
	VerificationLevelEnhanced   VerificationLevel = "enhanced"
	VerificationLevelHigh       VerificationLevel = "high"
	VerificationLevelCredential VerificationLevel = "credential"
)

func (l VerificationLevel) IsValid() bool {
	switch l {
	case VerificationLevelNone, VerificationLevelBasic, VerificationLevelEnhanced,
		VerificationLevelHigh, VerificationLevelCredential:
		return true
	}
	return false
}

type PermissionKind string

const (
	PermissionKindReadOnly  PermissionKind = "read_only"
	PermissionKindReadWrite PermissionKind = "read_write"
	PermissionKindShare     PermissionKind = "share"
	PermissionKindAnalyze   PermissionKind = "analyze"
	PermissionKindExport    PermissionKind = "export"
)

func (k PermissionKind) IsValid() bool {
	switch k {
	case PermissionKindReadOnly, PermissionKindReadWrite, PermissionKindShare,
		PermissionKindAnalyze, PermissionKindExport:
		return true
	}
	return false
}

type AccountRole string

const (
	AccountRoleMember AccountRole = "member"
	AccountRoleAdmin  AccountRole = "admin"
	AccountRoleSystem AccountRole = "system"
)

type SettlementType string

const (
	SettlementTypePurchase      SettlementType = "purchase"
	SettlementTypeFeeWithdrawal SettlementType = "fee_withdrawal"
)

type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusFailed    DepositStatus = "failed"
)

// Basis points denominator shared by fee rates and reputation scores.
const BasisPointsDenominator = 10000

// MaxAmount is the largest price, balance or volume a bigint column holds.
const MaxAmount uint64 = 1<<63 - 1
