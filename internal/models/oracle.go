// internal/models/oracle.go
package models

import "time"

// Initial reputation for a newly registered oracle, in basis points.
const InitialReputationScore uint16 = 5000

type OracleRegistry struct {
	BaseModel
	RecordKey    string `json:"-" gorm:"size:200;uniqueIndex;not null"`
	Authority    string `json:"authority" gorm:"size:128;not null"`
	MinimumStake uint64 `json:"minimum_stake" gorm:"not null"`
	SlashAmount  uint64 `json:"slash_amount" gorm:"not null"`
	OracleCount  uint32 `json:"oracle_count" gorm:"not null"`
}

type Oracle struct {
	BaseModel
	RecordKey               string    `json:"-" gorm:"size:200;uniqueIndex;not null"`
	Operator                string    `json:"operator" gorm:"size:128;not null;index"`
	DisplayName             string    `json:"display_name" gorm:"size:64;not null"`
	StakeAmount             uint64    `json:"stake_amount" gorm:"not null"`
	VerificationCount       uint64    `json:"verification_count" gorm:"not null"`
	SuccessfulVerifications uint64    `json:"successful_verifications" gorm:"not null"`
	ReputationScore         uint16    `json:"reputation_score" gorm:"not null"` // informational, never recomputed
	IsActive                bool      `json:"is_active" gorm:"not null;index"`
	RegisteredAt            time.Time `json:"registered_at"`
}
