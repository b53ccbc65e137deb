// internal/models/identity.go
package models

import "time"

const (
	MaxIdentityKeyLength = 64
	MaxEvidenceRefLength = 128
	MaxDisplayNameLength = 64
	MaxDescriptionLength = 200
	MaxGrantCategories   = 10
	MinGrantCategories   = 1
)

type Identity struct {
	BaseModel
	RecordKey         string            `json:"-" gorm:"size:200;uniqueIndex;not null"`
	IdentityKey       string            `json:"identity_key" gorm:"size:64;not null;index"`
	Owner             string            `json:"owner" gorm:"size:128;not null;index"`
	EvidenceRef       string            `json:"evidence_ref" gorm:"size:128"`
	Status            IdentityStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	VerificationLevel VerificationLevel `json:"verification_level" gorm:"type:varchar(20);not null"`
	VerifiedAt        *time.Time        `json:"verified_at"`
	VerifiedBy        string            `json:"verified_by,omitempty" gorm:"size:128"`
}

func (i *Identity) IsVerified() bool {
	return i.Status == IdentityStatusVerified
}
