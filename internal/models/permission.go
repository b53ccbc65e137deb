// internal/models/permission.go
package models

import (
	"time"

	"github.com/lib/pq"
)

type AccessPermission struct {
	BaseModel
	RecordKey   string         `json:"-" gorm:"size:200;uniqueIndex;not null"`
	IdentityKey string         `json:"identity_key" gorm:"size:64;not null;index"`
	Consumer    string         `json:"consumer" gorm:"size:128;not null;index"`
	Kind        PermissionKind `json:"kind" gorm:"type:varchar(20);not null"`
	Categories  pq.StringArray `json:"categories" gorm:"type:text[]"`
	GrantedAt   time.Time      `json:"granted_at"`
	ExpiresAt   *time.Time     `json:"expires_at"`
	IsActive    bool           `json:"is_active" gorm:"not null;index"`
	EvidenceRef string         `json:"evidence_ref" gorm:"size:128"`
	RevokedAt   *time.Time     `json:"revoked_at"`
}

// Covers reports whether any of the given grant entries is part of the grant.
func (p *AccessPermission) Covers(entries []string) bool {
	for _, granted := range p.Categories {
		for _, entry := range entries {
			if granted == entry {
				return true
			}
		}
	}
	return false
}

// ExpiredAt reports whether the grant has an expiry at or before now.
func (p *AccessPermission) ExpiredAt(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}
