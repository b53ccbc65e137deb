// internal/services/authorization.go
package services

import (
	"time"

	"github.com/javajoker/datasov-backend/internal/models"
)

// authorizeAccess is the read-only check shared by access validation and
// purchase. Checks run in a fixed order so callers see a stable error.
func authorizeAccess(identity *models.Identity, permission *models.AccessPermission, entries []string, now time.Time) error {
	if !identity.IsVerified() {
		return ErrIdentityNotVerified
	}
	if !permission.IsActive {
		return ErrPermissionNotActive
	}
	if !permission.Covers(entries) {
		return ErrDataCategoryNotAuthorized
	}
	if permission.ExpiredAt(now) {
		return ErrPermissionExpired
	}
	return nil
}
