// internal/services/permission_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

type PermissionService struct {
	*Engine
}

type GrantAccessRequest struct {
	Consumer    string                `json:"consumer" validate:"required,address"`
	Kind        models.PermissionKind `json:"kind" validate:"required"`
	Categories  []string              `json:"categories" validate:"required,min=1,max=10,dive,data_category"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
	EvidenceRef string                `json:"evidence_ref" validate:"evidence_ref"`
}

type AccessDecision struct {
	IdentityKey string    `json:"identity_key"`
	Consumer    string    `json:"consumer"`
	Category    string    `json:"category"`
	Valid       bool      `json:"valid"`
	CheckedAt   time.Time `json:"checked_at"`
}

func NewPermissionService(engine *Engine) *PermissionService {
	return &PermissionService{Engine: engine}
}

// GrantAccess creates the grant for (identity, consumer). An inactive grant
// under the same pair is overwritten; an active one is a conflict.
func (s *PermissionService) GrantAccess(ctx context.Context, owner, identityKey string, req *GrantAccessRequest) (*models.AccessPermission, error) {
	now := s.now()
	var permission *models.AccessPermission

	err := s.atomicAt(ctx, "grant_access", now, func(l repository.Ledger) error {
		identity, err := l.GetIdentity(identityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if identity.Status != models.IdentityStatusVerified {
			return ErrIdentityNotVerified
		}
		if identity.Owner != owner {
			return ErrUnauthorized
		}

		switch {
		case len(req.Categories) < models.MinGrantCategories:
			return ErrNoDataCategories
		case len(req.Categories) > models.MaxGrantCategories:
			return ErrTooManyDataCategories
		}
		if len(req.EvidenceRef) > models.MaxEvidenceRefLength {
			return ErrEvidenceRefTooLong
		}
		if !req.Kind.IsValid() {
			return ErrInvalidPermissionKind
		}
		for _, ref := range req.Categories {
			if _, _, ok := models.ParseCategoryRef(ref); !ok {
				return fmt.Errorf("%w: %q", ErrInvalidDataCategory, ref)
			}
		}

		permission = &models.AccessPermission{
			IdentityKey: identityKey,
			Consumer:    req.Consumer,
			Kind:        req.Kind,
			Categories:  pq.StringArray(append([]string(nil), req.Categories...)),
			GrantedAt:   now,
			ExpiresAt:   req.ExpiresAt,
			IsActive:    true,
			EvidenceRef: req.EvidenceRef,
		}
		return conflict(l.UpsertPermission(permission),
			fmt.Errorf("%w: active grant for %s on %s", ErrAlreadyExists, req.Consumer, identityKey))
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"identity_key": identityKey,
		"consumer":     req.Consumer,
		"kind":         req.Kind,
	}).Info("Access granted")

	s.emit(ctx, events.AccessGranted, owner, now, map[string]interface{}{
		"identity_key": identityKey,
		"consumer":     req.Consumer,
		"kind":         string(req.Kind),
		"categories":   req.Categories,
	})
	return permission, nil
}

func (s *PermissionService) RevokeAccess(ctx context.Context, owner, identityKey, consumer string, req *EvidenceRequest) (*models.AccessPermission, error) {
	now := s.now()
	var permission *models.AccessPermission

	err := s.atomicAt(ctx, "revoke_access", now, func(l repository.Ledger) error {
		identity, err := l.GetIdentity(identityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if identity.Owner != owner {
			return ErrUnauthorized
		}

		permission, err = l.GetPermission(identityKey, consumer)
		if err != nil {
			return notFound(err, ErrPermissionNotFound)
		}
		if !permission.IsActive {
			return ErrPermissionNotActive
		}
		if len(req.EvidenceRef) > models.MaxEvidenceRefLength {
			return ErrEvidenceRefTooLong
		}

		permission.IsActive = false
		permission.RevokedAt = &now
		permission.EvidenceRef = req.EvidenceRef
		return l.SavePermission(permission)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.AccessRevoked, owner, now, map[string]interface{}{
		"identity_key": identityKey,
		"consumer":     consumer,
	})
	return permission, nil
}

// ValidateAccess reports whether consumer may currently read category from
// the identity. It never mutates state.
func (s *PermissionService) ValidateAccess(ctx context.Context, identityKey, consumer, category string) (*AccessDecision, error) {
	dataCategory, label, ok := models.ParseCategoryRef(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDataCategory, category)
	}

	now := s.now()
	err := s.view(ctx, func(l repository.Ledger) error {
		identity, err := l.GetIdentity(identityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		permission, err := l.GetPermission(identityKey, consumer)
		if err != nil {
			return notFound(err, ErrPermissionNotFound)
		}
		return authorizeAccess(identity, permission, models.GrantEntries(dataCategory, label), now)
	})
	if err != nil {
		return nil, err
	}

	return &AccessDecision{
		IdentityKey: identityKey,
		Consumer:    consumer,
		Category:    category,
		Valid:       true,
		CheckedAt:   now,
	}, nil
}

func (s *PermissionService) GetPermission(ctx context.Context, identityKey, consumer string) (*models.AccessPermission, error) {
	var permission *models.AccessPermission
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		permission, err = l.GetPermission(identityKey, consumer)
		return notFound(err, ErrPermissionNotFound)
	})
	return permission, err
}

func (s *PermissionService) ListPermissions(ctx context.Context, identityKey string) ([]models.AccessPermission, error) {
	var permissions []models.AccessPermission
	err := s.view(ctx, func(l repository.Ledger) error {
		if _, err := l.GetIdentity(identityKey); err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		var err error
		permissions, err = l.ListPermissionsByIdentity(identityKey)
		return err
	})
	return permissions, err
}
