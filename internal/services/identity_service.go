// internal/services/identity_service.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

type IdentityService struct {
	*Engine
}

type RegisterIdentityRequest struct {
	IdentityKey string `json:"identity_key" validate:"required,max=64"`
	EvidenceRef string `json:"evidence_ref" validate:"evidence_ref"`
}

type VerifyIdentityRequest struct {
	Level       models.VerificationLevel `json:"level" validate:"required"`
	EvidenceRef string                   `json:"evidence_ref" validate:"evidence_ref"`
}

type EvidenceRequest struct {
	EvidenceRef string `json:"evidence_ref" validate:"evidence_ref"`
}

func NewIdentityService(engine *Engine) *IdentityService {
	return &IdentityService{Engine: engine}
}

func (s *IdentityService) RegisterIdentity(ctx context.Context, owner string, req *RegisterIdentityRequest) (*models.Identity, error) {
	if req.IdentityKey == "" {
		return nil, ErrIdentityKeyRequired
	}
	if len(req.IdentityKey) > models.MaxIdentityKeyLength {
		return nil, ErrIdentityKeyTooLong
	}
	if len(req.EvidenceRef) > models.MaxEvidenceRefLength {
		return nil, ErrEvidenceRefTooLong
	}

	identity := &models.Identity{
		IdentityKey:       req.IdentityKey,
		Owner:             owner,
		EvidenceRef:       req.EvidenceRef,
		Status:            models.IdentityStatusPending,
		VerificationLevel: models.VerificationLevelNone,
	}

	err := s.atomic(ctx, "register_identity", func(l repository.Ledger) error {
		return conflict(l.CreateIdentity(identity), fmt.Errorf("%w: identity %s", ErrAlreadyExists, req.IdentityKey))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.IdentityRegistered, owner, s.now(), map[string]interface{}{
		"identity_key": identity.IdentityKey,
	})
	return identity, nil
}

// VerifyIdentity moves a pending identity to verified on behalf of an active oracle.
func (s *IdentityService) VerifyIdentity(ctx context.Context, operator, identityKey string, req *VerifyIdentityRequest) (*models.Identity, error) {
	if !req.Level.IsValid() {
		return nil, ErrInvalidVerificationLevel
	}
	if len(req.EvidenceRef) > models.MaxEvidenceRefLength {
		return nil, ErrEvidenceRefTooLong
	}

	now := s.now()
	var identity *models.Identity
	err := s.atomicAt(ctx, "verify_identity", now, func(l repository.Ledger) error {
		var err error
		identity, err = l.GetIdentity(identityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if identity.Status != models.IdentityStatusPending {
			return ErrInvalidStatus
		}

		oracle, err := l.GetOracle(operator)
		if err != nil {
			return notFound(err, ErrOracleNotFound)
		}
		if !oracle.IsActive {
			return ErrOracleNotActive
		}

		identity.Status = models.IdentityStatusVerified
		identity.VerificationLevel = req.Level
		identity.VerifiedAt = &now
		identity.VerifiedBy = operator
		identity.EvidenceRef = req.EvidenceRef
		if err := l.SaveIdentity(identity); err != nil {
			return err
		}

		oracle.VerificationCount++
		oracle.SuccessfulVerifications++
		return l.SaveOracle(oracle)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"identity_key": identityKey,
		"oracle":       operator,
		"level":        req.Level,
	}).Info("Identity verified")

	s.emit(ctx, events.IdentityVerified, operator, now, map[string]interface{}{
		"identity_key": identityKey,
		"level":        string(req.Level),
	})
	return identity, nil
}

// UpdateIdentity replaces the evidence reference of a verified identity.
func (s *IdentityService) UpdateIdentity(ctx context.Context, owner, identityKey string, req *EvidenceRequest) (*models.Identity, error) {
	if len(req.EvidenceRef) > models.MaxEvidenceRefLength {
		return nil, ErrEvidenceRefTooLong
	}

	now := s.now()
	var identity *models.Identity
	err := s.atomicAt(ctx, "update_identity", now, func(l repository.Ledger) error {
		var err error
		identity, err = l.GetIdentity(identityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if identity.Status != models.IdentityStatusVerified {
			return ErrIdentityNotVerified
		}
		if identity.Owner != owner {
			return ErrUnauthorized
		}

		identity.EvidenceRef = req.EvidenceRef
		return l.SaveIdentity(identity)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.IdentityUpdated, owner, now, map[string]interface{}{
		"identity_key": identityKey,
	})
	return identity, nil
}

// RevokeIdentity has no status precondition; revoking twice overwrites the evidence again.
func (s *IdentityService) RevokeIdentity(ctx context.Context, owner, identityKey string, req *EvidenceRequest) (*models.Identity, error) {
	if len(req.EvidenceRef) > models.MaxEvidenceRefLength {
		return nil, ErrEvidenceRefTooLong
	}

	now := s.now()
	var identity *models.Identity
	err := s.atomicAt(ctx, "revoke_identity", now, func(l repository.Ledger) error {
		var err error
		identity, err = l.GetIdentity(identityKey)
		if err != nil {
			return notFound(err, ErrIdentityNotFound)
		}
		if identity.Owner != owner {
			return ErrUnauthorized
		}

		identity.Status = models.IdentityStatusRevoked
		identity.EvidenceRef = req.EvidenceRef
		return l.SaveIdentity(identity)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("identity_key", identityKey).Info("Identity revoked")
	s.emit(ctx, events.IdentityRevoked, owner, now, map[string]interface{}{
		"identity_key": identityKey,
	})
	return identity, nil
}

func (s *IdentityService) GetIdentity(ctx context.Context, identityKey string) (*models.Identity, error) {
	var identity *models.Identity
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		identity, err = l.GetIdentity(identityKey)
		return notFound(err, ErrIdentityNotFound)
	})
	return identity, err
}

func (s *IdentityService) ListIdentities(ctx context.Context, owner string) ([]models.Identity, error) {
	var identities []models.Identity
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		identities, err = l.ListIdentitiesByOwner(owner)
		return err
	})
	return identities, err
}
