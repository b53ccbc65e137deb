// internal/services/oracle_service.go
package services

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

type OracleService struct {
	*Engine
}

type InitializeRegistryRequest struct {
	MinimumStake uint64 `json:"minimum_stake"`
	SlashAmount  uint64 `json:"slash_amount"`
}

type RegisterOracleRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=64"`
	StakeAmount uint64 `json:"stake_amount"`
}

func NewOracleService(engine *Engine) *OracleService {
	return &OracleService{Engine: engine}
}

func (s *OracleService) InitializeRegistry(ctx context.Context, authority string, req *InitializeRegistryRequest) (*models.OracleRegistry, error) {
	if req.MinimumStake > models.MaxAmount || req.SlashAmount > models.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	registry := &models.OracleRegistry{
		Authority:    authority,
		MinimumStake: req.MinimumStake,
		SlashAmount:  req.SlashAmount,
	}

	err := s.atomic(ctx, "initialize_registry", func(l repository.Ledger) error {
		return conflict(l.CreateOracleRegistry(registry), ErrAlreadyInitialized)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.RegistryInitialized, authority, s.now(), map[string]interface{}{
		"minimum_stake": registry.MinimumStake,
		"slash_amount":  registry.SlashAmount,
	})
	return registry, nil
}

func (s *OracleService) RegisterOracle(ctx context.Context, operator string, req *RegisterOracleRequest) (*models.Oracle, error) {
	if len(req.DisplayName) > models.MaxDisplayNameLength {
		return nil, ErrDisplayNameTooLong
	}
	if req.StakeAmount > models.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	now := s.now()
	oracle := &models.Oracle{
		Operator:        operator,
		DisplayName:     req.DisplayName,
		StakeAmount:     req.StakeAmount,
		ReputationScore: models.InitialReputationScore,
		IsActive:        true,
		RegisteredAt:    now,
	}

	err := s.atomicAt(ctx, "register_oracle", now, func(l repository.Ledger) error {
		registry, err := l.GetOracleRegistry()
		if err != nil {
			return notFound(err, ErrRegistryNotInitialized)
		}

		if req.StakeAmount < registry.MinimumStake {
			return ErrInsufficientStake
		}

		if err := l.CreateOracle(oracle); err != nil {
			return conflict(err, fmt.Errorf("%w: oracle for %s", ErrAlreadyExists, operator))
		}

		if registry.OracleCount == math.MaxUint32 {
			return ErrArithmeticOverflow
		}
		registry.OracleCount++
		return l.SaveOracleRegistry(registry)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"operator": operator,
		"stake":    oracle.StakeAmount,
	}).Info("Oracle registered")

	s.emit(ctx, events.OracleRegistered, operator, now, map[string]interface{}{
		"operator":     operator,
		"display_name": oracle.DisplayName,
		"stake_amount": oracle.StakeAmount,
	})
	return oracle, nil
}

func (s *OracleService) GetRegistry(ctx context.Context) (*models.OracleRegistry, error) {
	var registry *models.OracleRegistry
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		registry, err = l.GetOracleRegistry()
		return notFound(err, ErrRegistryNotInitialized)
	})
	return registry, err
}

func (s *OracleService) GetOracle(ctx context.Context, operator string) (*models.Oracle, error) {
	var oracle *models.Oracle
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		oracle, err = l.GetOracle(operator)
		return notFound(err, ErrOracleNotFound)
	})
	return oracle, err
}
