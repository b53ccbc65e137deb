// internal/services/account_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/datasov-backend/internal/config"
	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type AccountService struct {
	*Engine
	cfg *config.Config
}

type RegisterAccountRequest struct {
	Address string `json:"address" validate:"required,address"`
	Secret  string `json:"secret" validate:"required,strong_password"`
}

type TokenRequest struct {
	Address string `json:"address" validate:"required"`
	Secret  string `json:"secret" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	Account      *models.Account `json:"account"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // in seconds
}

type BalanceResponse struct {
	Address   string `json:"address"`
	Balance   uint64 `json:"balance"`
	Formatted string `json:"formatted"`
	Currency  string `json:"currency"`
}

func NewAccountService(engine *Engine, cfg *config.Config) *AccountService {
	return &AccountService{
		Engine: engine,
		cfg:    cfg,
	}
}

// Register creates a member account. An address that already received value
// through a transfer but never set a secret is claimed instead.
func (s *AccountService) Register(ctx context.Context, req *RegisterAccountRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var account *models.Account
	err := s.atomic(ctx, "register_account", func(l repository.Ledger) error {
		existing, err := l.GetAccount(req.Address)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			account = &models.Account{Address: req.Address, Role: models.AccountRoleMember}
			if err := account.SetSecret(req.Secret); err != nil {
				return fmt.Errorf("failed to hash secret: %w", err)
			}
			return l.CreateAccount(account)
		case err != nil:
			return err
		}

		if existing.SecretHash != "" || existing.Role != models.AccountRoleMember {
			return fmt.Errorf("%w: account %s", ErrAlreadyExists, req.Address)
		}
		if err := existing.SetSecret(req.Secret); err != nil {
			return fmt.Errorf("failed to hash secret: %w", err)
		}
		account = existing
		return l.SaveAccount(account)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.AccountRegistered, account.Address, s.now(), nil)
	return s.issueTokens(account)
}

func (s *AccountService) Token(ctx context.Context, req *TokenRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	var account *models.Account
	err := s.atomicAt(ctx, "issue_token", now, func(l repository.Ledger) error {
		var err error
		account, err = l.GetAccount(req.Address)
		if err != nil {
			return notFound(err, ErrInvalidCredentials)
		}
		if account.SecretHash == "" || account.CheckSecret(req.Secret) != nil {
			return ErrInvalidCredentials
		}
		account.LastLoginAt = &now
		return l.SaveAccount(account)
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(account)
}

func (s *AccountService) Refresh(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error) {
	address, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	account, err := s.Profile(ctx, address)
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	return s.issueTokens(account)
}

func (s *AccountService) issueTokens(account *models.Account) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(account.Address, string(account.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(account.Address, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AccountService) Profile(ctx context.Context, address string) (*models.Account, error) {
	var account *models.Account
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		account, err = l.GetAccount(address)
		return notFound(err, ErrAccountNotFound)
	})
	return account, err
}

// Balance reports the spendable balance. An address that never held value
// has a zero balance rather than an error.
func (s *AccountService) Balance(ctx context.Context, address string) (*BalanceResponse, error) {
	var balance uint64
	err := s.view(ctx, func(l repository.Ledger) error {
		account, err := l.GetAccount(address)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{
		Address:   address,
		Balance:   balance,
		Formatted: utils.FormatMinorUnits(balance, s.cfg.Marketplace.CurrencyExponent),
		Currency:  s.cfg.Payment.Currency,
	}, nil
}

func (s *AccountService) Settlements(ctx context.Context, address string, params utils.PaginationParams) ([]models.Settlement, int64, error) {
	var settlements []models.Settlement
	var total int64
	err := s.view(ctx, func(l repository.Ledger) error {
		var err error
		settlements, total, err = l.ListSettlements(address, params)
		return err
	})
	return settlements, total, err
}

// SeedAccounts provisions the fee account and the bootstrap admin. Existing
// accounts are left untouched.
func (s *AccountService) SeedAccounts(ctx context.Context) error {
	return s.atomic(ctx, "seed_accounts", func(l repository.Ledger) error {
		if err := ensureAccount(l, &models.Account{
			Address: s.cfg.Marketplace.FeeAccount,
			Role:    models.AccountRoleSystem,
		}); err != nil {
			return err
		}

		if s.cfg.Admin.Secret == "" {
			logrus.WithField("address", s.cfg.Admin.Address).Warn("Admin secret not set, skipping admin account")
			return nil
		}

		admin := &models.Account{Address: s.cfg.Admin.Address, Role: models.AccountRoleAdmin}
		if err := admin.SetSecret(s.cfg.Admin.Secret); err != nil {
			return fmt.Errorf("failed to hash admin secret: %w", err)
		}
		return ensureAccount(l, admin)
	})
}

func ensureAccount(l repository.Ledger, account *models.Account) error {
	_, err := l.GetAccount(account.Address)
	if errors.Is(err, repository.ErrNotFound) {
		logrus.WithFields(logrus.Fields{
			"address": account.Address,
			"role":    account.Role,
		}).Info("Seeding account")
		return l.CreateAccount(account)
	}
	return err
}
