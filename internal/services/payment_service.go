// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/datasov-backend/internal/config"
	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

// IntentClient is the slice of the Stripe PaymentIntent API deposits use.
// *paymentintent.Client satisfies it.
type IntentClient interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// PaymentService funds ledger accounts from card payments. A deposit is
// credited exactly once, when its payment intent has succeeded.
type PaymentService struct {
	*Engine
	intents IntentClient
	config  *config.Config
}

type CreateDepositRequest struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

type ConfirmDepositRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type DepositIntentResponse struct {
	ClientSecret string          `json:"client_secret"`
	PaymentID    string          `json:"payment_id"`
	Status       string          `json:"status"`
	Deposit      *models.Deposit `json:"deposit"`
}

// NewPaymentService wires the Stripe client when a secret key is configured.
// Without one, deposits fail with ErrPaymentsDisabled.
func NewPaymentService(engine *Engine, cfg *config.Config) *PaymentService {
	var intents IntentClient
	if cfg.Payment.StripeSecretKey != "" {
		intents = &paymentintent.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.Payment.StripeSecretKey,
		}
	}
	return NewPaymentServiceWithClient(engine, cfg, intents)
}

func NewPaymentServiceWithClient(engine *Engine, cfg *config.Config, intents IntentClient) *PaymentService {
	return &PaymentService{
		Engine:  engine,
		intents: intents,
		config:  cfg,
	}
}

func (s *PaymentService) CreateDeposit(ctx context.Context, address string, req *CreateDepositRequest) (*DepositIntentResponse, error) {
	if s.intents == nil {
		return nil, ErrPaymentsDisabled
	}
	if req.Amount == 0 || req.Amount < s.config.Payment.MinimumDeposit {
		return nil, fmt.Errorf("%w: minimum deposit is %d", ErrInvalidAmount, s.config.Payment.MinimumDeposit)
	}
	if req.Amount > models.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount)),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.Context = ctx
	params.AddMetadata("account", address)

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	deposit := &models.Deposit{
		Account:          address,
		Amount:           req.Amount,
		Currency:         s.config.Payment.Currency,
		PaymentReference: pi.ID,
		Status:           models.DepositStatusPending,
	}
	err = s.atomic(ctx, "create_deposit", func(l repository.Ledger) error {
		return conflict(l.CreateDeposit(deposit), fmt.Errorf("%w: deposit %s", ErrAlreadyExists, pi.ID))
	})
	if err != nil {
		return nil, err
	}

	return &DepositIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Deposit:      deposit,
	}, nil
}

// ConfirmDeposit reconciles a deposit with its payment intent. Confirming a
// completed deposit again returns it unchanged.
func (s *PaymentService) ConfirmDeposit(ctx context.Context, address string, req *ConfirmDepositRequest) (*models.Deposit, error) {
	if s.intents == nil {
		return nil, ErrPaymentsDisabled
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.intents.Get(req.PaymentIntentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	return s.applyIntent(ctx, address, pi)
}

func (s *PaymentService) applyIntent(ctx context.Context, address string, pi *stripe.PaymentIntent) (*models.Deposit, error) {
	now := s.now()
	var deposit *models.Deposit
	credited := false

	err := s.atomicAt(ctx, "confirm_deposit", now, func(l repository.Ledger) error {
		var err error
		deposit, err = l.GetDeposit(pi.ID)
		if err != nil {
			return notFound(err, ErrDepositNotFound)
		}
		if deposit.Account != address {
			return ErrUnauthorized
		}
		if deposit.Status != models.DepositStatusPending {
			return nil
		}

		switch pi.Status {
		case stripe.PaymentIntentStatusSucceeded:
			if pi.Amount != int64(deposit.Amount) {
				deposit.Status = models.DepositStatusFailed
				return l.SaveDeposit(deposit)
			}
			if err := creditAccount(l, deposit.Account, deposit.Amount); err != nil {
				return err
			}
			deposit.Status = models.DepositStatusCompleted
			deposit.CompletedAt = &now
			credited = true
			return l.SaveDeposit(deposit)

		case stripe.PaymentIntentStatusCanceled:
			deposit.Status = models.DepositStatusFailed
			return l.SaveDeposit(deposit)

		default:
			return ErrDepositPending
		}
	})
	if err != nil {
		return nil, err
	}

	if deposit.Status == models.DepositStatusFailed {
		return deposit, ErrPaymentFailed
	}

	if credited {
		logrus.WithFields(logrus.Fields{
			"account":   deposit.Account,
			"amount":    deposit.Amount,
			"reference": deposit.PaymentReference,
		}).Info("Deposit credited")

		s.emit(ctx, events.DepositCredited, deposit.Account, now, map[string]interface{}{
			"amount":    deposit.Amount,
			"reference": deposit.PaymentReference,
		})
	}
	return deposit, nil
}

func creditAccount(l repository.Ledger, address string, amount uint64) error {
	account, err := l.GetAccount(address)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if amount > models.MaxAmount {
			return ErrArithmeticOverflow
		}
		return l.CreateAccount(&models.Account{Address: address, Role: models.AccountRoleMember, Balance: amount})
	case err != nil:
		return err
	}

	if account.Balance, err = checkedCredit(account.Balance, amount); err != nil {
		return err
	}
	return l.SaveAccount(account)
}
