// internal/services/transfer.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

// TransferRail moves value between accounts inside the caller's unit of work.
// A failure leaves the unit of work to roll back every earlier leg.
type TransferRail interface {
	Transfer(ctx context.Context, l repository.Ledger, from, to string, amount uint64) error
}

// LedgerRail settles transfers against Account balances held in the record store.
type LedgerRail struct{}

func (LedgerRail) Transfer(ctx context.Context, l repository.Ledger, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}

	source, err := l.GetAccount(from)
	if err != nil {
		return notFound(err, fmt.Errorf("%w: %s", ErrAccountNotFound, from))
	}
	if source.Balance < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, source.Balance, amount)
	}
	if from == to {
		return nil
	}

	destination, err := l.GetAccount(to)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		destination = &models.Account{Address: to, Role: models.AccountRoleMember}
		if err := l.CreateAccount(destination); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	credited, err := checkedCredit(destination.Balance, amount)
	if err != nil {
		return err
	}

	source.Balance -= amount
	destination.Balance = credited
	if err := l.SaveAccount(source); err != nil {
		return err
	}
	return l.SaveAccount(destination)
}
