// Package accounts keeps the funded caller identities that pay for ledger calls.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"hav/internal/ledger"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type Account struct {
	Address ledger.Address
	Label   string
	Balance ledger.Wei
}

// Store is a set of funded accounts. Debit and Credit are atomic per call.
type Store interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, addr ledger.Address) (Account, error)
	Debit(ctx context.Context, addr ledger.Address, amount ledger.Wei) error
	Credit(ctx context.Context, addr ledger.Address, amount ledger.Wei) error
}

const DevelopmentNetwork = "development"

// Select picks the identity that deploys and operates the ledger: the first
// account on the development network, otherwise the configured wallet.
func Select(ctx context.Context, store Store, network string, wallet *ledger.Address) (Account, error) {
	if network == DevelopmentNetwork {
		all, err := store.List(ctx)
		if err != nil {
			return Account{}, err
		}
		if len(all) == 0 {
			return Account{}, fmt.Errorf("select account on %s: %w", network, ErrNotFound)
		}
		return all[0], nil
	}
	if wallet == nil {
		return Account{}, fmt.Errorf("select account on %s: no wallet address configured", network)
	}
	acc, err := store.Get(ctx, *wallet)
	if err != nil {
		return Account{}, fmt.Errorf("select account on %s: %w", network, err)
	}
	return acc, nil
}
