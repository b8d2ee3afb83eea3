package accounts

import (
	"context"
	"fmt"
	"math"
	"sync"

	"hav/internal/ledger"
)

// DevBalance funds each generated development account.
const DevBalance = 10 * ledger.Ether

// MemoryStore keeps accounts in insertion order.
type MemoryStore struct {
	mu    sync.Mutex
	order []ledger.Address
	byKey map[ledger.Address]*Account
}

func NewMemoryStore(accs ...Account) *MemoryStore {
	s := &MemoryStore{byKey: make(map[ledger.Address]*Account)}
	for _, a := range accs {
		s.Add(a)
	}
	return s
}

// DevAccounts builds n deterministic, funded accounts.
func DevAccounts(n int, balance ledger.Wei) []Account {
	out := make([]Account, n)
	for i := range out {
		out[i] = Account{
			Address: ledger.AddressFromHash([]byte(fmt.Sprintf("hav-dev-account-%d", i))),
			Label:   fmt.Sprintf("accounts[%d]", i),
			Balance: balance,
		}
	}
	return out
}

// Add inserts or replaces an account.
func (s *MemoryStore) Add(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[a.Address]; !ok {
		s.order = append(s.order, a.Address)
	}
	acc := a
	s.byKey[a.Address] = &acc
}

func (s *MemoryStore) List(_ context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, 0, len(s.order))
	for _, addr := range s.order {
		out = append(out, *s.byKey[addr])
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, addr ledger.Address) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byKey[addr]
	if !ok {
		return Account{}, fmt.Errorf("%s: %w", addr, ErrNotFound)
	}
	return *a, nil
}

func (s *MemoryStore) Debit(_ context.Context, addr ledger.Address, amount ledger.Wei) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byKey[addr]
	if !ok {
		return fmt.Errorf("%s: %w", addr, ErrNotFound)
	}
	if a.Balance < amount {
		return fmt.Errorf("%s has %s, needs %s: %w", addr, a.Balance, amount, ErrInsufficientFunds)
	}
	a.Balance -= amount
	return nil
}

func (s *MemoryStore) Credit(_ context.Context, addr ledger.Address, amount ledger.Wei) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byKey[addr]
	if !ok {
		return fmt.Errorf("%s: %w", addr, ErrNotFound)
	}
	if a.Balance > math.MaxUint64-amount {
		return fmt.Errorf("credit %s to %s: balance overflows", amount, addr)
	}
	a.Balance += amount
	return nil
}
