package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"hav/internal/ledger"
)

// MySQLStore keeps accounts in the `accounts` table. Balances are
// DECIMAL(20,0) and travel as decimal strings so the full uint64 range fits.
type MySQLStore struct {
	DB *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{DB: db}
}

func (s *MySQLStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT address, label, balance_wei FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (s *MySQLStore) Get(ctx context.Context, addr ledger.Address) (Account, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT address, label, balance_wei FROM accounts WHERE address = ?", addr.Hex())
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("%s: %w", addr, ErrNotFound)
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account %s: %w", addr, err)
	}
	return a, nil
}

func (s *MySQLStore) Debit(ctx context.Context, addr ledger.Address, amount ledger.Wei) error {
	if amount == 0 {
		_, err := s.Get(ctx, addr)
		return err
	}
	amt := strconv.FormatUint(uint64(amount), 10)
	res, err := s.DB.ExecContext(ctx,
		"UPDATE accounts SET balance_wei = balance_wei - ? WHERE address = ? AND balance_wei >= ?",
		amt, addr.Hex(), amt)
	if err != nil {
		return fmt.Errorf("debit %s: %w", addr, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: %w", addr, err)
	}
	if n == 1 {
		return nil
	}
	acc, err := s.Get(ctx, addr)
	if err != nil {
		return err
	}
	return fmt.Errorf("%s has %s, needs %s: %w", addr, acc.Balance, amount, ErrInsufficientFunds)
}

func (s *MySQLStore) Credit(ctx context.Context, addr ledger.Address, amount ledger.Wei) error {
	if amount == 0 {
		_, err := s.Get(ctx, addr)
		return err
	}
	res, err := s.DB.ExecContext(ctx,
		"UPDATE accounts SET balance_wei = balance_wei + ? WHERE address = ?",
		strconv.FormatUint(uint64(amount), 10), addr.Hex())
	if err != nil {
		return fmt.Errorf("credit %s: %w", addr, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit %s: %w", addr, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", addr, ErrNotFound)
	}
	return nil
}

// Insert adds a funded account; used to seed development databases.
func (s *MySQLStore) Insert(ctx context.Context, a Account) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO accounts (address, label, balance_wei) VALUES (?, ?, ?)",
		a.Address.Hex(), a.Label, strconv.FormatUint(uint64(a.Balance), 10))
	if err != nil {
		return fmt.Errorf("insert account %s: %w", a.Address, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (Account, error) {
	var addr, label, balance string
	if err := row.Scan(&addr, &label, &balance); err != nil {
		return Account{}, err
	}
	a, err := ledger.ParseAddress(addr)
	if err != nil {
		return Account{}, err
	}
	wei, err := strconv.ParseUint(balance, 10, 64)
	if err != nil {
		return Account{}, fmt.Errorf("balance of %s: %w", addr, err)
	}
	return Account{Address: a, Label: label, Balance: ledger.Wei(wei)}, nil
}

// Seed inserts accs when the table is empty.
func Seed(ctx context.Context, s *MySQLStore, accs []Account) error {
	var n int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&n); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, a := range accs {
		if err := s.Insert(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
