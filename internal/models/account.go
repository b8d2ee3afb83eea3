package models

import (
	"hav/internal/accounts"
	"hav/internal/ledger"
)

type Account struct {
	Address    ledger.Address `json:"address"`
	Label      string         `json:"label"`
	BalanceWei string         `json:"balance_wei"`
}

func AccountFrom(a accounts.Account) Account {
	return Account{Address: a.Address, Label: a.Label, BalanceWei: WeiString(a.Balance)}
}
