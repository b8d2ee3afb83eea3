package models

import (
	"strconv"

	"hav/internal/ledger"
)

// Room is the JSON view of the ledger. Amounts are decimal wei strings.
type Room struct {
	Occupied       bool             `json:"occupied"`
	Owner          *ledger.Address  `json:"owner,omitempty"`
	Approved       []ledger.Address `json:"approved"`
	RequiredFee    string           `json:"required_fee"`
	RequiredFeeWei string           `json:"required_fee_wei"`
	BalanceWei     string           `json:"balance_wei"`
}

func RoomFrom(r ledger.Room) Room {
	return Room{
		Occupied:       r.Occupied(),
		Owner:          r.Owner,
		Approved:       r.Approved,
		RequiredFee:    r.RequiredFee.String(),
		RequiredFeeWei: WeiString(r.RequiredFee),
		BalanceWei:     WeiString(r.Balance),
	}
}

func WeiString(w ledger.Wei) string {
	return strconv.FormatUint(uint64(w), 10)
}
