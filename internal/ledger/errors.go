package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientPayment: the attached value is below the required fee.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrUnauthorized: the caller is not the current owner.
	ErrUnauthorized = errors.New("caller is not the room owner")
	// ErrNotOccupied: an owner-only operation was attempted on a vacant room.
	ErrNotOccupied = errors.New("room is not occupied")
	// ErrNoOwner: the owner was queried while the room is vacant.
	ErrNoOwner = errors.New("room has no owner")
	// ErrOccupied: a booking was attempted while the room is taken.
	ErrOccupied = errors.New("room is already occupied")
	// ErrInvalidAddress: the zero address was given where an account is required.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrWrongPassword: the password does not match the one given at booking.
	ErrWrongPassword = errors.New("wrong password")
	// ErrBalanceOverflow: accepting the payment would overflow the collected balance.
	ErrBalanceOverflow = errors.New("collected balance would overflow")
)

// RevertError is returned by every failed ledger call. State is unchanged
// when a RevertError is returned.
type RevertError struct {
	Op     string
	Sender Address
	Err    error
}

func (e *RevertError) Error() string {
	if e.Sender.IsZero() {
		return fmt.Sprintf("%s reverted: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s reverted for %s: %v", e.Op, e.Sender, e.Err)
}

func (e *RevertError) Unwrap() error { return e.Err }

func revert(op string, sender Address, err error) error {
	return &RevertError{Op: op, Sender: sender, Err: err}
}

// IsRevert reports whether err came from a rejected ledger call.
func IsRevert(err error) bool {
	var re *RevertError
	return errors.As(err, &re)
}

// Kind returns a stable code for err, or "" when err is not a ledger error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientPayment):
		return "InsufficientPayment"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotOccupied):
		return "NotOccupied"
	case errors.Is(err, ErrNoOwner):
		return "NoOwner"
	case errors.Is(err, ErrOccupied):
		return "Occupied"
	case errors.Is(err, ErrInvalidAddress):
		return "InvalidAddress"
	case errors.Is(err, ErrWrongPassword):
		return "WrongPassword"
	case errors.Is(err, ErrBalanceOverflow):
		return "BalanceOverflow"
	}
	return ""
}
