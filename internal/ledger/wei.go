package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wei is an unsigned payment amount in the smallest unit.
type Wei uint64

const (
	Gwei  Wei = 1_000_000_000
	Ether Wei = 1_000_000_000_000_000_000
)

// DefaultRequiredFee is the minimum payment for a booking.
const DefaultRequiredFee = 50_000 * Gwei

var units = map[string]Wei{
	"wei":   1,
	"gwei":  Gwei,
	"ether": Ether,
}

// ParseWei parses amounts such as "50000 gwei", "0.5 ether" or "1000".
// A value without a unit is taken as wei. Fractions must convert to a
// whole number of wei.
func ParseWei(s string) (Wei, error) {
	fields := strings.Fields(strings.ToLower(s))
	unit := Wei(1)
	switch len(fields) {
	case 1:
	case 2:
		u, ok := units[fields[1]]
		if !ok {
			return 0, fmt.Errorf("amount %q: unknown unit %q", s, fields[1])
		}
		unit = u
	default:
		return 0, fmt.Errorf("amount %q: want \"<value> [unit]\"", s)
	}

	whole, frac, hasFrac := strings.Cut(fields[0], ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if w > math.MaxUint64/uint64(unit) {
		return 0, fmt.Errorf("amount %q: overflows", s)
	}
	total := Wei(w) * unit
	if !hasFrac {
		return total, nil
	}

	scale := unit
	var part Wei
	for _, d := range frac {
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("amount %q: invalid digit %q", s, d)
		}
		if scale%10 != 0 {
			if d != '0' {
				return 0, fmt.Errorf("amount %q: finer than 1 wei", s)
			}
			continue
		}
		scale /= 10
		part += Wei(d-'0') * scale
	}
	if total > math.MaxUint64-part {
		return 0, fmt.Errorf("amount %q: overflows", s)
	}
	return total + part, nil
}

// String renders the amount in gwei when exact, else in wei.
func (w Wei) String() string {
	if w != 0 && w%Gwei == 0 {
		return strconv.FormatUint(uint64(w/Gwei), 10) + " gwei"
	}
	return strconv.FormatUint(uint64(w), 10) + " wei"
}
