package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the number of bytes in an account address.
const AddressLength = 20

// Address identifies an account that can call into the ledger.
type Address [AddressLength]byte

// ZeroAddress is never a valid owner, recipient or delegate.
var ZeroAddress Address

// ParseAddress accepts a 0x-prefixed, 40 hex digit address in any letter case.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return a, fmt.Errorf("address %q: missing 0x prefix", s)
	}
	raw := s[2:]
	if len(raw) != AddressLength*2 {
		return a, fmt.Errorf("address %q: want %d hex digits, got %d", s, AddressLength*2, len(raw))
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromHash takes the trailing 20 bytes of Keccak-256(data).
func AddressFromHash(data ...[]byte) Address {
	h := Keccak256(data...)
	var a Address
	copy(a[:], h[len(h)-AddressLength:])
	return a
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) Bytes() []byte { return a[:] }

// Hex is the lowercase 0x form used as a storage key.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String renders the EIP-55 checksum form.
func (a Address) String() string {
	lower := hex.EncodeToString(a[:])
	hash := Keccak256([]byte(lower))
	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
