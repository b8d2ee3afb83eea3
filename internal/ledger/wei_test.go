package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWei(t *testing.T) {
	tests := []struct {
		in   string
		want Wei
	}{
		{"50000 gwei", 50_000 * Gwei},
		{"50000 GWEI", 50_000 * Gwei},
		{"1000", 1000},
		{"1000 wei", 1000},
		{"1 ether", Ether},
		{"0.5 ether", Ether / 2},
		{".25 ether", Ether / 4},
		{"1.5 gwei", 1_500_000_000},
		{"2.000 wei", 2},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWei(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWeiErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"-1 gwei",
		"1 finney",
		"1 gwei extra",
		"1.5 wei",
		"0.0000000001 gwei",
		"19 ether",
		"1.2x ether",
	} {
		_, err := ParseWei(in)
		assert.Error(t, err, in)
	}
}

func TestWeiString(t *testing.T) {
	assert.Equal(t, "50000 gwei", DefaultRequiredFee.String())
	assert.Equal(t, "12 wei", Wei(12).String())
	assert.Equal(t, "0 wei", Wei(0).String())
}
