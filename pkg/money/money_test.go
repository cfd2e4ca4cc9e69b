package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "20.00", Format(2000))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "CAD 12.34", FormatWithCurrency(1234, "CAD"))
	assert.Equal(t, "12.34", FormatWithCurrency(1234, " "))
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"10":     1000,
		"10.5":   1050,
		"10.50":  1050,
		" 0.99 ": 99,
	}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseCentsRejectsBadInput(t *testing.T) {
	for _, in := range []string{
		"abc",
		"-1",
		"1.005",
		"10000000.01",
		"92233720368547758.08",
		"184467440737095516.17",
	} {
		cents, err := ParseCents(in)
		assert.Error(t, err, in)
		assert.Zero(t, cents, in)
	}
}

func TestParseCentsAcceptsMaximum(t *testing.T) {
	cents, err := ParseCents("10000000.00")
	assert.NoError(t, err)
	assert.Equal(t, MaxCents, cents)
}
