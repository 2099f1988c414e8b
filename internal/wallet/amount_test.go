package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected float64
		ok       bool
	}{
		{name: "integer", raw: "10", expected: 10, ok: true},
		{name: "decimal", raw: "1.5", expected: 1.5, ok: true},
		{name: "small fraction", raw: "0.000000001", expected: 0.000000001, ok: true},
		{name: "zero", raw: "0", ok: false},
		{name: "negative", raw: "-1", ok: false},
		{name: "not a number", raw: "ten", ok: false},
		{name: "infinity", raw: "Inf", ok: false},
		{name: "nan", raw: "NaN", ok: false},
		{name: "empty", raw: "", ok: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			amount, err := ParseAmount(tc.raw)
			if tc.ok {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, amount)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAtomicConversions(t *testing.T) {
	assert.Equal(t, uint64(1_500_000_000), ToAtomic(1.5, 9))
	assert.Equal(t, uint64(2_500_000), ToAtomic(2.5, 6))
	assert.Equal(t, 1.5, FromAtomic(1_500_000_000, 9))
	assert.Equal(t, 0.25, FromAtomic(250_000, 6))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatAmount(1.5))
	assert.Equal(t, "10", FormatAmount(10))
	assert.Equal(t, "0.000000001", FormatAmount(0.000000001))
}
