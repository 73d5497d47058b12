package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in       float64
		places   int32
		expected float64
	}{
		{2.675, 2, 2.67},
		{1.005, 2, 1.0},
		{-1.235, 2, -1.24},
		{12.34567, 4, 12.3457},
		{3.0, 2, 3.0},
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{-2.5, 0, -2},
		{1234.5, -1, 1230},
		{0, 3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Round(tt.in, tt.places), "Round(%v, %d)", tt.in, tt.places)
	}
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestRoundDirected(t *testing.T) {
	assert.Equal(t, 25.33, RoundDown(25.3399, 2))
	assert.Equal(t, 25.34, RoundUp(25.3301, 2))
	assert.Equal(t, 25.33, RoundUp(25.33, 2))
	assert.Equal(t, -1.24, RoundDown(-1.231, 2))
}

func TestRoundInt(t *testing.T) {
	assert.Equal(t, 2, RoundInt(2.5))
	assert.Equal(t, 4, RoundInt(3.5))
	assert.Equal(t, 2, RoundInt(2.49))
	assert.Equal(t, 3, RoundInt(2.51))
	assert.Equal(t, -2, RoundInt(-2.5))
}

func TestMode(t *testing.T) {
	v, ok := Mode([]int{1, -1, -1, 1})
	assert.True(t, ok)
	assert.Equal(t, 1, v, "tie goes to the first value seen")

	v, ok = Mode([]int{1, -1, -1})
	assert.True(t, ok)
	assert.Equal(t, -1, v)

	_, ok = Mode([]int{})
	assert.False(t, ok)
}

func TestMinMaxMean(t *testing.T) {
	lo, hi, ok := MinMax([]int{4, 9, -2, 7})
	assert.True(t, ok)
	assert.Equal(t, -2, lo)
	assert.Equal(t, 9, hi)

	_, _, ok = MinMax([]float64{})
	assert.False(t, ok)

	m, ok := Mean([]int{1, 2, 3, 4})
	assert.True(t, ok)
	assert.InDelta(t, 2.5, m, 1e-12)
}
