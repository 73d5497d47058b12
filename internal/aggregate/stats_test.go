package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceInterval(t *testing.T) {
	t.Run("no samples", func(t *testing.T) {
		est := ConfidenceInterval(nil, DefaultAlpha)
		assert.Nil(t, est.Mean)
		assert.Nil(t, est.Interval)
	})

	t.Run("single sample has no interval", func(t *testing.T) {
		est := ConfidenceInterval([]float64{42}, DefaultAlpha)
		require.NotNil(t, est.Mean)
		assert.Equal(t, 42.0, *est.Mean)
		assert.Nil(t, est.Interval)
	})

	t.Run("student t on k-1 degrees of freedom", func(t *testing.T) {
		est := ConfidenceInterval([]float64{10, 20, 30}, DefaultAlpha)
		require.NotNil(t, est.Mean)
		require.NotNil(t, est.Interval)
		assert.InDelta(t, 20.0, *est.Mean, 1e-12)
		// t(0.975, 2) * 10/sqrt(3) = 24.8414
		assert.Equal(t, -4.85, est.Interval.Lower)
		assert.Equal(t, 44.85, est.Interval.Upper)
	})

	t.Run("zero variance collapses to the mean", func(t *testing.T) {
		est := ConfidenceInterval([]float64{5, 5, 5, 5}, DefaultAlpha)
		require.NotNil(t, est.Interval)
		assert.Equal(t, 5.0, est.Interval.Lower)
		assert.Equal(t, 5.0, est.Interval.Upper)
	})

	t.Run("interval contains the mean", func(t *testing.T) {
		samples := [][]float64{
			{25.331, 25.339},
			{1, 2, 2, 3, 9},
			{0.0012, 0.0013, 0.0011},
		}
		for _, s := range samples {
			est := ConfidenceInterval(s, DefaultAlpha)
			require.NotNil(t, est.Interval)
			assert.True(t, est.Interval.Contains(*est.Mean), "%v does not contain %v", est.Interval, *est.Mean)
		}
	})
}

func TestSummarize(t *testing.T) {
	assert.Nil(t, Summarize(nil))

	small := Summarize([]float64{3, 1, 2})
	require.NotNil(t, small)
	assert.Equal(t, []float64{1, 2, 3}, small.Points)
	assert.Nil(t, small.Med)

	box := Summarize([]float64{8, 1, 2, 3, 100, 4, 5, 6, 7})
	require.NotNil(t, box)
	assert.Equal(t, 1.0, *box.Whislo)
	assert.Equal(t, 3.0, *box.Q1)
	assert.Equal(t, 5.0, *box.Med)
	assert.Equal(t, 7.0, *box.Q3)
	assert.Equal(t, 8.0, *box.Whishi)
	assert.Equal(t, []float64{100}, box.Fliers)
	assert.Nil(t, box.Points)
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	in := []float64{4, 3, 2, 1}
	Summarize(in)
	assert.Equal(t, []float64{4, 3, 2, 1}, in)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-12)
}
