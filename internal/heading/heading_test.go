package heading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/map-metadata/internal/domain"
)

func TestClassifyCardinal(t *testing.T) {
	tests := []struct {
		heading  float64
		expected domain.CardinalDirection
	}{
		{0, domain.North},
		{22.4999, domain.North},
		{22.5, domain.NorthEast},
		{67.4, domain.NorthEast},
		{67.5, domain.East},
		{90, domain.East},
		{135, domain.SouthEast},
		{180, domain.South},
		{202.5, domain.SouthWest},
		{270, domain.West},
		{315, domain.NorthWest},
		{337.4999, domain.NorthWest},
		{337.5, domain.North},
		{359.999, domain.North},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			got, err := ClassifyCardinal(tt.heading)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got, "heading %v", tt.heading)
		})
	}
}

// The largest float below each boundary stays in the lower octant.
func TestClassifyCardinal_JustBelowBoundary(t *testing.T) {
	tests := []struct {
		boundary float64
		below    domain.CardinalDirection
		at       domain.CardinalDirection
	}{
		{22.5, domain.North, domain.NorthEast},
		{67.5, domain.NorthEast, domain.East},
		{112.5, domain.East, domain.SouthEast},
		{157.5, domain.SouthEast, domain.South},
		{202.5, domain.South, domain.SouthWest},
		{247.5, domain.SouthWest, domain.West},
		{292.5, domain.West, domain.NorthWest},
		{337.5, domain.NorthWest, domain.North},
	}

	for _, tt := range tests {
		t.Run(tt.at.String(), func(t *testing.T) {
			got, err := ClassifyCardinal(math.Nextafter(tt.boundary, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.below, got)

			got, err = ClassifyCardinal(tt.boundary)
			require.NoError(t, err)
			assert.Equal(t, tt.at, got)
		})
	}

	got, err := ClassifyCardinal(math.Nextafter(360, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.North, got)
}

func TestClassifyCardinal_OutOfRange(t *testing.T) {
	for _, h := range []float64{-0.001, 360, 400, math.NaN(), math.Inf(1)} {
		_, err := ClassifyCardinal(h)
		assert.ErrorIs(t, err, domain.ErrHeadingRange, "heading %v", h)
		assert.ErrorIs(t, err, domain.ErrFormat, "heading %v", h)
	}
}

// Every heading in [0, 360) lands in exactly one octant and each octant
// spans 45 contiguous degrees.
func TestClassifyCardinal_Partition(t *testing.T) {
	counts := make(map[domain.CardinalDirection]int)
	const step = 0.25
	for h := 0.0; h < 360; h += step {
		d, err := ClassifyCardinal(h)
		require.NoError(t, err)
		require.True(t, d.Valid())
		counts[d]++
	}
	require.Len(t, counts, domain.CardinalCount)
	for d, n := range counts {
		assert.Equal(t, int(45/step), n, "octant %s", d)
	}
}

func TestTurn(t *testing.T) {
	tests := []struct {
		name     string
		h1, h2   float64
		expected domain.TurnCategory
	}{
		{"right", 0, 90, domain.TurnRight},
		{"left", 0, 270, domain.TurnLeft},
		{"u-turn", 0, 180, domain.TurnUTurn},
		{"ahead small", 10, 20, domain.TurnAhead},
		{"ahead wrap", 20, 350, domain.TurnAhead},
		{"none between ahead and right", 0, 50, domain.TurnNone},
		{"none between u-turn and left", 0, 210, domain.TurnNone},
		{"right lower bound", 0, 67, domain.TurnRight},
		{"right upper bound", 0, 135, domain.TurnRight},
		{"left upper bound", 0, 292, domain.TurnLeft},
		{"ahead bound 45", 0, 45, domain.TurnAhead},
		{"ahead bound 315", 0, 315, domain.TurnAhead},
		{"u-turn bounds", 100, 302, domain.TurnUTurn},
		{"wrapping right", 300, 30, domain.TurnRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Turn(tt.h1, tt.h2))
		})
	}
}

func TestRelativeHeading(t *testing.T) {
	assert.InDelta(t, 90.0, RelativeHeading(0, 90), 1e-9)
	assert.InDelta(t, 270.0, RelativeHeading(90, 0), 1e-9)
	assert.InDelta(t, 0.0, RelativeHeading(45, 45), 1e-9)
	assert.InDelta(t, 20.0, RelativeHeading(350, 10), 1e-9)
}

func TestInferDirectionality(t *testing.T) {
	tests := []struct {
		name     string
		seen     domain.CardinalSet
		expected domain.Directionality
	}{
		{"exact opposite", domain.NewCardinalSet(domain.North, domain.South), domain.Twoway},
		{"single direction", domain.NewCardinalSet(domain.North), domain.Oneway},
		{"approximate opposite", domain.NewCardinalSet(domain.North, domain.SouthEast), domain.Twoway},
		{"adjacent only", domain.NewCardinalSet(domain.North, domain.NorthEast, domain.East), domain.Oneway},
		{"east west", domain.NewCardinalSet(domain.East, domain.West), domain.Twoway},
		{"ne with s", domain.NewCardinalSet(domain.NorthEast, domain.South), domain.Twoway},
		{"perpendicular", domain.NewCardinalSet(domain.North, domain.East), domain.Oneway},
		{"empty", domain.CardinalSet(0), domain.Ambiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferDirectionality(tt.seen))
		})
	}
}

func TestStructuralDirectionality_SingleSegment(t *testing.T) {
	seen := domain.NewCardinalSet(domain.North, domain.South)
	assert.Equal(t, domain.Ambiguous, StructuralDirectionality(seen, 1))
	assert.Equal(t, domain.Twoway, StructuralDirectionality(seen, 2))
}

func TestDirectionalityFromVectors(t *testing.T) {
	assert.Equal(t, domain.Twoway, DirectionalityFromVectors(domain.DirectionTally{Forward: 1, Backward: 2}))
	assert.Equal(t, domain.Oneway, DirectionalityFromVectors(domain.DirectionTally{Forward: 3, Parallel: 1}))
	assert.Equal(t, domain.Ambiguous, DirectionalityFromVectors(domain.DirectionTally{Parallel: 2}))
}
