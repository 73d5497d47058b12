package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeDoneEvent_Succeeded(t *testing.T) {
	tests := []struct {
		name     string
		event    RecomputeDoneEvent
		expected bool
	}{
		{
			name:     "diagnostics without error",
			event:    RecomputeDoneEvent{RunID: uuid.New(), Diagnostics: &Diagnostics{PointsRead: 10}},
			expected: true,
		},
		{
			name:     "error set",
			event:    RecomputeDoneEvent{RunID: uuid.New(), Error: "schema error"},
			expected: false,
		},
		{
			name:     "error with diagnostics",
			event:    RecomputeDoneEvent{RunID: uuid.New(), Diagnostics: &Diagnostics{}, Error: "boom"},
			expected: false,
		},
		{
			name:     "nothing set",
			event:    RecomputeDoneEvent{RunID: uuid.New()},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Succeeded())
		})
	}
}

func TestRecomputeEvent_JSON(t *testing.T) {
	id := uuid.New()
	data, err := json.Marshal(RecomputeEvent{RunID: id, TrajectoryPath: "trips.csv"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "edges_path")

	var decoded RecomputeEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded.RunID)
	assert.Equal(t, "trips.csv", decoded.TrajectoryPath)
}
