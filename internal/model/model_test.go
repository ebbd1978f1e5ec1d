package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierLow},
		{40, TierLow},
		{40.01, TierMedium},
		{70, TierMedium},
		{70.01, TierHigh},
		{100, TierHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %.2f", tt.score)
	}
}

func TestLoadProfile_Aggregates(t *testing.T) {
	t.Parallel()

	p := LoadProfile{
		Segments: []CustomerSegment{
			{Name: SegmentHousehold, Count: 160, DailyKWh: 0.5},
			{Name: SegmentProductiveUse, Count: 16, DailyKWh: 2.0},
		},
	}

	assert.Equal(t, 176, p.Connections())
	assert.InDelta(t, 112.0, p.DailyEnergyKWh(), 1e-9)
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "config: weights=1.2: criterion weights must sum to 1",
		NewConfigError("weights", 1.2, "criterion weights must sum to 1").Error())
	assert.Equal(t, "config: store.path: sqlite path is required",
		NewConfigError("store.path", nil, "sqlite path is required").Error())
	assert.Equal(t, "validation: population=-10: population must be >= 0",
		NewValidationError("population", -10, "population must be >= 0").Error())
	assert.Equal(t, "computation: irr: no root in search interval [-0.50, 2.00]",
		NewComputationError("irr", "no root in search interval [-0.50, 2.00]").Error())
}
