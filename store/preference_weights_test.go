package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsertPreferenceWeightsValidate(t *testing.T) {
	valid := UpsertPreferenceWeights{
		UserID:         1,
		Interests:      map[string]float64{"cooking": 1.4, "travel": 0.5},
		LastAnalyzedTs: 1748250000,
	}
	assert.NoError(t, valid.Validate())

	tooHigh := valid
	tooHigh.Vibes = map[string]float64{"cozy": 2.01}
	assert.Error(t, tooHigh.Validate())

	tooLow := valid
	tooLow.Kinds = map[string]float64{"gift": 0.49}
	assert.Error(t, tooLow.Validate())
}

func TestMultiplier(t *testing.T) {
	m := map[string]float64{"cooking": 1.4}
	assert.Equal(t, 1.4, Multiplier(m, "cooking"))
	assert.Equal(t, 1.0, Multiplier(m, "travel"))
	assert.Equal(t, 1.0, Multiplier(nil, "anything"))
}
