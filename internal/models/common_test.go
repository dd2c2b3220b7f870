package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNutriScore(t *testing.T) {
	for _, grade := range []string{"a", "B", " c ", "d", "E"} {
		score := ParseNutriScore(grade)
		if assert.NotNil(t, score, grade) {
			assert.Len(t, string(*score), 1)
		}
	}

	for _, grade := range []string{"", "unknown", "not-applicable", "f", "ab"} {
		assert.Nil(t, ParseNutriScore(grade), grade)
	}
}

func TestConsumptionStatusValid(t *testing.T) {
	assert.True(t, ConsumptionStatusConsumed.Valid())
	assert.True(t, ConsumptionStatusWasted.Valid())
	assert.False(t, ConsumptionStatus("eaten").Valid())
	assert.False(t, ConsumptionStatus("").Valid())
}
