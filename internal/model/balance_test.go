package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyBonusDelta(t *testing.T) {
	assert.Equal(t, 150.0, ApplyBonusDelta(100, 50))
	assert.Equal(t, 50.0, ApplyBonusDelta(100, -50))
	assert.Equal(t, 0.0, ApplyBonusDelta(100, -100))

	// an over-debit drains the balance instead of going negative
	assert.Equal(t, 0.0, ApplyBonusDelta(100, -150))
	assert.Equal(t, 0.0, ApplyBonusDelta(0, -10))

	assert.Equal(t, 12.5, ApplyBonusDelta(10, 2.5))
}
