package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferralLevelForTotal(t *testing.T) {
	tests := []struct {
		total int64
		level int
	}{
		{0, 1},
		{4999, 1},
		{5000, 2},
		{9999, 2},
		{10000, 3},
		{15000, 4},
		{19999, 4},
		{20000, 5},
		{100000, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, ReferralLevelForTotal(tt.total), "total=%d", tt.total)
	}
}

func TestReferralRewardPercent(t *testing.T) {
	assert.Equal(t, 0.02, ReferralRewardPercent(1))
	assert.Equal(t, 0.04, ReferralRewardPercent(2))
	assert.Equal(t, 0.06, ReferralRewardPercent(3))
	assert.Equal(t, 0.08, ReferralRewardPercent(4))
	assert.Equal(t, 0.10, ReferralRewardPercent(5))

	// out-of-range levels clamp
	assert.Equal(t, 0.02, ReferralRewardPercent(0))
	assert.Equal(t, 0.10, ReferralRewardPercent(7))
}

func TestCalcReferralReward(t *testing.T) {
	reward := CalcReferralReward(1, 0, 1000)
	assert.Equal(t, 20.0, reward.BonusStars)
	assert.Equal(t, 1, reward.NewLevel)
	assert.Equal(t, int64(1000), reward.NewTotal)
	assert.False(t, reward.Promoted)
}

func TestCalcReferralReward_PaysAtPrePromotionRate(t *testing.T) {
	// the purchase that crosses the threshold still pays at the old rate
	reward := CalcReferralReward(1, 4500, 1000)
	assert.Equal(t, 20.0, reward.BonusStars)
	assert.Equal(t, 2, reward.NewLevel)
	assert.Equal(t, int64(5500), reward.NewTotal)
	assert.True(t, reward.Promoted)
}

func TestCalcReferralReward_LevelNeverDecreases(t *testing.T) {
	// a manually elevated level survives a low total
	reward := CalcReferralReward(4, 100, 50)
	assert.Equal(t, 4, reward.NewLevel)
	assert.False(t, reward.Promoted)
	assert.Equal(t, 4.0, reward.BonusStars)
}

func TestCalcReferralReward_CapsAtMaxLevel(t *testing.T) {
	reward := CalcReferralReward(5, 1000000, 2000)
	assert.Equal(t, 5, reward.NewLevel)
	assert.Equal(t, 200.0, reward.BonusStars)
	assert.False(t, reward.Promoted)
}
