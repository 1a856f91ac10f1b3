package model

const (
	MinReferralLevel = 1
	MaxReferralLevel = 5

	// ReferralLevelStep is how many lifetime referred stars promote the
	// referrer by one level.
	ReferralLevelStep = 5000
)

// referralRewardPercent maps a referral level to the share of a referred
// purchase credited back to the referrer, in bonus stars.
var referralRewardPercent = map[int]float64{
	1: 0.02,
	2: 0.04,
	3: 0.06,
	4: 0.08,
	5: 0.10,
}

// ReferralRewardPercent returns the reward rate for a level, clamped to the
// valid 1..5 range.
func ReferralRewardPercent(level int) float64 {
	if level < MinReferralLevel {
		level = MinReferralLevel
	}
	if level > MaxReferralLevel {
		level = MaxReferralLevel
	}
	return referralRewardPercent[level]
}

// ReferralLevelForTotal is the level a lifetime referred-star total maps to:
// min(5, total/5000 + 1). Non-decreasing in total, capped at 5.
func ReferralLevelForTotal(total int64) int {
	level := int(total/ReferralLevelStep) + 1
	if level > MaxReferralLevel {
		level = MaxReferralLevel
	}
	return level
}

// ReferralReward is the outcome of crediting one completed purchase to the
// buyer's referrer. The caller persists the balance credit and the
// level/total update.
type ReferralReward struct {
	BonusStars float64
	NewLevel   int
	NewTotal   int64
	Promoted   bool
}

// CalcReferralReward computes the reward for a completed purchase of `stars`
// stars given the referrer's pre-purchase level and lifetime total. The
// bonus is paid at the rate in effect before this purchase's promotion.
func CalcReferralReward(level int, total int64, stars int) ReferralReward {
	newTotal := total + int64(stars)
	newLevel := ReferralLevelForTotal(newTotal)
	if newLevel < level {
		newLevel = level // level never decreases
	}
	return ReferralReward{
		BonusStars: float64(stars) * ReferralRewardPercent(level),
		NewLevel:   newLevel,
		NewTotal:   newTotal,
		Promoted:   newLevel > level,
	}
}

type ReferralStats struct {
	TotalReferrals int     `json:"total_referrals"`
	Level          int     `json:"level"`
	TotalStars     int64   `json:"total_stars"`
	RewardPercent  float64 `json:"reward_percent"`
}
