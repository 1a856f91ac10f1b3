package model

import (
	"time"
)

type User struct {
	ID                 int64     `json:"id" db:"id"`
	Username           *string   `json:"username,omitempty" db:"username"`
	FirstName          *string   `json:"first_name,omitempty" db:"first_name"`
	LastName           *string   `json:"last_name,omitempty" db:"last_name"`
	LanguageCode       *string   `json:"language_code,omitempty" db:"language_code"`
	ReferralCode       string    `json:"referral_code" db:"referral_code"`
	ReferredBy         *int64    `json:"referred_by,omitempty" db:"referred_by"`
	ReferralLevel      int       `json:"referral_level" db:"referral_level"`
	TotalReferralStars int64     `json:"total_referral_stars" db:"total_referral_stars"`
	BonusBalance       float64   `json:"bonus_balance" db:"bonus_balance"` // bonus stars redeemable as discount
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
