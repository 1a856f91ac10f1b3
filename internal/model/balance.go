package model

import (
	"time"
)

type BonusTransactionType string

const (
	BonusTransactionTypeReferralReward BonusTransactionType = "referral_reward"
	BonusTransactionTypePurchaseDebit  BonusTransactionType = "purchase_debit"
	BonusTransactionTypeManual         BonusTransactionType = "manual"
)

// BonusTransaction is the audit row written alongside every bonus balance
// mutation.
type BonusTransaction struct {
	ID            int64                `json:"id" db:"id"`
	UserID        int64                `json:"user_id" db:"user_id"`
	Amount        float64              `json:"amount" db:"amount"` // positive = credit, negative = debit
	Type          BonusTransactionType `json:"type" db:"type"`
	Description   *string              `json:"description,omitempty" db:"description"`
	PurchaseID    *int64               `json:"purchase_id,omitempty" db:"purchase_id"`
	BalanceBefore float64              `json:"balance_before" db:"balance_before"`
	BalanceAfter  float64              `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
}

// ApplyBonusDelta is the single rule for bonus balance arithmetic: the
// balance never goes negative, whatever the delta.
func ApplyBonusDelta(current, delta float64) float64 {
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}
