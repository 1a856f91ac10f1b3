package model

import (
	"time"
)

type Currency string

const (
	CurrencyUSDT Currency = "USDT"
	CurrencyTON  Currency = "TON"
	CurrencyRUB  Currency = "RUB" // quote-only, no payment rail
)

var SupportedCurrencies = []Currency{CurrencyUSDT, CurrencyTON, CurrencyRUB}

func IsSupportedCurrency(c Currency) bool {
	for _, s := range SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}

type PurchaseStatus string

const (
	PurchaseStatusPending    PurchaseStatus = "pending"
	PurchaseStatusPaid       PurchaseStatus = "paid"
	PurchaseStatusProcessing PurchaseStatus = "processing"
	PurchaseStatusCompleted  PurchaseStatus = "completed"
	PurchaseStatusFailed     PurchaseStatus = "failed"
	PurchaseStatusCancelled  PurchaseStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is allowed.
func (s PurchaseStatus) IsTerminal() bool {
	switch s {
	case PurchaseStatusCompleted, PurchaseStatusFailed, PurchaseStatusCancelled:
		return true
	}
	return false
}

var statusEdges = map[PurchaseStatus][]PurchaseStatus{
	PurchaseStatusPending:    {PurchaseStatusPaid, PurchaseStatusCancelled, PurchaseStatusFailed},
	PurchaseStatusPaid:       {PurchaseStatusProcessing, PurchaseStatusFailed},
	PurchaseStatusProcessing: {PurchaseStatusCompleted, PurchaseStatusFailed},
}

// CanTransition reports whether the status machine allows moving from one
// status to another. All edges are forward-only; nothing re-enters pending.
func CanTransition(from, to PurchaseStatus) bool {
	for _, next := range statusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	// BonusInvoiceID marks a purchase paid entirely from the bonus balance;
	// no invoice exists at the payment provider.
	BonusInvoiceID = "bonus"

	// BonusTransactionID is recorded as the delivery reference when nothing
	// had to be delivered externally.
	BonusTransactionID = "bonus_payment"

	ProductStars = "stars"
)

type Purchase struct {
	ID                    int64          `json:"id" db:"id"`
	UserID                *int64         `json:"user_id,omitempty" db:"user_id"` // nil for unauthenticated purchases
	Product               string         `json:"product" db:"product"`
	Amount                int            `json:"amount" db:"amount"`
	RecipientUsername     string         `json:"recipient_username" db:"recipient_username"`
	Currency              Currency       `json:"currency" db:"currency"`
	Price                 float64        `json:"price" db:"price"`
	InvoiceID             string         `json:"invoice_id" db:"invoice_id"`
	PaymentComment        *string        `json:"payment_comment,omitempty" db:"payment_comment"` // TON transfer memo
	Status                PurchaseStatus `json:"status" db:"status"`
	FragmentTransactionID *string        `json:"fragment_transaction_id,omitempty" db:"fragment_transaction_id"`
	ErrorMessage          *string        `json:"error_message,omitempty" db:"error_message"`
	BonusStarsUsed        float64        `json:"bonus_stars_used" db:"bonus_stars_used"`
	BonusDiscount         float64        `json:"bonus_discount" db:"bonus_discount"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	CompletedAt           *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// DeliverableAmount is how many stars must be bought at the delivery provider:
// the bonus-covered part is settled internally.
func (p *Purchase) DeliverableAmount() int {
	return p.Amount - int(p.BonusStarsUsed)
}

// PaidFromBonus reports whether the purchase was fully funded by bonus stars.
func (p *Purchase) PaidFromBonus() bool {
	return p.InvoiceID == BonusInvoiceID
}

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelError   LogLevel = "error"
)

// TransactionLog is an append-only audit record; one row per significant
// event in a purchase lifecycle.
type TransactionLog struct {
	ID         int64     `json:"id" db:"id"`
	PurchaseID int64     `json:"purchase_id" db:"purchase_id"`
	Event      string    `json:"event" db:"event"`
	Level      LogLevel  `json:"level" db:"level"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
