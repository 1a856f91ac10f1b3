package service

import (
	"context"

	"github.com/starshop/backend/internal/cryptopay"
	"github.com/starshop/backend/internal/fragment"
	"github.com/starshop/backend/internal/model"
	"github.com/starshop/backend/internal/ton"
)

// Store is the transactional record store the fulfillment core runs against.
// Implemented by *repository.Repository.
type Store interface {
	CreatePurchase(ctx context.Context, p *model.Purchase) error
	GetPurchaseByID(ctx context.Context, id int64) (*model.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, id int64, status model.PurchaseStatus, txID, errMsg *string) error
	GetPendingTonPurchases(ctx context.Context) ([]model.Purchase, error)
	LogTransaction(ctx context.Context, purchaseID int64, event string, level model.LogLevel, message string) error
	GetTransactionLogs(ctx context.Context, purchaseID int64) ([]model.TransactionLog, error)

	GetBonusBalance(ctx context.Context, userID int64) (float64, error)
	UpdateBonusBalance(ctx context.Context, userID int64, delta float64, txType model.BonusTransactionType, description string, purchaseID *int64) (float64, error)

	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetReferrerID(ctx context.Context, userID int64) (*int64, error)
	GetTotalReferralStars(ctx context.Context, userID int64) (int64, error)
	UpdateReferralLevel(ctx context.Context, userID int64, level int, total int64) error
}

// InvoiceAPI is the invoice-based payment processor.
type InvoiceAPI interface {
	CreateInvoice(ctx context.Context, amount float64, asset string) (*cryptopay.Invoice, error)
	GetInvoiceStatus(ctx context.Context, invoiceID int64) (cryptopay.InvoiceStatus, error)
	DeleteInvoice(ctx context.Context, invoiceID int64) error
}

// DeliveryAPI hands purchased stars to the delivery provider.
type DeliveryAPI interface {
	Deliver(ctx context.Context, amount int, recipient string) (*fragment.DeliveryResult, error)
}

// LedgerAPI reads recent incoming transfers of the shop wallet.
type LedgerAPI interface {
	RecentTransactions(ctx context.Context, limit int) ([]ton.Transaction, error)
}

// Notifier delivers best-effort user and admin notifications (implemented by
// telegram.Bot). Failures are logged by callers, never propagated.
type Notifier interface {
	SendPurchaseCompleted(chatID int64, p *model.Purchase) error
	SendPurchaseFailed(chatID int64, p *model.Purchase, reason string) error
	SendPurchaseCancelled(chatID int64, p *model.Purchase, reason string) error
	SendReferralReward(chatID int64, reward model.ReferralReward) error
	SendAdminSale(p *model.Purchase) error
}
