package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/starshop/backend/internal/model"
)

// Processor drives a confirmed purchase to a terminal state. Outcomes are
// signaled via the store and notifications, never returned.
type Processor interface {
	Process(ctx context.Context, purchaseID int64)
}

// Fulfillment finalizes paid purchases: debits used bonus stars, orders
// delivery, records the terminal status and pays the referral reward.
// Best-effort forward-only: completed steps are never rolled back.
type Fulfillment struct {
	store     Store
	delivery  DeliveryAPI
	notifier  Notifier
	referrals *ReferralService
}

func NewFulfillment(store Store, delivery DeliveryAPI, notifier Notifier, referrals *ReferralService) *Fulfillment {
	return &Fulfillment{
		store:     store,
		delivery:  delivery,
		notifier:  notifier,
		referrals: referrals,
	}
}

// Process fulfills one purchase exactly once. Callers guarantee the payment
// is confirmed; the status guard below makes a duplicate invocation a no-op.
func (f *Fulfillment) Process(ctx context.Context, purchaseID int64) {
	p, err := f.store.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		zap.L().Error("fulfillment: purchase not loaded", zap.Int64("purchase_id", purchaseID), zap.Error(err))
		return
	}

	switch p.Status {
	case model.PurchaseStatusPaid:
		if err := f.store.UpdatePurchaseStatus(ctx, purchaseID, model.PurchaseStatusProcessing, nil, nil); err != nil {
			zap.L().Error("fulfillment: failed to mark processing", zap.Int64("purchase_id", purchaseID), zap.Error(err))
			return
		}
	case model.PurchaseStatusProcessing:
		// already marked by the ledger watcher
	default:
		zap.L().Warn("fulfillment: skipping purchase in unexpected status",
			zap.Int64("purchase_id", purchaseID), zap.String("status", string(p.Status)))
		return
	}

	if err := f.run(ctx, p); err != nil {
		f.fail(ctx, p, err.Error())
	}
}

func (f *Fulfillment) run(ctx context.Context, p *model.Purchase) error {
	_ = f.store.LogTransaction(ctx, p.ID, "processing_started", model.LogLevelInfo,
		fmt.Sprintf("started processing order for %s", p.RecipientUsername))

	if p.BonusStarsUsed > 0 && p.UserID != nil {
		desc := fmt.Sprintf("purchase #%d: -%.0f bonus stars", p.ID, p.BonusStarsUsed)
		if _, err := f.store.UpdateBonusBalance(ctx, *p.UserID, -p.BonusStarsUsed,
			model.BonusTransactionTypePurchaseDebit, desc, &p.ID); err != nil {
			return fmt.Errorf("failed to debit bonus balance: %w", err)
		}
		_ = f.store.LogTransaction(ctx, p.ID, "bonus_debited", model.LogLevelInfo,
			fmt.Sprintf("debited %.0f bonus stars", p.BonusStarsUsed))
	}

	deliverable := p.DeliverableAmount()

	var txID string
	if deliverable <= 0 {
		// fully bonus-funded, nothing to buy at the provider
		txID = model.BonusTransactionID
	} else {
		result, err := f.delivery.Deliver(ctx, deliverable, p.RecipientUsername)
		if err != nil {
			return fmt.Errorf("delivery request failed: %w", err)
		}
		if !result.Success {
			f.failDelivery(ctx, p, result.Error)
			return nil
		}
		txID = result.TransactionID
	}

	if err := f.store.UpdatePurchaseStatus(ctx, p.ID, model.PurchaseStatusCompleted, &txID, nil); err != nil {
		return fmt.Errorf("failed to mark completed: %w", err)
	}
	_ = f.store.LogTransaction(ctx, p.ID, "stars_delivered", model.LogLevelSuccess,
		fmt.Sprintf("transaction id: %s", txID))

	p.FragmentTransactionID = &txID

	if p.UserID != nil {
		if err := f.notifier.SendPurchaseCompleted(*p.UserID, p); err != nil {
			zap.L().Warn("failed to send success notification", zap.Int64("purchase_id", p.ID), zap.Error(err))
		}
	}
	if err := f.notifier.SendAdminSale(p); err != nil {
		zap.L().Warn("failed to send admin notification", zap.Int64("purchase_id", p.ID), zap.Error(err))
	}

	if err := f.referrals.RewardPurchase(ctx, p); err != nil {
		// the sale is complete; a reward failure must not fail the purchase
		zap.L().Error("failed to credit referral reward", zap.Int64("purchase_id", p.ID), zap.Error(err))
	}

	return nil
}

// failDelivery handles a provider-side rejection: terminal failed state,
// buyer notified, no referral payout. The bonus debit stands.
func (f *Fulfillment) failDelivery(ctx context.Context, p *model.Purchase, reason string) {
	if err := f.store.UpdatePurchaseStatus(ctx, p.ID, model.PurchaseStatusFailed, nil, &reason); err != nil {
		zap.L().Error("failed to mark purchase failed", zap.Int64("purchase_id", p.ID), zap.Error(err))
	}
	_ = f.store.LogTransaction(ctx, p.ID, "delivery_failed", model.LogLevelError, reason)

	if p.UserID != nil {
		if err := f.notifier.SendPurchaseFailed(*p.UserID, p, reason); err != nil {
			zap.L().Warn("failed to send failure notification", zap.Int64("purchase_id", p.ID), zap.Error(err))
		}
	}
}

// fail is the outer guard for unexpected errors at any step after load.
func (f *Fulfillment) fail(ctx context.Context, p *model.Purchase, reason string) {
	if err := f.store.UpdatePurchaseStatus(ctx, p.ID, model.PurchaseStatusFailed, nil, &reason); err != nil {
		zap.L().Error("failed to mark purchase failed", zap.Int64("purchase_id", p.ID), zap.Error(err))
	}
	_ = f.store.LogTransaction(ctx, p.ID, "processing_failed", model.LogLevelError, reason)
	zap.L().Error("fulfillment failed", zap.Int64("purchase_id", p.ID), zap.String("reason", reason))

	if p.UserID != nil {
		if err := f.notifier.SendPurchaseFailed(*p.UserID, p, reason); err != nil {
			zap.L().Warn("failed to send failure notification", zap.Int64("purchase_id", p.ID), zap.Error(err))
		}
	}
}
