package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/starshop/backend/internal/model"
)

const (
	invoiceCheckInterval = 2 * time.Second
	invoiceCheckTimeout  = 15 * time.Minute
)

// InvoiceWatcher polls one payment-processor invoice until it resolves:
// paid, expired/cancelled, or the wall-clock budget runs out. One watcher is
// dispatched per invoice-paid purchase.
type InvoiceWatcher struct {
	store    Store
	invoices InvoiceAPI
	engine   Processor
	notifier Notifier

	interval    time.Duration
	maxAttempts int
}

func NewInvoiceWatcher(store Store, invoices InvoiceAPI, engine Processor, notifier Notifier) *InvoiceWatcher {
	return &InvoiceWatcher{
		store:       store,
		invoices:    invoices,
		engine:      engine,
		notifier:    notifier,
		interval:    invoiceCheckInterval,
		maxAttempts: int(invoiceCheckTimeout / invoiceCheckInterval),
	}
}

// Watch runs the polling loop. Any error escaping the loop is unexpected;
// the purchase is forced to a terminal state so it never stays pending.
func (w *InvoiceWatcher) Watch(ctx context.Context, purchaseID, invoiceID int64) {
	if err := w.watch(ctx, purchaseID, invoiceID); err != nil {
		reason := fmt.Sprintf("unexpected error: %v", err)
		w.terminate(ctx, purchaseID, invoiceID, model.PurchaseStatusFailed, reason, "check_invoice_failed")
	}
}

func (w *InvoiceWatcher) watch(ctx context.Context, purchaseID, invoiceID int64) error {
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil // process shutdown, the purchase stays pending
		}

		status, err := w.invoices.GetInvoiceStatus(ctx, invoiceID)
		if err != nil {
			// transient provider error: log and keep polling
			zap.L().Warn("invoice status check failed",
				zap.Int64("purchase_id", purchaseID), zap.Int("attempt", attempt), zap.Error(err))
			_ = w.store.LogTransaction(ctx, purchaseID, "invoice_check_failed", model.LogLevelError,
				fmt.Sprintf("attempt %d: %v", attempt, err))
			w.sleep(ctx)
			continue
		}

		switch status {
		case "paid":
			if err := w.store.UpdatePurchaseStatus(ctx, purchaseID, model.PurchaseStatusPaid, nil, nil); err != nil {
				return fmt.Errorf("failed to mark paid: %w", err)
			}
			w.engine.Process(ctx, purchaseID)
			return nil

		case "expired", "cancelled":
			reason := fmt.Sprintf("invoice %s", status)
			w.terminate(ctx, purchaseID, invoiceID, model.PurchaseStatusCancelled, reason, "invoice_failed")
			return nil
		}

		w.sleep(ctx)
	}

	budget := time.Duration(w.maxAttempts) * w.interval
	reason := fmt.Sprintf("payment timeout: invoice not paid within %s", budget)
	w.terminate(ctx, purchaseID, invoiceID, model.PurchaseStatusCancelled, reason, "invoice_timeout")
	return nil
}

// terminate drives the purchase to cancelled/failed, cleans up the invoice
// and notifies the buyer. Cleanup and notification are best-effort.
func (w *InvoiceWatcher) terminate(ctx context.Context, purchaseID, invoiceID int64, status model.PurchaseStatus, reason, event string) {
	if err := w.store.UpdatePurchaseStatus(ctx, purchaseID, status, nil, &reason); err != nil {
		zap.L().Error("failed to update purchase status",
			zap.Int64("purchase_id", purchaseID), zap.String("status", string(status)), zap.Error(err))
	}
	_ = w.store.LogTransaction(ctx, purchaseID, event, model.LogLevelError, reason)

	if err := w.invoices.DeleteInvoice(ctx, invoiceID); err != nil {
		zap.L().Warn("failed to delete invoice",
			zap.Int64("purchase_id", purchaseID), zap.Int64("invoice_id", invoiceID), zap.Error(err))
	}

	p, err := w.store.GetPurchaseByID(ctx, purchaseID)
	if err != nil || p.UserID == nil {
		return
	}

	var notifyErr error
	if status == model.PurchaseStatusCancelled {
		notifyErr = w.notifier.SendPurchaseCancelled(*p.UserID, p, reason)
	} else {
		notifyErr = w.notifier.SendPurchaseFailed(*p.UserID, p, reason)
	}
	if notifyErr != nil {
		zap.L().Warn("failed to send notification", zap.Int64("purchase_id", purchaseID), zap.Error(notifyErr))
	}
}

func (w *InvoiceWatcher) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.interval):
	}
}
