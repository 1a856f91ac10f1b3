package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/starshop/backend/internal/model"
	"github.com/starshop/backend/pkg/task"
)

const (
	tonScanInterval = 5 * time.Second
	tonScanLimit    = 50

	// tonAmountTolerance absorbs network-fee rounding when matching a
	// transfer against the expected price.
	tonAmountTolerance = 0.001

	// tonSeenCap bounds the dedup set. Clearing it risks reprocessing very
	// old transactions, which is a no-op once their comment no longer maps
	// to a pending purchase.
	tonSeenCap = 10000

	commentIndexCap = 10000
)

// CommentIndex correlates TON transfer memo comments with purchases awaiting
// on-chain payment. Entries are removed on match; on overflow the whole map
// is cleared, accepting a small miss window for very old purchases.
type CommentIndex struct {
	mu  sync.Mutex
	cap int
	m   map[string]int64
}

func NewCommentIndex() *CommentIndex {
	return &CommentIndex{
		cap: commentIndexCap,
		m:   make(map[string]int64),
	}
}

func (c *CommentIndex) Register(comment string, purchaseID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= c.cap {
		c.m = make(map[string]int64)
	}
	c.m[comment] = purchaseID
}

func (c *CommentIndex) Lookup(comment string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.m[comment]
	return id, ok
}

func (c *CommentIndex) Remove(comment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, comment)
}

// TonWatcher is the single process-lifetime loop reconciling incoming
// ledger transfers against purchases awaiting TON payment. Matches are
// handed to the fulfillment engine as detached tasks.
type TonWatcher struct {
	store      Store
	ledger     LedgerAPI
	engine     Processor
	dispatcher task.Dispatcher
	comments   *CommentIndex

	interval time.Duration
	limit    int
	seen     map[string]struct{}
}

func NewTonWatcher(store Store, ledger LedgerAPI, engine Processor, dispatcher task.Dispatcher, comments *CommentIndex) *TonWatcher {
	return &TonWatcher{
		store:      store,
		ledger:     ledger,
		engine:     engine,
		dispatcher: dispatcher,
		comments:   comments,
		interval:   tonScanInterval,
		limit:      tonScanLimit,
		seen:       make(map[string]struct{}),
	}
}

// Start runs until the context is cancelled. Scan errors never stop the
// loop.
func (w *TonWatcher) Start(ctx context.Context) {
	w.seedComments(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	zap.L().Info("ton watcher started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("ton watcher stopped")
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// seedComments reloads the memo index from purchases that were still
// pending when the process last stopped.
func (w *TonWatcher) seedComments(ctx context.Context) {
	purchases, err := w.store.GetPendingTonPurchases(ctx)
	if err != nil {
		zap.L().Error("failed to load pending TON purchases", zap.Error(err))
		return
	}
	for _, p := range purchases {
		if p.PaymentComment != nil {
			w.comments.Register(*p.PaymentComment, p.ID)
		}
	}
	if len(purchases) > 0 {
		zap.L().Info("seeded pending TON purchases", zap.Int("count", len(purchases)))
	}
}

// Scan processes one batch of recent ledger transactions.
func (w *TonWatcher) Scan(ctx context.Context) {
	txs, err := w.ledger.RecentTransactions(ctx, w.limit)
	if err != nil {
		zap.L().Error("ledger scan failed", zap.Error(err))
		return
	}

	for _, tx := range txs {
		if _, ok := w.seen[tx.Hash]; ok {
			continue
		}
		if !w.match(ctx, tx.Hash, tx.AmountTON(), tx.Comment) {
			// inconclusive, leave the transaction for the next scan
			continue
		}
		if len(w.seen) >= tonSeenCap {
			w.seen = make(map[string]struct{})
		}
		w.seen[tx.Hash] = struct{}{}
	}
}

// match reports whether the transaction reached a conclusive outcome. A
// store failure mid-match returns false so the transfer is retried on the
// next scan instead of being dropped.
func (w *TonWatcher) match(ctx context.Context, txHash string, amountTON float64, comment string) bool {
	if comment == "" {
		return true
	}

	purchaseID, ok := w.comments.Lookup(comment)
	if !ok {
		return true
	}

	p, err := w.store.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		zap.L().Error("failed to load purchase for TON transfer",
			zap.Int64("purchase_id", purchaseID), zap.Error(err))
		return false
	}

	if p.Status != model.PurchaseStatusPending {
		// already resolved elsewhere, drop the stale correlation
		w.comments.Remove(comment)
		return true
	}

	if math.Abs(amountTON-p.Price) > tonAmountTolerance {
		zap.L().Warn("TON transfer amount mismatch",
			zap.Int64("purchase_id", purchaseID),
			zap.Float64("expected", p.Price),
			zap.Float64("received", amountTON))
		return true
	}

	if err := w.store.UpdatePurchaseStatus(ctx, purchaseID, model.PurchaseStatusPaid, nil, nil); err != nil {
		zap.L().Error("failed to mark purchase paid", zap.Int64("purchase_id", purchaseID), zap.Error(err))
		return false
	}
	if err := w.store.UpdatePurchaseStatus(ctx, purchaseID, model.PurchaseStatusProcessing, nil, nil); err != nil {
		zap.L().Error("failed to mark purchase processing", zap.Int64("purchase_id", purchaseID), zap.Error(err))
		return false
	}

	_ = w.store.LogTransaction(ctx, purchaseID, "ton_payment_received", model.LogLevelInfo,
		fmt.Sprintf("tx %s, %.4f TON", txHash, amountTON))

	w.comments.Remove(comment)

	zap.L().Info("TON payment matched",
		zap.Int64("purchase_id", purchaseID), zap.String("tx", txHash), zap.Float64("amount", amountTON))

	id := purchaseID
	w.dispatcher.Dispatch("fulfillment", func(taskCtx context.Context) {
		w.engine.Process(taskCtx, id)
	})
	return true
}
