package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/starshop/backend/internal/cryptopay"
	"github.com/starshop/backend/internal/fragment"
	"github.com/starshop/backend/internal/model"
	"github.com/starshop/backend/internal/repository"
	"github.com/starshop/backend/internal/ton"
)

// fakeStore is an in-memory Store honoring the same transition rules as the
// SQL repository.
type fakeStore struct {
	mu sync.Mutex

	nextID    int64
	purchases map[int64]*model.Purchase
	users     map[int64]*model.User
	logs      []model.TransactionLog
	bonusTxs  []model.BonusTransaction

	// injectable failures
	getPurchaseErr  error
	updateStatusErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		purchases: make(map[int64]*model.Purchase),
		users:     make(map[int64]*model.User),
	}
}

func (s *fakeStore) addUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ReferralLevel == 0 {
		u.ReferralLevel = model.MinReferralLevel
	}
	s.users[u.ID] = u
}

func (s *fakeStore) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	if p.Status == "" {
		p.Status = model.PurchaseStatusPending
	}
	cp := *p
	s.purchases[p.ID] = &cp
	return nil
}

func (s *fakeStore) GetPurchaseByID(ctx context.Context, id int64) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getPurchaseErr != nil {
		return nil, s.getPurchaseErr
	}
	p, ok := s.purchases[id]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpdatePurchaseStatus(ctx context.Context, id int64, status model.PurchaseStatus, txID, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateStatusErr != nil {
		return s.updateStatusErr
	}
	p, ok := s.purchases[id]
	if !ok {
		return repository.ErrPurchaseNotFound
	}
	if !model.CanTransition(p.Status, status) {
		return fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, p.Status, status)
	}
	p.Status = status
	if txID != nil {
		p.FragmentTransactionID = txID
	}
	if errMsg != nil {
		p.ErrorMessage = errMsg
	}
	return nil
}

func (s *fakeStore) GetPendingTonPurchases(ctx context.Context) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Purchase
	for _, p := range s.purchases {
		if p.Status == model.PurchaseStatusPending && p.Currency == model.CurrencyTON && p.PaymentComment != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) LogTransaction(ctx context.Context, purchaseID int64, event string, level model.LogLevel, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, model.TransactionLog{
		PurchaseID: purchaseID,
		Event:      event,
		Level:      level,
		Message:    message,
	})
	return nil
}

func (s *fakeStore) GetTransactionLogs(ctx context.Context, purchaseID int64) ([]model.TransactionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TransactionLog
	for _, l := range s.logs {
		if l.PurchaseID == purchaseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) hasLogEvent(event string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.logs {
		if l.Event == event {
			return true
		}
	}
	return false
}

func (s *fakeStore) GetBonusBalance(ctx context.Context, userID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return u.BonusBalance, nil
}

func (s *fakeStore) UpdateBonusBalance(ctx context.Context, userID int64, delta float64, txType model.BonusTransactionType, description string, purchaseID *int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	before := u.BonusBalance
	u.BonusBalance = model.ApplyBonusDelta(before, delta)
	s.bonusTxs = append(s.bonusTxs, model.BonusTransaction{
		UserID:        userID,
		Amount:        delta,
		Type:          txType,
		PurchaseID:    purchaseID,
		BalanceBefore: before,
		BalanceAfter:  u.BonusBalance,
	})
	return u.BonusBalance, nil
}

func (s *fakeStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetReferrerID(ctx context.Context, userID int64) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return u.ReferredBy, nil
}

func (s *fakeStore) GetTotalReferralStars(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return u.TotalReferralStars, nil
}

func (s *fakeStore) UpdateReferralLevel(ctx context.Context, userID int64, level int, total int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ReferralLevel = level
	u.TotalReferralStars = total
	return nil
}

// fakeInvoices scripts a sequence of invoice statuses and counts calls.
type fakeInvoices struct {
	mu       sync.Mutex
	statuses []cryptopay.InvoiceStatus
	statErr  error
	calls    int
	deleted  []int64
	created  []*cryptopay.Invoice
}

func (f *fakeInvoices) CreateInvoice(ctx context.Context, amount float64, asset string) (*cryptopay.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv := &cryptopay.Invoice{
		InvoiceID: int64(1000 + len(f.created)),
		Status:    cryptopay.InvoiceStatusActive,
		Asset:     asset,
		PayURL:    "https://pay.example/inv",
	}
	f.created = append(f.created, inv)
	return inv, nil
}

func (f *fakeInvoices) GetInvoiceStatus(ctx context.Context, invoiceID int64) (cryptopay.InvoiceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return "", f.statErr
	}
	i := f.calls
	f.calls++
	if i >= len(f.statuses) {
		return f.statuses[len(f.statuses)-1], nil
	}
	return f.statuses[i], nil
}

func (f *fakeInvoices) DeleteInvoice(ctx context.Context, invoiceID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, invoiceID)
	return nil
}

// fakeDelivery returns a scripted result or transport error.
type fakeDelivery struct {
	mu     sync.Mutex
	result *fragment.DeliveryResult
	err    error
	calls  int
	amount int
}

func (f *fakeDelivery) Deliver(ctx context.Context, amount int, recipient string) (*fragment.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.amount = amount
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &fragment.DeliveryResult{Success: true, TransactionID: "tx-123"}, nil
}

// fakeLedger serves a fixed batch of transactions.
type fakeLedger struct {
	mu  sync.Mutex
	txs []ton.Transaction
	err error
}

func (f *fakeLedger) RecentTransactions(ctx context.Context, limit int) ([]ton.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

// recordingNotifier captures every notification.
type recordingNotifier struct {
	mu        sync.Mutex
	completed []int64
	failed    []int64
	cancelled []int64
	rewards   []model.ReferralReward
	admin     int
}

func (n *recordingNotifier) SendPurchaseCompleted(chatID int64, p *model.Purchase) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, chatID)
	return nil
}

func (n *recordingNotifier) SendPurchaseFailed(chatID int64, p *model.Purchase, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, chatID)
	return nil
}

func (n *recordingNotifier) SendPurchaseCancelled(chatID int64, p *model.Purchase, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, chatID)
	return nil
}

func (n *recordingNotifier) SendReferralReward(chatID int64, reward model.ReferralReward) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rewards = append(n.rewards, reward)
	return nil
}

func (n *recordingNotifier) SendAdminSale(p *model.Purchase) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin++
	return nil
}

// countingProcessor records fulfillment dispatches.
type countingProcessor struct {
	mu  sync.Mutex
	ids []int64
}

func (p *countingProcessor) Process(ctx context.Context, purchaseID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, purchaseID)
}
