package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starshop/backend/internal/config"
	"github.com/starshop/backend/internal/model"
	"github.com/starshop/backend/pkg/task"
)

var (
	ErrInvalidAmount       = errors.New("invalid stars amount")
	ErrMissingRecipient    = errors.New("recipient username is required")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNoPaymentRail       = errors.New("currency is quote-only and cannot be paid with")
)

type CreatePurchaseRequest struct {
	UserID            *int64         `json:"-"`
	Amount            int            `json:"amount"`
	RecipientUsername string         `json:"recipient_username"`
	Currency          model.Currency `json:"currency"`
	UseBonus          bool           `json:"use_bonus"`
}

// TonTransferInfo tells the client how to pay a TON purchase: a direct
// transfer to the shop wallet carrying the correlation comment.
type TonTransferInfo struct {
	WalletAddress string  `json:"wallet_address"`
	AmountTON     float64 `json:"amount_ton"`
	Comment       string  `json:"comment"`
	Deeplink      string  `json:"deeplink"`
}

// PurchaseResult is the response to a purchase creation: the pending record
// plus whichever payment instructions apply to the chosen rail.
type PurchaseResult struct {
	Purchase    *model.Purchase  `json:"purchase"`
	PayURL      string           `json:"pay_url,omitempty"`
	TonTransfer *TonTransferInfo `json:"ton_transfer,omitempty"`
}

// PurchaseService creates purchases and routes them onto the right payment
// rail: processor invoice, direct TON transfer, or the bonus balance.
type PurchaseService struct {
	store      Store
	prices     *PriceService
	invoices   InvoiceAPI
	watcher    *InvoiceWatcher
	engine     Processor
	dispatcher task.Dispatcher
	comments   *CommentIndex
	wallet     string
}

func NewPurchaseService(
	store Store,
	prices *PriceService,
	invoices InvoiceAPI,
	watcher *InvoiceWatcher,
	engine Processor,
	dispatcher task.Dispatcher,
	comments *CommentIndex,
	wallet string,
) *PurchaseService {
	return &PurchaseService{
		store:      store,
		prices:     prices,
		invoices:   invoices,
		watcher:    watcher,
		engine:     engine,
		dispatcher: dispatcher,
		comments:   comments,
		wallet:     wallet,
	}
}

// CreatePurchase validates the request, reserves the buyer's bonus stars as
// a discount, creates the pending record and starts the matching payment
// watcher. Bonus stars are only debited at fulfillment, after the payment
// is confirmed.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req *CreatePurchaseRequest) (*PurchaseResult, error) {
	if req.Amount < config.MinStarsAmount {
		return nil, ErrInvalidAmount
	}
	recipient := strings.TrimPrefix(strings.TrimSpace(req.RecipientUsername), "@")
	if recipient == "" {
		return nil, ErrMissingRecipient
	}
	if !model.IsSupportedCurrency(req.Currency) {
		return nil, ErrUnsupportedCurrency
	}
	if req.Currency == model.CurrencyRUB {
		return nil, ErrNoPaymentRail
	}

	prices, err := s.prices.GetStarPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get star prices: %w", err)
	}
	unitPrice := prices[req.Currency]

	var bonusUsed float64
	if req.UseBonus && req.UserID != nil {
		balance, err := s.store.GetBonusBalance(ctx, *req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bonus balance: %w", err)
		}
		bonusUsed = math.Min(math.Floor(balance), float64(req.Amount))
	}

	price := unitPrice * (float64(req.Amount) - bonusUsed)
	price = math.Round(price*1e6) / 1e6

	p := &model.Purchase{
		UserID:            req.UserID,
		Product:           model.ProductStars,
		Amount:            req.Amount,
		RecipientUsername: recipient,
		Currency:          req.Currency,
		Price:             price,
		Status:            model.PurchaseStatusPending,
		BonusStarsUsed:    bonusUsed,
		BonusDiscount:     math.Round(unitPrice*bonusUsed*1e6) / 1e6,
	}

	if bonusUsed >= float64(req.Amount) {
		return s.createBonusPurchase(ctx, p)
	}

	switch req.Currency {
	case model.CurrencyUSDT:
		return s.createInvoicePurchase(ctx, p)
	case model.CurrencyTON:
		return s.createTonPurchase(ctx, p)
	}
	return nil, ErrUnsupportedCurrency
}

// createBonusPurchase settles a fully bonus-funded order: no external
// payment exists, so the purchase is marked paid immediately and handed to
// the fulfillment engine.
func (s *PurchaseService) createBonusPurchase(ctx context.Context, p *model.Purchase) (*PurchaseResult, error) {
	p.InvoiceID = model.BonusInvoiceID
	p.Price = 0

	if err := s.store.CreatePurchase(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	_ = s.store.LogTransaction(ctx, p.ID, "purchase_created", model.LogLevelInfo,
		fmt.Sprintf("%d stars for %s, paid from bonus balance", p.Amount, p.RecipientUsername))

	if err := s.store.UpdatePurchaseStatus(ctx, p.ID, model.PurchaseStatusPaid, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to mark paid: %w", err)
	}
	p.Status = model.PurchaseStatusPaid

	id := p.ID
	s.dispatcher.Dispatch("fulfillment", func(taskCtx context.Context) {
		s.engine.Process(taskCtx, id)
	})

	return &PurchaseResult{Purchase: p}, nil
}

func (s *PurchaseService) createInvoicePurchase(ctx context.Context, p *model.Purchase) (*PurchaseResult, error) {
	invoice, err := s.invoices.CreateInvoice(ctx, p.Price, string(p.Currency))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	p.InvoiceID = strconv.FormatInt(invoice.InvoiceID, 10)

	if err := s.store.CreatePurchase(ctx, p); err != nil {
		// the invoice is orphaned otherwise
		if delErr := s.invoices.DeleteInvoice(ctx, invoice.InvoiceID); delErr != nil {
			zap.L().Warn("failed to delete orphaned invoice",
				zap.Int64("invoice_id", invoice.InvoiceID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	_ = s.store.LogTransaction(ctx, p.ID, "purchase_created", model.LogLevelInfo,
		fmt.Sprintf("%d stars for %s, %.6f %s, invoice %d",
			p.Amount, p.RecipientUsername, p.Price, p.Currency, invoice.InvoiceID))

	purchaseID, invoiceID := p.ID, invoice.InvoiceID
	s.dispatcher.Dispatch("invoice_watcher", func(taskCtx context.Context) {
		s.watcher.Watch(taskCtx, purchaseID, invoiceID)
	})

	payURL := invoice.BotInvoiceURL
	if payURL == "" {
		payURL = invoice.PayURL
	}
	return &PurchaseResult{Purchase: p, PayURL: payURL}, nil
}

func (s *PurchaseService) createTonPurchase(ctx context.Context, p *model.Purchase) (*PurchaseResult, error) {
	comment := uuid.NewString()
	p.PaymentComment = &comment
	p.InvoiceID = comment

	if err := s.store.CreatePurchase(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	_ = s.store.LogTransaction(ctx, p.ID, "purchase_created", model.LogLevelInfo,
		fmt.Sprintf("%d stars for %s, %.6f TON, comment %s",
			p.Amount, p.RecipientUsername, p.Price, comment))

	s.comments.Register(comment, p.ID)

	amountNano := int64(math.Round(p.Price * 1e9))
	deeplink := fmt.Sprintf("ton://transfer/%s?amount=%d&text=%s",
		s.wallet, amountNano, url.QueryEscape(comment))

	return &PurchaseResult{
		Purchase: p,
		TonTransfer: &TonTransferInfo{
			WalletAddress: s.wallet,
			AmountTON:     p.Price,
			Comment:       comment,
			Deeplink:      deeplink,
		},
	}, nil
}

// GetPurchase loads one purchase for status polling.
func (s *PurchaseService) GetPurchase(ctx context.Context, id int64) (*model.Purchase, error) {
	return s.store.GetPurchaseByID(ctx, id)
}

// GetPurchaseLogs returns the audit timeline of one purchase.
func (s *PurchaseService) GetPurchaseLogs(ctx context.Context, id int64) ([]model.TransactionLog, error) {
	return s.store.GetTransactionLogs(ctx, id)
}
