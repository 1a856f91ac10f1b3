package service

import (
	"context"

	"github.com/starshop/backend/internal/model"
)

const bonusHistoryDefaultLimit = 50

// BalanceStore is the bonus-balance slice of the repository.
type BalanceStore interface {
	GetBonusBalance(ctx context.Context, userID int64) (float64, error)
	UpdateBonusBalance(ctx context.Context, userID int64, delta float64, txType model.BonusTransactionType, description string, purchaseID *int64) (float64, error)
	GetBonusTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BonusTransaction, error)
}

// BalanceService exposes the bonus balance and its audit history.
type BalanceService struct {
	store BalanceStore
}

func NewBalanceService(store BalanceStore) *BalanceService {
	return &BalanceService{store: store}
}

func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (float64, error) {
	return s.store.GetBonusBalance(ctx, userID)
}

func (s *BalanceService) GetHistory(ctx context.Context, userID int64, limit, offset int) ([]model.BonusTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = bonusHistoryDefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.GetBonusTransactions(ctx, userID, limit, offset)
}

// Adjust applies a manual credit or debit with an audit row. Used by the
// admin bot command.
func (s *BalanceService) Adjust(ctx context.Context, userID int64, delta float64, description string) (float64, error) {
	return s.store.UpdateBonusBalance(ctx, userID, delta, model.BonusTransactionTypeManual, description, nil)
}
