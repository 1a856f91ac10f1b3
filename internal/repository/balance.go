package repository

import (
	"context"
	"fmt"

	"github.com/starshop/backend/internal/model"
)

// GetBonusBalance returns the user's current bonus star balance.
func (r *Repository) GetBonusBalance(ctx context.Context, userID int64) (float64, error) {
	var balance float64
	err := r.db.GetContext(ctx, &balance, "SELECT bonus_balance FROM users WHERE id = $1", userID)
	return balance, err
}

// UpdateBonusBalance applies a delta to the user's bonus balance atomically
// and writes an audit row. The balance is floored at zero; a debit larger
// than the balance drains it rather than going negative.
// Returns the new balance.
func (r *Repository) UpdateBonusBalance(ctx context.Context, userID int64, delta float64, txType model.BonusTransactionType, description string, purchaseID *int64) (float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balanceBefore float64
	err = tx.GetContext(ctx, &balanceBefore, "SELECT bonus_balance FROM users WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get bonus balance: %w", err)
	}

	balanceAfter := model.ApplyBonusDelta(balanceBefore, delta)

	_, err = tx.ExecContext(ctx, "UPDATE users SET bonus_balance = $1, updated_at = NOW() WHERE id = $2", balanceAfter, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update bonus balance: %w", err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bonus_transactions (user_id, amount, type, description, purchase_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, delta, txType, desc, purchaseID, balanceBefore, balanceAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to create bonus transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

// GetBonusTransactions returns bonus balance history for a user.
func (r *Repository) GetBonusTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BonusTransaction, error) {
	var transactions []model.BonusTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM bonus_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
