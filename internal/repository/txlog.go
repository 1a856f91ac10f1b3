package repository

import (
	"context"

	"github.com/starshop/backend/internal/model"
)

// LogTransaction appends an audit record for a purchase lifecycle event.
// Rows are never updated or deleted.
func (r *Repository) LogTransaction(ctx context.Context, purchaseID int64, event string, level model.LogLevel, message string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transaction_logs (purchase_id, event, level, message)
		VALUES ($1, $2, $3, $4)`,
		purchaseID, event, level, message)
	return err
}

func (r *Repository) GetTransactionLogs(ctx context.Context, purchaseID int64) ([]model.TransactionLog, error) {
	var logs []model.TransactionLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM transaction_logs
		WHERE purchase_id = $1
		ORDER BY created_at ASC`,
		purchaseID)
	return logs, err
}
