package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starshop/backend/internal/model"
)

var (
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrInvalidTransition = errors.New("invalid purchase status transition")
)

func (r *Repository) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	query := `
		INSERT INTO purchases (user_id, product, amount, recipient_username, currency, price,
			invoice_id, payment_comment, status, bonus_stars_used, bonus_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	if p.Status == "" {
		p.Status = model.PurchaseStatusPending
	}

	return r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.Product,
		p.Amount,
		p.RecipientUsername,
		p.Currency,
		p.Price,
		p.InvoiceID,
		p.PaymentComment,
		p.Status,
		p.BonusStarsUsed,
		p.BonusDiscount,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *Repository) GetPurchaseByID(ctx context.Context, id int64) (*model.Purchase, error) {
	var p model.Purchase
	err := r.db.GetContext(ctx, &p, "SELECT * FROM purchases WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePurchaseStatus moves a purchase along the status machine. The current
// status is read under lock and the edge is validated, so a terminal or
// already-advanced purchase cannot be reprocessed.
func (r *Repository) UpdatePurchaseStatus(ctx context.Context, id int64, status model.PurchaseStatus, txID, errMsg *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current model.PurchaseStatus
	err = tx.GetContext(ctx, &current, "SELECT status FROM purchases WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPurchaseNotFound
		}
		return err
	}

	if !model.CanTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	var completedAt *time.Time
	if status.IsTerminal() {
		now := time.Now()
		completedAt = &now
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE purchases
		SET status = $2,
			fragment_transaction_id = COALESCE($3, fragment_transaction_id),
			error_message = COALESCE($4, error_message),
			completed_at = COALESCE($5, completed_at)
		WHERE id = $1`,
		id, status, txID, errMsg, completedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) GetUserPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	var purchases []model.Purchase
	query := "SELECT * FROM purchases WHERE user_id = $1 ORDER BY created_at DESC"
	err := r.db.SelectContext(ctx, &purchases, query, userID)
	return purchases, err
}

// GetPendingTonPurchases returns purchases still awaiting an on-chain TON
// transfer, oldest first. Used to seed the ledger watcher's comment index on
// startup.
func (r *Repository) GetPendingTonPurchases(ctx context.Context) ([]model.Purchase, error) {
	var purchases []model.Purchase
	query := `
		SELECT * FROM purchases
		WHERE status = 'pending' AND currency = 'TON' AND payment_comment IS NOT NULL
		ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &purchases, query)
	return purchases, err
}
