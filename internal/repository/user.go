package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/starshop/backend/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name, language_code, referral_code, referred_by, referral_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			language_code = EXCLUDED.language_code,
			updated_at = NOW()
		RETURNING referral_level, total_referral_stars, bonus_balance, created_at, updated_at`

	if user.ReferralLevel == 0 {
		user.ReferralLevel = model.MinReferralLevel
	}

	return r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.ReferralCode,
		user.ReferredBy,
		user.ReferralLevel,
	).Scan(&user.ReferralLevel, &user.TotalReferralStars, &user.BonusBalance, &user.CreatedAt, &user.UpdatedAt)
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetReferrerID returns the id of the user who referred userID, or nil when
// the user was not referred (or does not exist).
func (r *Repository) GetReferrerID(ctx context.Context, userID int64) (*int64, error) {
	var referredBy *int64
	err := r.db.GetContext(ctx, &referredBy, "SELECT referred_by FROM users WHERE id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return referredBy, nil
}

func (r *Repository) GetTotalReferralStars(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, "SELECT total_referral_stars FROM users WHERE id = $1", userID)
	return total, err
}

// UpdateReferralLevel persists the outcome of a referral reward: the new
// level and the new lifetime referred-star total.
func (r *Repository) UpdateReferralLevel(ctx context.Context, userID int64, level int, total int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET referral_level = $2, total_referral_stars = $3, updated_at = NOW()
		WHERE id = $1`,
		userID, level, total)
	return err
}

func (r *Repository) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE referred_by = $1", referrerID)
	return count, err
}
