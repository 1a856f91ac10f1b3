package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/starshop/backend/internal/model"
	"github.com/starshop/backend/internal/repository"
)

// UserStore is the user-facing slice of the repository.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	GetUserPurchases(ctx context.Context, userID int64) ([]model.Purchase, error)
	CountReferrals(ctx context.Context, referrerID int64) (int, error)
}

// TelegramUser carries the identity fields extracted from validated
// Mini App init data.
type TelegramUser struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// UserService registers Mini App visitors and exposes their referral
// program view.
type UserService struct {
	store   UserStore
	botName string
}

func NewUserService(store UserStore, botName string) *UserService {
	return &UserService{store: store, botName: botName}
}

// SetBotName updates the referral-link bot handle once the bot identity is
// known (wired after the bot is constructed).
func (s *UserService) SetBotName(botName string) {
	s.botName = botName
}

// GetOrCreateUser upserts the visitor. A referral code attaches the visitor
// to its owner permanently, but only on first contact; self-referrals and
// unknown codes are ignored.
func (s *UserService) GetOrCreateUser(ctx context.Context, tu TelegramUser, referralCode string) (*model.User, error) {
	if existing, err := s.store.GetUser(ctx, tu.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{
		ID:            tu.ID,
		Username:      optional(tu.Username),
		FirstName:     optional(tu.FirstName),
		LastName:      optional(tu.LastName),
		LanguageCode:  optional(tu.LanguageCode),
		ReferralCode:  newReferralCode(),
		ReferralLevel: model.MinReferralLevel,
	}

	if referralCode != "" {
		referrer, err := s.store.GetUserByReferralCode(ctx, referralCode)
		switch {
		case err == nil && referrer.ID != tu.ID:
			user.ReferredBy = &referrer.ID
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return nil, err
		}
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	zap.L().Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.Bool("referred", user.ReferredBy != nil))

	return user, nil
}

// GetReferralStats assembles the referral program view for one user.
func (s *UserService) GetReferralStats(ctx context.Context, userID int64) (*model.ReferralStats, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ReferralStats{
		TotalReferrals: count,
		Level:          user.ReferralLevel,
		TotalStars:     user.TotalReferralStars,
		RewardPercent:  model.ReferralRewardPercent(user.ReferralLevel),
	}, nil
}

// ReferralLink is the deep link a user shares to refer others.
func (s *UserService) ReferralLink(user *model.User) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%s", s.botName, user.ReferralCode)
}

// GetUserPurchases returns the user's purchase history, newest first.
func (s *UserService) GetUserPurchases(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return s.store.GetUserPurchases(ctx, userID)
}

func newReferralCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(buf)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
