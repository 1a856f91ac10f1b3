package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/starshop/backend/internal/model"
)

// ReferralService credits referrers for their referees' completed purchases
// and maintains the level ladder.
type ReferralService struct {
	store    Store
	notifier Notifier
}

func NewReferralService(store Store) *ReferralService {
	return &ReferralService{store: store}
}

// SetNotifier sets the notifier for reward notifications (wired after the
// bot is constructed).
func (s *ReferralService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// RewardPurchase credits the buyer's referrer for a completed purchase: a
// bonus-star reward at the referrer's current level, plus the lifetime total
// and possible level promotion. No-op when the buyer is anonymous or has no
// referrer.
func (s *ReferralService) RewardPurchase(ctx context.Context, p *model.Purchase) error {
	if p.UserID == nil {
		return nil
	}

	referrerID, err := s.store.GetReferrerID(ctx, *p.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up referrer: %w", err)
	}
	if referrerID == nil {
		return nil
	}

	referrer, err := s.store.GetUser(ctx, *referrerID)
	if err != nil {
		return fmt.Errorf("failed to load referrer %d: %w", *referrerID, err)
	}

	total, err := s.store.GetTotalReferralStars(ctx, *referrerID)
	if err != nil {
		return fmt.Errorf("failed to load referral total: %w", err)
	}

	reward := model.CalcReferralReward(referrer.ReferralLevel, total, p.Amount)

	desc := fmt.Sprintf("referral reward for purchase #%d: +%.2f stars (level %d)",
		p.ID, reward.BonusStars, referrer.ReferralLevel)
	if _, err := s.store.UpdateBonusBalance(ctx, *referrerID, reward.BonusStars,
		model.BonusTransactionTypeReferralReward, desc, &p.ID); err != nil {
		return fmt.Errorf("failed to credit referral reward: %w", err)
	}

	if err := s.store.UpdateReferralLevel(ctx, *referrerID, reward.NewLevel, reward.NewTotal); err != nil {
		return fmt.Errorf("failed to update referral level: %w", err)
	}

	zap.L().Info("referral reward credited",
		zap.Int64("referrer_id", *referrerID),
		zap.Float64("reward", reward.BonusStars),
		zap.Int("level", reward.NewLevel))

	if s.notifier != nil {
		if err := s.notifier.SendReferralReward(*referrerID, reward); err != nil {
			zap.L().Warn("failed to send referral reward notification",
				zap.Int64("referrer_id", *referrerID), zap.Error(err))
		}
	}

	return nil
}
