package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshop/backend/internal/model"
)

func TestRewardPurchase_NoReferrerIsNoop(t *testing.T) {
	store := newFakeStore()
	store.addUser(&model.User{ID: 42})
	notifier := &recordingNotifier{}
	svc := NewReferralService(store)
	svc.SetNotifier(notifier)

	userID := int64(42)
	err := svc.RewardPurchase(context.Background(), &model.Purchase{ID: 1, UserID: &userID, Amount: 100})
	require.NoError(t, err)

	assert.Empty(t, store.bonusTxs)
	assert.Empty(t, notifier.rewards)
}

func TestRewardPurchase_AnonymousBuyerIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := NewReferralService(store)

	err := svc.RewardPurchase(context.Background(), &model.Purchase{ID: 1, Amount: 100})
	require.NoError(t, err)
	assert.Empty(t, store.bonusTxs)
}

func TestRewardPurchase_CreditsAtCurrentLevel(t *testing.T) {
	store := newFakeStore()
	referrerID := int64(7)
	store.addUser(&model.User{ID: referrerID, ReferralLevel: 3, TotalReferralStars: 11000})
	store.addUser(&model.User{ID: 42, ReferredBy: &referrerID})
	notifier := &recordingNotifier{}
	svc := NewReferralService(store)
	svc.SetNotifier(notifier)

	userID := int64(42)
	err := svc.RewardPurchase(context.Background(), &model.Purchase{ID: 1, UserID: &userID, Amount: 500})
	require.NoError(t, err)

	referrer, _ := store.GetUser(context.Background(), referrerID)
	assert.Equal(t, 30.0, referrer.BonusBalance) // 6% of 500
	assert.Equal(t, 3, referrer.ReferralLevel)
	assert.Equal(t, int64(11500), referrer.TotalReferralStars)

	require.Len(t, store.bonusTxs, 1)
	assert.Equal(t, model.BonusTransactionTypeReferralReward, store.bonusTxs[0].Type)
	require.Len(t, notifier.rewards, 1)
	assert.False(t, notifier.rewards[0].Promoted)
}

func TestRewardPurchase_AccumulatesAcrossPurchases(t *testing.T) {
	store := newFakeStore()
	referrerID := int64(7)
	store.addUser(&model.User{ID: referrerID, ReferralLevel: 1})
	store.addUser(&model.User{ID: 42, ReferredBy: &referrerID})
	svc := NewReferralService(store)

	userID := int64(42)
	for i := 0; i < 3; i++ {
		err := svc.RewardPurchase(context.Background(), &model.Purchase{ID: int64(i + 1), UserID: &userID, Amount: 2000})
		require.NoError(t, err)
	}

	referrer, _ := store.GetUser(context.Background(), referrerID)
	assert.Equal(t, int64(6000), referrer.TotalReferralStars)
	assert.Equal(t, 2, referrer.ReferralLevel)
	// all three pay at 2%: the crossing purchase still uses the old rate
	assert.InDelta(t, 120.0, referrer.BonusBalance, 1e-9)
}
