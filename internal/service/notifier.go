package service

import "github.com/starshop/backend/internal/model"

// NopNotifier discards all notifications. Used when the bot is not
// configured.
type NopNotifier struct{}

func (NopNotifier) SendPurchaseCompleted(int64, *model.Purchase) error         { return nil }
func (NopNotifier) SendPurchaseFailed(int64, *model.Purchase, string) error    { return nil }
func (NopNotifier) SendPurchaseCancelled(int64, *model.Purchase, string) error { return nil }
func (NopNotifier) SendReferralReward(int64, model.ReferralReward) error       { return nil }
func (NopNotifier) SendAdminSale(*model.Purchase) error                        { return nil }
