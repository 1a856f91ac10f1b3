package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/starshop/backend/internal/model"
)

// Purchase lifecycle notifications. All are best-effort; callers log
// failures and move on.

func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.bot.Send(&tele.User{ID: chatID}, text, tele.ModeHTML)
	return err
}

func (b *Bot) SendPurchaseCompleted(chatID int64, p *model.Purchase) error {
	text := fmt.Sprintf(`✅ <b>Звёзды доставлены!</b>

⭐ %d звёзд отправлены @%s

Спасибо за покупку!`, p.Amount, p.RecipientUsername)

	if p.BonusStarsUsed > 0 {
		text += fmt.Sprintf("\n\n💰 Списано бонусных звёзд: %.0f", p.BonusStarsUsed)
	}

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("⭐ Купить ещё", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
	)

	_, err := b.bot.Send(&tele.User{ID: chatID}, text, keyboard, tele.ModeHTML)
	return err
}

func (b *Bot) SendPurchaseFailed(chatID int64, p *model.Purchase, reason string) error {
	text := fmt.Sprintf(`❌ <b>Покупка не выполнена</b>

⭐ Заказ #%d (%d звёзд для @%s) не удалось выполнить.

Причина: %s

Напишите в поддержку, мы разберёмся: /support`, p.ID, p.Amount, p.RecipientUsername, reason)

	return b.SendMessage(chatID, text)
}

func (b *Bot) SendPurchaseCancelled(chatID int64, p *model.Purchase, reason string) error {
	text := fmt.Sprintf(`⏰ <b>Заказ отменён</b>

Заказ #%d (%d звёзд для @%s) отменён: %s

Средства не были списаны. Вы можете оформить новый заказ.`, p.ID, p.Amount, p.RecipientUsername, reason)

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("⭐ Оформить заново", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
	)

	_, err := b.bot.Send(&tele.User{ID: chatID}, text, keyboard, tele.ModeHTML)
	return err
}

func (b *Bot) SendReferralReward(chatID int64, reward model.ReferralReward) error {
	text := fmt.Sprintf(`🎁 <b>Реферальный бонус!</b>

Твой друг купил звёзды, и тебе начислено:
⭐ +%.2f бонусных звёзд`, reward.BonusStars)

	if reward.Promoted {
		text += fmt.Sprintf("\n\n🏆 Поздравляем, твой уровень повышен до %d! Теперь ты получаешь %.0f%% с покупок друзей.",
			reward.NewLevel, model.ReferralRewardPercent(reward.NewLevel)*100)
	}

	return b.SendMessage(chatID, text)
}

// SendAdminSale posts a sale summary to the admin chat. No-op without a
// configured chat id.
func (b *Bot) SendAdminSale(p *model.Purchase) error {
	if b.cfg.Telegram.AdminChatID == 0 {
		return nil
	}

	var payment string
	if p.PaidFromBonus() {
		payment = "бонусный баланс"
	} else {
		payment = fmt.Sprintf("%.6f %s", p.Price, p.Currency)
	}

	text := fmt.Sprintf(`💸 <b>Новая продажа</b>

Заказ #%d
⭐ %d звёзд → @%s
💰 Оплата: %s`, p.ID, p.Amount, p.RecipientUsername, payment)

	if p.BonusStarsUsed > 0 && !p.PaidFromBonus() {
		text += fmt.Sprintf("\n🎁 Скидка бонусами: %.0f звёзд", p.BonusStarsUsed)
	}

	return b.SendMessage(b.cfg.Telegram.AdminChatID, text)
}
