package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Admin-only commands, restricted to the configured admin chat.

func (b *Bot) isAdmin(c tele.Context) bool {
	return b.cfg.Telegram.AdminChatID != 0 && c.Sender().ID == b.cfg.Telegram.AdminChatID
}

// handleWallet reports the Fragment wallet balance backing deliveries.
func (b *Bot) handleWallet(c tele.Context) error {
	if !b.isAdmin(c) {
		return nil
	}

	balance, err := b.delivery.GetBalance(context.Background())
	if err != nil {
		return c.Send(fmt.Sprintf("❌ Не удалось получить баланс кошелька: %v", err))
	}

	return c.Send(fmt.Sprintf("💎 Баланс кошелька Fragment: %.4f TON", balance))
}

// handleGrant credits or debits a user's bonus balance manually:
// /grant <user_id> <delta> [описание]
func (b *Bot) handleGrant(c tele.Context) error {
	if !b.isAdmin(c) {
		return nil
	}

	args := strings.Fields(c.Message().Payload)
	if len(args) < 2 {
		return c.Send("Использование: /grant <user_id> <delta> [описание]")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Неверный user_id")
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return c.Send("Неверная сумма")
	}

	description := "manual adjustment by admin"
	if len(args) > 2 {
		description = strings.Join(args[2:], " ")
	}

	balance, err := b.balanceSvc.Adjust(context.Background(), userID, delta, description)
	if err != nil {
		return c.Send(fmt.Sprintf("❌ Не удалось изменить баланс: %v", err))
	}

	return c.Send(fmt.Sprintf("✅ Баланс пользователя %d: %.2f бонусных звёзд", userID, balance))
}
