package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/starshop/backend/internal/config"
	"github.com/starshop/backend/internal/fragment"
	"github.com/starshop/backend/internal/model"
	"github.com/starshop/backend/internal/service"
)

type Bot struct {
	bot         *tele.Bot
	cfg         *config.Config
	userService *service.UserService
	balanceSvc  *service.BalanceService
	delivery    *fragment.Client
}

func NewBot(
	cfg *config.Config,
	userService *service.UserService,
	balanceSvc *service.BalanceService,
	delivery *fragment.Client,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &tele.LongPoller{Timeout: 60 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:         bot,
		cfg:         cfg,
		userService: userService,
		balanceSvc:  balanceSvc,
		delivery:    delivery,
	}

	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/balance", b.handleBalance)
	b.bot.Handle("/referral", b.handleReferral)
	b.bot.Handle("/help", b.handleHelp)
	b.bot.Handle("/support", b.handleSupport)
	b.bot.Handle("/wallet", b.handleWallet)
	b.bot.Handle("/grant", b.handleGrant)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) StartPolling(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.bot.Start()
}

func (b *Bot) GetBotUsername() string {
	return b.bot.Me.Username
}

func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()

	var refCode string
	args := c.Message().Payload
	if strings.HasPrefix(args, "ref_") {
		refCode = strings.TrimPrefix(args, "ref_")
	}

	user, err := b.userService.GetOrCreateUser(context.Background(), service.TelegramUser{
		ID:           sender.ID,
		Username:     sender.Username,
		FirstName:    sender.FirstName,
		LastName:     sender.LastName,
		LanguageCode: sender.LanguageCode,
	}, refCode)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(`Привет, %s! 👋

⭐ <b>StarShop</b> — покупка Telegram Stars без KYC

✅ Оплата в TON и USDT
✅ Доставка за пару минут
✅ Бонусные звёзды за друзей

Нажми кнопку ниже, чтобы купить звёзды себе или в подарок.`, sender.FirstName)

	if user.ReferredBy != nil {
		text += "\n\n🎁 Тебя пригласил друг! С каждой его покупки ты будешь получать бонусные звёзды."
	}

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("⭐ Купить звёзды", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
		keyboard.Row(
			keyboard.Data("💰 Бонусный баланс", "balance"),
			keyboard.Data("🎁 Пригласить друга", "referral"),
		),
	)

	return c.Send(text, keyboard, tele.ModeHTML)
}

func (b *Bot) handleBalance(c tele.Context) error {
	balance, err := b.balanceSvc.GetBalance(context.Background(), c.Sender().ID)
	if err != nil {
		return c.Send("❌ Не удалось получить баланс. Попробуйте позже.")
	}

	text := fmt.Sprintf(`💰 <b>Бонусный баланс</b>

⭐ Доступно: %.2f бонусных звёзд

Бонусные звёзды списываются как скидка при покупке: 1 бонусная звезда = 1 звезда.`, balance)

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("⭐ Потратить на покупку", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
	)

	return c.Send(text, keyboard, tele.ModeHTML)
}

func (b *Bot) handleReferral(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	user, err := b.userService.GetOrCreateUser(ctx, service.TelegramUser{
		ID:           sender.ID,
		Username:     sender.Username,
		FirstName:    sender.FirstName,
		LastName:     sender.LastName,
		LanguageCode: sender.LanguageCode,
	}, "")
	if err != nil {
		return err
	}

	stats, err := b.userService.GetReferralStats(ctx, sender.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(`🎁 <b>Реферальная программа</b>

Приглашай друзей и получай бонусные звёзды с каждой их покупки!

📊 <b>Твоя статистика:</b>
👥 Приглашено: %d
🏆 Уровень: %d из %d
⭐ Куплено друзьями: %d звёзд
💎 Твой процент: %.0f%%

Каждые %d звёзд, купленных друзьями, повышают твой уровень.

🔗 <b>Твоя ссылка:</b>
<code>%s</code>`,
		stats.TotalReferrals,
		stats.Level,
		model.MaxReferralLevel,
		stats.TotalStars,
		stats.RewardPercent*100,
		model.ReferralLevelStep,
		b.userService.ReferralLink(user),
	)

	return c.Send(text, tele.ModeHTML)
}

func (b *Bot) handleHelp(c tele.Context) error {
	text := `📖 <b>Помощь по StarShop</b>

<b>⭐ Как купить звёзды:</b>

1️⃣ Откройте Mini App
2️⃣ Укажите количество звёзд и получателя
3️⃣ Выберите способ оплаты: TON или USDT
4️⃣ Оплатите счёт — звёзды придут за пару минут

<b>💰 Бонусные звёзды:</b>
Начисляются за покупки приглашённых друзей и списываются как скидка при оплате.

<b>📱 Команды:</b>
/start — Главное меню
/balance — Бонусный баланс
/referral — Реферальная программа
/support — Связаться с поддержкой

❓ Вопросы? /support`

	keyboard := &tele.ReplyMarkup{}
	keyboard.Inline(
		keyboard.Row(
			keyboard.WebApp("📱 Открыть Mini App", &tele.WebApp{URL: b.cfg.Telegram.WebAppURL}),
		),
	)

	return c.Send(text, keyboard, tele.ModeHTML)
}

func (b *Bot) handleSupport(c tele.Context) error {
	text := fmt.Sprintf(`💬 <b>Поддержка</b>

Если у вас возникли вопросы или проблемы, напишите нам:

💬 %s

Мы ответим в течение 24 часов.`, b.cfg.Telegram.SupportURL)

	return c.Send(text, tele.ModeHTML)
}

func (b *Bot) handleCallback(c tele.Context) error {
	data := c.Callback().Data

	defer c.Respond()

	// telebot adds \f prefix to callback data
	switch strings.TrimPrefix(data, "\f") {
	case "balance":
		return b.handleBalance(c)
	case "referral":
		return b.handleReferral(c)
	default:
		zap.L().Debug("unknown callback data", zap.String("data", data))
	}
	return nil
}
