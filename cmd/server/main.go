package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/starshop/backend/internal/config"
	"github.com/starshop/backend/internal/cryptopay"
	"github.com/starshop/backend/internal/fragment"
	"github.com/starshop/backend/internal/handler"
	"github.com/starshop/backend/internal/middleware"
	"github.com/starshop/backend/internal/repository"
	"github.com/starshop/backend/internal/service"
	"github.com/starshop/backend/internal/telegram"
	"github.com/starshop/backend/internal/ton"
	"github.com/starshop/backend/pkg/logger"
	"github.com/starshop/backend/pkg/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zap.L().Sync()

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	// background task context: watchers outlive the requests that spawn them
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := task.NewGo(ctx)

	// external clients
	invoices := cryptopay.NewClient(cfg.CryptoPay.BaseURL, cfg.CryptoPay.Token)
	delivery := fragment.NewClient(cfg.Fragment.BaseURL, cfg.Fragment.Seed, cfg.Fragment.Cookies)
	scanner := ton.NewScanner(cfg.TON.Testnet, cfg.TON.WalletAddress)

	// services
	balanceSvc := service.NewBalanceService(repo)
	priceSvc := service.NewPriceService()
	referralSvc := service.NewReferralService(repo)

	var notifier service.Notifier = service.NopNotifier{}
	var bot *telegram.Bot

	userService := service.NewUserService(repo, "StarShopBot")

	if cfg.Telegram.BotToken != "" {
		bot, err = telegram.NewBot(cfg, userService, balanceSvc, delivery)
		if err != nil {
			zap.L().Warn("failed to create telegram bot", zap.Error(err))
		} else {
			notifier = bot
			referralSvc.SetNotifier(bot)
			userService.SetBotName(bot.GetBotUsername())
			zap.L().Info("telegram bot initialized", zap.String("username", bot.GetBotUsername()))
		}
	}

	engine := service.NewFulfillment(repo, delivery, notifier, referralSvc)
	invoiceWatcher := service.NewInvoiceWatcher(repo, invoices, engine, notifier)
	comments := service.NewCommentIndex()
	purchaseSvc := service.NewPurchaseService(repo, priceSvc, invoices, invoiceWatcher, engine, dispatcher, comments, cfg.TON.WalletAddress)
	tonWatcher := service.NewTonWatcher(repo, scanner, engine, dispatcher, comments)

	h := handler.New(cfg, userService, purchaseSvc, priceSvc, balanceSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Telegram-Init-Data",
	}))

	app.Get("/health", h.Health)

	// public API
	app.Get("/api/prices", h.GetPrices)
	app.Get("/api/support", h.GetSupport)

	// API routes with Telegram authentication
	api := app.Group("/api", middleware.TelegramAuth(cfg))

	api.Get("/user/me", h.GetMe)

	api.Post("/purchase", h.CreatePurchase)
	api.Get("/purchase/:id", h.GetPurchase)
	api.Get("/purchase/:id/logs", h.GetPurchaseLogs)
	api.Get("/purchases", h.GetMyPurchases)

	api.Get("/referral/stats", h.GetReferralStats)
	api.Get("/referral/link", h.GetReferralLink)

	api.Get("/balance", h.GetBalance)
	api.Get("/balance/transactions", h.GetBalanceTransactions)

	if bot != nil {
		go bot.StartPolling(ctx)
		zap.L().Info("telegram bot started with long polling")
	}

	go tonWatcher.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zap.L().Info("shutting down server")
		cancel()
		_ = app.Shutdown()
	}()

	zap.L().Info("server starting", zap.String("port", cfg.Server.Port))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		zap.L().Fatal("failed to start server", zap.Error(err))
	}
}
