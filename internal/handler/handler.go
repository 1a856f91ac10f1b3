package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starshop/backend/internal/config"
	"github.com/starshop/backend/internal/service"
)

type Handler struct {
	cfg         *config.Config
	userService *service.UserService
	purchaseSvc *service.PurchaseService
	priceSvc    *service.PriceService
	balanceSvc  *service.BalanceService
}

func New(
	cfg *config.Config,
	userService *service.UserService,
	purchaseSvc *service.PurchaseService,
	priceSvc *service.PriceService,
	balanceSvc *service.BalanceService,
) *Handler {
	return &Handler{
		cfg:         cfg,
		userService: userService,
		purchaseSvc: purchaseSvc,
		priceSvc:    priceSvc,
		balanceSvc:  balanceSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

func (h *Handler) GetPrices(c *fiber.Ctx) error {
	prices, err := h.priceSvc.GetStarPrices(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "failed to get prices",
		})
	}

	return c.JSON(fiber.Map{
		"prices": prices,
	})
}

func (h *Handler) GetSupport(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"support_url": h.cfg.Telegram.SupportURL,
	})
}
