package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starshop/backend/internal/middleware"
)

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	balance, err := h.balanceSvc.GetBalance(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить баланс",
		})
	}

	return c.JSON(fiber.Map{
		"balance": balance,
	})
}

func (h *Handler) GetBalanceTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	transactions, err := h.balanceSvc.GetHistory(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить историю",
		})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
	})
}
