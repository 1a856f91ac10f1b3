package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starshop/backend/internal/middleware"
	"github.com/starshop/backend/internal/service"
)

func (h *Handler) GetMe(c *fiber.Ctx) error {
	tu := middleware.GetTelegramUser(c)
	if tu == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	refCode := c.Query("ref")

	user, err := h.userService.GetOrCreateUser(c.Context(), service.TelegramUser{
		ID:           tu.UserID,
		Username:     tu.Username,
		FirstName:    tu.FirstName,
		LastName:     tu.LastName,
		LanguageCode: tu.LanguageCode,
	}, refCode)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить пользователя",
		})
	}

	return c.JSON(user)
}

func (h *Handler) GetReferralStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	stats, err := h.userService.GetReferralStats(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить статистику",
		})
	}

	return c.JSON(stats)
}

func (h *Handler) GetReferralLink(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	tu := middleware.GetTelegramUser(c)
	user, err := h.userService.GetOrCreateUser(c.Context(), service.TelegramUser{
		ID:           tu.UserID,
		Username:     tu.Username,
		FirstName:    tu.FirstName,
		LastName:     tu.LastName,
		LanguageCode: tu.LanguageCode,
	}, "")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить пользователя",
		})
	}

	return c.JSON(fiber.Map{
		"link": h.userService.ReferralLink(user),
		"code": user.ReferralCode,
	})
}
