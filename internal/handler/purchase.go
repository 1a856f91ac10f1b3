package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/starshop/backend/internal/middleware"
	"github.com/starshop/backend/internal/repository"
	"github.com/starshop/backend/internal/service"
)

func (h *Handler) CreatePurchase(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	var req service.CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Неверный формат запроса",
		})
	}
	req.UserID = &userID

	result, err := h.purchaseSvc.CreatePurchase(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrMissingRecipient),
			errors.Is(err, service.ErrUnsupportedCurrency),
			errors.Is(err, service.ErrNoPaymentRail):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось создать заказ",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handler) GetPurchase(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	purchaseID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Неверный ID заказа",
		})
	}

	p, err := h.purchaseSvc.GetPurchase(c.Context(), purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Заказ не найден",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить заказ",
		})
	}

	// purchases are visible to their owner only
	if p.UserID == nil || *p.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Заказ не найден",
		})
	}

	return c.JSON(p)
}

func (h *Handler) GetPurchaseLogs(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	purchaseID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Неверный ID заказа",
		})
	}

	p, err := h.purchaseSvc.GetPurchase(c.Context(), purchaseID)
	if err != nil || p.UserID == nil || *p.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Заказ не найден",
		})
	}

	logs, err := h.purchaseSvc.GetPurchaseLogs(c.Context(), purchaseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить историю заказа",
		})
	}

	return c.JSON(fiber.Map{
		"logs": logs,
	})
}

func (h *Handler) GetMyPurchases(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Необходима авторизация",
		})
	}

	purchases, err := h.userService.GetUserPurchases(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Не удалось получить историю заказов",
		})
	}

	return c.JSON(fiber.Map{
		"purchases": purchases,
	})
}
