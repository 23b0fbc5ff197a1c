package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"board-champions/internal/middleware"
	"board-champions/internal/models"
	"board-champions/internal/service"

	"github.com/gofiber/fiber/v3"
)

type CreditHandler struct {
	creditService *service.CreditService
	unlockCost    int64
}

func NewCreditHandler(creditService *service.CreditService, unlockCost int64) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
		unlockCost:    unlockCost,
	}
}

func (h *CreditHandler) RegisterRoutes(app *fiber.App) {
	creditGroup := app.Group("/protected/credits")

	creditGroup.Get("/", h.GetBalance)
	creditGroup.Get("/history", h.GetHistory)
	creditGroup.Get("/unlocked/:profileId", h.CheckUnlocked)
	creditGroup.Post("/deduct", h.Deduct)
	creditGroup.Post("/grant", h.Grant, middleware.PermissionRequired(middleware.GrantCreditsPermission))
}

func (h *CreditHandler) GetBalance(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := h.creditService.GetBalance(ctx, userID)
	if err != nil {
		log.Printf("Failed to get credit balance for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve credit balance",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"balance":            account.CreditBalance,
			"unlockedProfileIds": account.UnlockedProfileIDs,
		},
	})
}

func (h *CreditHandler) GetHistory(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	history, err := h.creditService.History(ctx, userID)
	if err != nil {
		log.Printf("Failed to get credit history for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve credit history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"history": history,
		},
	})
}

func (h *CreditHandler) CheckUnlocked(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	profileID := c.Params("profileId")
	if profileID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Profile ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	unlocked, err := h.creditService.IsUnlocked(ctx, userID, profileID)
	if err != nil {
		log.Printf("Failed to check unlock for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to check unlock status",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profileId": profileID,
			"unlocked":  unlocked,
		},
	})
}

func (h *CreditHandler) Deduct(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	var req models.DeductRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Reason == "" {
		req.Reason = models.CreditReasonProfileUnlock
	}
	// Unlock price is server-side; clients cannot name their own.
	if req.Reason == models.CreditReasonProfileUnlock {
		req.Amount = h.unlockCost
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.creditService.Deduct(ctx, userID, req.Amount, req.ProfileID, req.Reason)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientCredits) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Insufficient credits",
			})
		}

		log.Printf("Failed to deduct credits for user %s: %v", userID, err)

		if req.Amount <= 0 || req.ProfileID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to deduct credits",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

func (h *CreditHandler) Grant(c fiber.Ctx) error {
	var req models.GrantRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.UserID == "" || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "User ID and a positive amount are required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	account, err := h.creditService.Grant(ctx, req.UserID, req.Amount)
	if err != nil {
		log.Printf("Failed to grant credits to user %s: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to grant credits",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Credits granted",
		"data": fiber.Map{
			"userId":  account.UserID,
			"balance": account.CreditBalance,
		},
	})
}
