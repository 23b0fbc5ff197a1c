package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"board-champions/internal/middleware"
	"board-champions/internal/models"
	"board-champions/internal/service"

	"github.com/gofiber/fiber/v3"
)

type CandidateHandler struct {
	lifecycleService *service.LifecycleService
	searchService    *service.SearchService
	creditService    *service.CreditService
}

func NewCandidateHandler(lifecycleService *service.LifecycleService, searchService *service.SearchService, creditService *service.CreditService) *CandidateHandler {
	return &CandidateHandler{
		lifecycleService: lifecycleService,
		searchService:    searchService,
		creditService:    creditService,
	}
}

func (h *CandidateHandler) RegisterRoutes(app *fiber.App) {
	// Health check - always public
	app.Get("/health", h.HealthCheck)

	// PUBLIC ROUTES - No authentication required
	// Search only ever surfaces active profiles; anonymized ones stay masked
	// for anonymous viewers.
	publicGroup := app.Group("/public/candidates")
	publicGroup.Get("/search", h.SearchCandidates)

	// PROTECTED ROUTES - Authentication required
	protectedGroup := app.Group("/protected/candidates")

	protectedGroup.Post("/", h.CreateCandidate)
	protectedGroup.Get("/me", h.GetMe)
	protectedGroup.Get("/search", h.SearchCandidates)

	// Moderation queue - must be registered before /:id
	protectedGroup.Get("/pending", h.ListPendingReview, middleware.PermissionRequired(middleware.ModerateCandidatePermission))

	protectedGroup.Get("/:id", h.GetCandidate)

	// Lifecycle transitions
	protectedGroup.Post("/:id/submit", h.SubmitForReview)
	protectedGroup.Post("/:id/approve", h.ApproveCandidate, middleware.PermissionRequired(middleware.ModerateCandidatePermission))
	protectedGroup.Post("/:id/reject", h.RejectCandidate, middleware.PermissionRequired(middleware.ModerateCandidatePermission))
	protectedGroup.Post("/:id/toggle-anonymity", h.ToggleAnonymity)
}

// PUBLIC ENDPOINTS

func (h *CandidateHandler) SearchCandidates(c fiber.Ctx) error {
	query := &models.CandidateSearchQuery{
		Name:      c.Query("name"),
		Tag:       c.Query("tag"),
		Committee: c.Query("committee"),
		DealType:  c.Query("dealType"),
		Page:      1,
		PageSize:  20,
	}

	if page, err := strconv.Atoi(c.Query("page", "1")); err == nil && page > 0 {
		query.Page = page
	}

	if pageSize, err := strconv.Atoi(c.Query("pageSize", "20")); err == nil && pageSize > 0 && pageSize <= 50 {
		query.PageSize = pageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	viewerID := c.Get("X-User-ID")

	result, err := h.searchService.Search(ctx, query, viewerID)
	if err != nil {
		log.Printf("Failed to search candidates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to search candidates",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// PROTECTED ENDPOINTS

func (h *CandidateHandler) CreateCandidate(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	var req models.CreateCandidateRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	// Only moderators may register drafts on behalf of other users.
	if req.UserID == "" {
		req.UserID = userID
	} else if req.UserID != userID && !middleware.HasPermission(c, middleware.ModerateCandidatePermission) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Access denied",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := h.lifecycleService.RegisterDraft(ctx, &req)
	if err != nil {
		log.Printf("Failed to create candidate draft for user %s: %v", req.UserID, err)

		if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "required") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create candidate profile",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profile": profile,
		},
	})
}

func (h *CandidateHandler) GetMe(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := h.lifecycleService.GetProfileByUserID(ctx, userID)
	if err != nil {
		log.Printf("Failed to get candidate profile for user %s: %v", userID, err)
		return candidateError(c, err, "Failed to retrieve candidate profile")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profile": profile,
		},
	})
}

func (h *CandidateHandler) GetCandidate(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	profileID := c.Params("id")
	if profileID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Candidate ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := h.lifecycleService.GetProfile(ctx, profileID)
	if err != nil {
		log.Printf("Failed to get candidate %s: %v", profileID, err)
		return candidateError(c, err, "Failed to retrieve candidate profile")
	}

	// Owners and moderators see everything. Everyone else gets the
	// unlock-aware projection of an active profile.
	if profile.UserID == userID || middleware.HasPermission(c, middleware.ReadAllCandidatePermission) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"profile": profile,
			},
		})
	}

	if !profile.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Candidate not found",
		})
	}

	unlocked, err := h.creditService.IsUnlocked(ctx, userID, profile.ID.Hex())
	if err != nil {
		log.Printf("Failed to check unlock for user %s on candidate %s: %v", userID, profileID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve candidate profile",
		})
	}

	if unlocked {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"profile": profile,
			},
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profile": service.BuildCard(profile, false),
		},
	})
}

func (h *CandidateHandler) SubmitForReview(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	profileID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := h.lifecycleService.SubmitForReview(ctx, profileID, userID)
	if err != nil {
		log.Printf("Failed to submit candidate %s for review: %v", profileID, err)
		return candidateError(c, err, "Failed to submit candidate for review")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Candidate submitted for review",
		"data": fiber.Map{
			"profile": profile,
		},
	})
}

func (h *CandidateHandler) ApproveCandidate(c fiber.Ctx) error {
	adminID := c.Get("X-User-ID")
	profileID := c.Params("id")

	var req models.ModerationRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request body",
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profile, warnings, err := h.lifecycleService.Approve(ctx, profileID, adminID, req.Reason)
	if err != nil {
		log.Printf("Failed to approve candidate %s: %v", profileID, err)
		return candidateError(c, err, "Failed to approve candidate")
	}

	data := fiber.Map{
		"profile": profile,
	}
	if len(warnings) > 0 {
		data["warnings"] = warnings
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Candidate approved",
		"data":    data,
	})
}

func (h *CandidateHandler) RejectCandidate(c fiber.Ctx) error {
	adminID := c.Get("X-User-ID")
	profileID := c.Params("id")

	var req models.ModerationRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request body",
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := h.lifecycleService.Reject(ctx, profileID, adminID, req.Reason)
	if err != nil {
		log.Printf("Failed to reject candidate %s: %v", profileID, err)
		return candidateError(c, err, "Failed to reject candidate")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Candidate rejected",
		"data": fiber.Map{
			"profile": profile,
		},
	})
}

func (h *CandidateHandler) ToggleAnonymity(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return unauthenticated(c)
	}

	profileID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.lifecycleService.ToggleAnonymity(ctx, profileID, userID)
	if err != nil {
		log.Printf("Failed to toggle anonymity for candidate %s: %v", profileID, err)
		return candidateError(c, err, "Failed to toggle anonymity")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"anonymity": result,
		},
	})
}

func (h *CandidateHandler) ListPendingReview(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profiles, err := h.lifecycleService.PendingReview(ctx, page, limit)
	if err != nil {
		log.Printf("Failed to list pending candidates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve pending candidates",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profiles": profiles,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"count": len(profiles),
			},
		},
	})
}

func (h *CandidateHandler) HealthCheck(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Candidate Service is healthy")
}

// HELPER FUNCTIONS

func unauthenticated(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "Authentication required",
	})
}

// candidateError maps service errors onto the response envelope without
// leaking store internals.
func candidateError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Candidate not found",
		})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Access denied",
		})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	case strings.Contains(err.Error(), "invalid"):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid candidate ID format",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fallback,
		})
	}
}
