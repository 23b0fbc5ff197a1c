package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"board-champions/internal/event"
	"board-champions/internal/metrics"
	"board-champions/internal/models"
)

// CreditService owns the credit ledger: lazy account creation, atomic
// deduction with the at-most-once unlock guarantee, grants, and the
// unlock membership test backed by a Redis cache.
type CreditService struct {
	credits   CreditStore
	cache     UnlockCache
	publisher event.Publisher
}

func NewCreditService(credits CreditStore, cache UnlockCache, publisher event.Publisher) *CreditService {
	return &CreditService{
		credits:   credits,
		cache:     cache,
		publisher: publisher,
	}
}

// GetBalance returns the user's account, creating a zero-balance one on
// first access.
func (s *CreditService) GetBalance(ctx context.Context, userID string) (*models.CreditAccount, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	return s.credits.FindOrCreate(ctx, userID)
}

// Deduct spends credits. For profile_unlock deductions, a profile already
// in the unlocked set is success-without-charge, never a second charge.
func (s *CreditService) Deduct(ctx context.Context, userID string, amount int64, profileID string, reason models.CreditReason) (*models.DeductResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	isUnlock := reason == models.CreditReasonProfileUnlock
	if isUnlock && profileID == "" {
		return nil, fmt.Errorf("profile ID is required for unlock deductions")
	}

	account, err := s.credits.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if isUnlock && account.HasUnlocked(profileID) {
		return &models.DeductResult{Balance: account.CreditBalance, Charged: false}, nil
	}

	updated, err := s.credits.Deduct(ctx, userID, amount, profileID, reason)
	if err == models.ErrAlreadyUnlocked {
		// Lost a race against a concurrent unlock of the same profile;
		// the other request paid.
		return &models.DeductResult{Balance: updated.CreditBalance, Charged: false}, nil
	}
	if err == models.ErrInsufficientCredits {
		metrics.InsufficientCreditsTotal.Inc()
		return nil, models.ErrInsufficientCredits
	}
	if err != nil {
		return nil, err
	}

	if isUnlock {
		metrics.UnlocksTotal.Inc()
		if s.cache != nil {
			if cacheErr := s.cache.MarkUnlocked(ctx, userID, profileID); cacheErr != nil {
				log.Printf("Failed to cache unlock for user %s: %v", userID, cacheErr)
			}
		}
	}

	s.publishCreditEvent(models.EventTypeCreditDeducted, userID, profileID, -amount, updated.CreditBalance, reason)

	return &models.DeductResult{Balance: updated.CreditBalance, Charged: true}, nil
}

// IsUnlocked is the membership test gating full-profile visibility.
func (s *CreditService) IsUnlocked(ctx context.Context, userID, profileID string) (bool, error) {
	if userID == "" || profileID == "" {
		return false, nil
	}

	if s.cache != nil {
		unlocked, err := s.cache.IsUnlocked(ctx, userID, profileID)
		if err != nil {
			log.Printf("Unlock cache lookup failed for user %s: %v", userID, err)
		} else if unlocked {
			return true, nil
		}
	}

	unlocked, err := s.credits.IsUnlocked(ctx, userID, profileID)
	if err != nil {
		return false, err
	}
	if unlocked && s.cache != nil {
		if cacheErr := s.cache.MarkUnlocked(ctx, userID, profileID); cacheErr != nil {
			log.Printf("Failed to warm unlock cache for user %s: %v", userID, cacheErr)
		}
	}
	return unlocked, nil
}

// Grant is the administrative top-up.
func (s *CreditService) Grant(ctx context.Context, userID string, amount int64) (*models.CreditAccount, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	if _, err := s.credits.FindOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	account, err := s.credits.Grant(ctx, userID, amount, models.CreditReasonAdminGrant)
	if err != nil {
		return nil, err
	}

	s.publishCreditEvent(models.EventTypeCreditGranted, userID, "", amount, account.CreditBalance, models.CreditReasonAdminGrant)

	return account, nil
}

func (s *CreditService) History(ctx context.Context, userID string) ([]models.CreditHistoryEntry, error) {
	account, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return account.CreditHistory, nil
}

func (s *CreditService) publishCreditEvent(eventType models.EventType, userID, profileID string, delta, balance int64, reason models.CreditReason) {
	if s.publisher == nil {
		return
	}
	creditEvent := &models.CreditEvent{
		EventType:        eventType,
		UserID:           userID,
		ProfileID:        profileID,
		Delta:            delta,
		ResultingBalance: balance,
		Reason:           reason,
		Timestamp:        time.Now(),
	}
	if err := s.publisher.PublishCreditEvent(creditEvent); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
