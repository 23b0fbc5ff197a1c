package service

import (
	"context"
	"errors"
	"testing"

	"board-champions/internal/event"
	"board-champions/internal/models"
)

func newCreditFixture() (*CreditService, *fakeCreditStore, *fakeUnlockCache, *event.MockPublisher) {
	store := newFakeCreditStore()
	cache := newFakeUnlockCache()
	publisher := event.NewMockPublisher()
	return NewCreditService(store, cache, publisher), store, cache, publisher
}

func TestGetBalanceCreatesAccount(t *testing.T) {
	svc, store, _, _ := newCreditFixture()
	ctx := context.Background()

	account, err := svc.GetBalance(ctx, "company-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if account.CreditBalance != 0 {
		t.Errorf("New account must start at zero, got %d", account.CreditBalance)
	}
	if len(account.CreditHistory) != 0 {
		t.Errorf("New account must have empty history, got %d entries", len(account.CreditHistory))
	}

	if _, err := store.FindByUserID(ctx, "company-1"); err != nil {
		t.Errorf("Account was not persisted: %v", err)
	}

	again, err := svc.GetBalance(ctx, "company-1")
	if err != nil {
		t.Fatalf("Second GetBalance failed: %v", err)
	}
	if again.ID != account.ID {
		t.Error("Repeat lookup must return the same account")
	}
}

func TestDeductArithmetic(t *testing.T) {
	svc, _, _, _ := newCreditFixture()
	ctx := context.Background()

	if _, err := svc.Grant(ctx, "company-1", 5); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	result, err := svc.Deduct(ctx, "company-1", 2, "profile-a", models.CreditReasonProfileUnlock)
	if err != nil {
		t.Fatalf("Deduct failed: %v", err)
	}
	if !result.Charged {
		t.Error("First unlock must charge")
	}
	if result.Balance != 3 {
		t.Errorf("Expected balance 3, got %d", result.Balance)
	}

	account, _ := svc.GetBalance(ctx, "company-1")
	if len(account.CreditHistory) != 2 {
		t.Fatalf("Expected 2 history entries (grant + deduct), got %d", len(account.CreditHistory))
	}
	entry := account.CreditHistory[1]
	if entry.Delta != -2 || entry.ResultingBalance != 3 || entry.ProfileID != "profile-a" {
		t.Errorf("Unexpected deduct entry: %+v", entry)
	}
	if !account.HasUnlocked("profile-a") {
		t.Error("Profile must be in the unlocked set")
	}
}

func TestDeductInsufficientCredits(t *testing.T) {
	svc, _, _, _ := newCreditFixture()
	ctx := context.Background()

	if _, err := svc.Grant(ctx, "company-1", 1); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	_, err := svc.Deduct(ctx, "company-1", 2, "profile-a", models.CreditReasonProfileUnlock)
	if !errors.Is(err, models.ErrInsufficientCredits) {
		t.Fatalf("Expected ErrInsufficientCredits, got %v", err)
	}

	account, _ := svc.GetBalance(ctx, "company-1")
	if account.CreditBalance != 1 {
		t.Errorf("Failed deduction must not change balance, got %d", account.CreditBalance)
	}
	if len(account.CreditHistory) != 1 {
		t.Errorf("Failed deduction must not append history, got %d entries", len(account.CreditHistory))
	}
	if account.HasUnlocked("profile-a") {
		t.Error("Failed deduction must not unlock the profile")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	svc, _, _, _ := newCreditFixture()
	ctx := context.Background()

	svc.Grant(ctx, "company-1", 5)

	first, err := svc.Deduct(ctx, "company-1", 2, "profile-a", models.CreditReasonProfileUnlock)
	if err != nil {
		t.Fatalf("First deduct failed: %v", err)
	}
	if !first.Charged || first.Balance != 3 {
		t.Errorf("Unexpected first deduct result: %+v", first)
	}

	second, err := svc.Deduct(ctx, "company-1", 2, "profile-a", models.CreditReasonProfileUnlock)
	if err != nil {
		t.Fatalf("Repeat deduct must succeed without charge: %v", err)
	}
	if second.Charged {
		t.Error("Repeat unlock must not charge")
	}
	if second.Balance != 3 {
		t.Errorf("Repeat unlock must not change balance, got %d", second.Balance)
	}

	account, _ := svc.GetBalance(ctx, "company-1")
	if len(account.CreditHistory) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(account.CreditHistory))
	}
	if len(account.UnlockedProfileIDs) != 1 {
		t.Errorf("Profile must appear once in unlocked set, got %v", account.UnlockedProfileIDs)
	}
}

func TestDeductValidation(t *testing.T) {
	svc, _, _, _ := newCreditFixture()
	ctx := context.Background()

	if _, err := svc.Deduct(ctx, "company-1", 0, "profile-a", models.CreditReasonProfileUnlock); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := svc.Deduct(ctx, "company-1", -1, "profile-a", models.CreditReasonProfileUnlock); err == nil {
		t.Error("Expected error for negative amount")
	}
	if _, err := svc.Deduct(ctx, "company-1", 1, "", models.CreditReasonProfileUnlock); err == nil {
		t.Error("Expected error for unlock without profile ID")
	}
	if _, err := svc.Deduct(ctx, "", 1, "profile-a", models.CreditReasonProfileUnlock); err == nil {
		t.Error("Expected error for missing user ID")
	}
}

func TestGrant(t *testing.T) {
	svc, _, _, publisher := newCreditFixture()
	ctx := context.Background()

	account, err := svc.Grant(ctx, "company-1", 10)
	if err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if account.CreditBalance != 10 {
		t.Errorf("Expected balance 10, got %d", account.CreditBalance)
	}
	if len(account.CreditHistory) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(account.CreditHistory))
	}
	if account.CreditHistory[0].Reason != models.CreditReasonAdminGrant {
		t.Errorf("Expected admin_grant reason, got %s", account.CreditHistory[0].Reason)
	}

	if len(publisher.CreditEvents) != 1 || publisher.CreditEvents[0].EventType != models.EventTypeCreditGranted {
		t.Errorf("Expected one credit.granted event, got %v", publisher.CreditEvents)
	}

	if _, err := svc.Grant(ctx, "company-1", 0); err == nil {
		t.Error("Expected error for non-positive grant")
	}
}

func TestHistoryReplayMatchesBalance(t *testing.T) {
	svc, _, _, _ := newCreditFixture()
	ctx := context.Background()

	svc.Grant(ctx, "company-1", 10)
	svc.Deduct(ctx, "company-1", 3, "profile-a", models.CreditReasonProfileUnlock)
	svc.Deduct(ctx, "company-1", 1, "profile-b", models.CreditReasonProfileUnlock)
	svc.Grant(ctx, "company-1", 2)
	svc.Deduct(ctx, "company-1", 3, "profile-a", models.CreditReasonProfileUnlock) // repeat, no charge

	account, err := svc.GetBalance(ctx, "company-1")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if account.CreditBalance != 8 {
		t.Errorf("Expected balance 8, got %d", account.CreditBalance)
	}
	if replayed := account.ReplayBalance(); replayed != account.CreditBalance {
		t.Errorf("History replay (%d) must match stored balance (%d)", replayed, account.CreditBalance)
	}

	history, err := svc.History(ctx, "company-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(history))
	}
}

func TestIsUnlockedCacheBehavior(t *testing.T) {
	svc, store, cache, _ := newCreditFixture()
	ctx := context.Background()

	unlocked, err := svc.IsUnlocked(ctx, "company-1", "profile-a")
	if err != nil || unlocked {
		t.Errorf("Expected not unlocked, got %v err %v", unlocked, err)
	}

	// Populate the store directly; the cache is cold.
	store.FindOrCreate(ctx, "company-1")
	store.Grant(ctx, "company-1", 1, models.CreditReasonAdminGrant)
	store.Deduct(ctx, "company-1", 1, "profile-a", models.CreditReasonProfileUnlock)

	unlocked, err = svc.IsUnlocked(ctx, "company-1", "profile-a")
	if err != nil {
		t.Fatalf("IsUnlocked failed: %v", err)
	}
	if !unlocked {
		t.Error("Expected unlocked after store deduction")
	}

	// The miss must have warmed the cache.
	cached, _ := cache.IsUnlocked(ctx, "company-1", "profile-a")
	if !cached {
		t.Error("Expected cache to be warmed after store hit")
	}

	if unlocked, _ := svc.IsUnlocked(ctx, "", "profile-a"); unlocked {
		t.Error("Missing user ID must report not unlocked")
	}
}

func TestDeductPublishesEvent(t *testing.T) {
	svc, _, _, publisher := newCreditFixture()
	ctx := context.Background()

	svc.Grant(ctx, "company-1", 5)
	svc.Deduct(ctx, "company-1", 2, "profile-a", models.CreditReasonProfileUnlock)

	if len(publisher.CreditEvents) != 2 {
		t.Fatalf("Expected 2 credit events, got %d", len(publisher.CreditEvents))
	}
	deducted := publisher.CreditEvents[1]
	if deducted.EventType != models.EventTypeCreditDeducted {
		t.Errorf("Expected credit.deducted, got %s", deducted.EventType)
	}
	if deducted.Delta != -2 || deducted.ResultingBalance != 3 {
		t.Errorf("Unexpected event payload: %+v", deducted)
	}

	// Repeat unlock is not a chargeable event and must not publish.
	svc.Deduct(ctx, "company-1", 2, "profile-a", models.CreditReasonProfileUnlock)
	if len(publisher.CreditEvents) != 2 {
		t.Errorf("Repeat unlock must not publish, got %d events", len(publisher.CreditEvents))
	}
}
