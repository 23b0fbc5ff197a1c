package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// In-memory stores mirroring the Mongo repository semantics.

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[bson.ObjectID]*models.CandidateProfile

	// onFind, when set, runs at the start of FindByID. Tests use it to
	// line up concurrent callers on the same stale snapshot.
	onFind func()
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles: make(map[bson.ObjectID]*models.CandidateProfile),
	}
}

func (f *fakeProfileStore) New(ctx context.Context, profile *models.CandidateProfile) (*models.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile.ID = bson.NewObjectID()
	now := time.Now().Unix()
	profile.Metadata = models.Metadata{CreatedAt: now, UpdatedAt: now}
	f.profiles[profile.ID] = profile
	return profile, nil
}

func (f *fakeProfileStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.CandidateProfile, error) {
	if f.onFind != nil {
		f.onFind()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneProfile(profile), nil
}

func (f *fakeProfileStore) FindByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, profile := range f.profiles {
		if profile.UserID == userID {
			return cloneProfile(profile), nil
		}
	}
	return nil, models.ErrNotFound
}

// cloneProfile returns a detached copy, the way a driver decode would.
// Readers must never share mutable state with the stored document.
func cloneProfile(p *models.CandidateProfile) *models.CandidateProfile {
	cp := *p
	cp.Processing.CompletedSteps = append([]models.MigrationStep(nil), p.Processing.CompletedSteps...)
	cp.Moderation.Audit = append([]models.AuditEntry(nil), p.Moderation.Audit...)
	return &cp
}

func (f *fakeProfileStore) MarkSubmitted(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	profile.ProfileCompleted = true
	profile.ReviewStatus = models.ReviewStatusPendingReview
	profile.Moderation.Audit = append(profile.Moderation.Audit, entry)
	return nil
}

func (f *fakeProfileStore) ClaimStep(ctx context.Context, id bson.ObjectID, step models.MigrationStep) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if profile.Processing.StepCompleted(step) {
		return false, nil
	}
	profile.Processing.CompletedSteps = append(profile.Processing.CompletedSteps, step)
	profile.Processing.Status = models.ProcessingStatusInProgress
	return true, nil
}

func (f *fakeProfileStore) ReleaseStep(ctx context.Context, id bson.ObjectID, step models.MigrationStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	steps := profile.Processing.CompletedSteps[:0]
	for _, s := range profile.Processing.CompletedSteps {
		if s != step {
			steps = append(steps, s)
		}
	}
	profile.Processing.CompletedSteps = steps
	return nil
}

func (f *fakeProfileStore) MarkApproved(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	profile.IsActive = true
	profile.ReviewStatus = models.ReviewStatusApproved
	profile.Processing.Status = models.ProcessingStatusCompleted
	profile.Moderation.ReviewedBy = entry.AdminID
	profile.Moderation.ReviewedAt = entry.Timestamp
	profile.Moderation.Reason = entry.Reason
	profile.Moderation.Audit = append(profile.Moderation.Audit, entry)
	return nil
}

func (f *fakeProfileStore) MarkRejected(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	profile.IsActive = false
	profile.ReviewStatus = models.ReviewStatusRejected
	profile.Moderation.ReviewedBy = entry.AdminID
	profile.Moderation.ReviewedAt = entry.Timestamp
	profile.Moderation.Reason = entry.Reason
	profile.Moderation.Audit = append(profile.Moderation.Audit, entry)
	return nil
}

func (f *fakeProfileStore) AppendAudit(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	profile.Moderation.Audit = append(profile.Moderation.Audit, entry)
	return nil
}

func (f *fakeProfileStore) SetAnonymized(ctx context.Context, id bson.ObjectID, anonymized bool, entry models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	profile.IsAnonymized = anonymized
	profile.Moderation.AnonymityToggles++
	profile.Moderation.LastToggledAt = entry.Timestamp
	profile.Moderation.Audit = append(profile.Moderation.Audit, entry)
	return nil
}

func (f *fakeProfileStore) DeactivateByUserID(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, profile := range f.profiles {
		if profile.UserID == userID {
			profile.IsActive = false
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeProfileStore) FindPendingReview(ctx context.Context, page, limit int) ([]*models.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*models.CandidateProfile
	for _, profile := range f.profiles {
		if profile.ReviewStatus == models.ReviewStatusPendingReview {
			pending = append(pending, profile)
		}
	}
	return pending, nil
}

func (f *fakeProfileStore) SearchActive(ctx context.Context, query *models.CandidateSearchQuery, restrictToIDs []bson.ObjectID) ([]*models.CandidateProfile, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	allowed := map[bson.ObjectID]bool{}
	for _, id := range restrictToIDs {
		allowed[id] = true
	}

	var matches []*models.CandidateProfile
	for _, profile := range f.profiles {
		if !profile.IsActive {
			continue
		}
		if restrictToIDs != nil && !allowed[profile.ID] {
			continue
		}
		if query.Name != "" {
			name := strings.ToLower(profile.PersonalInfo.FirstName + " " + profile.PersonalInfo.LastName + " " + profile.PersonalInfo.DisplayName)
			if !strings.Contains(name, strings.ToLower(query.Name)) {
				continue
			}
		}
		matches = append(matches, profile)
	}
	return matches, int64(len(matches)), nil
}

type fakeNormalizedStore struct {
	mu              sync.Mutex
	workExperiences []models.WorkExperience
	educations      []models.Education
	dealExperiences []models.DealExperience
	committees      []models.BoardCommittee
	experienceTypes []models.BoardExperienceType
	tags            map[string]bson.ObjectID
	candidateTags   []models.CandidateTag

	failEducation bool
}

func newFakeNormalizedStore() *fakeNormalizedStore {
	return &fakeNormalizedStore{
		tags: make(map[string]bson.ObjectID),
	}
}

func (f *fakeNormalizedStore) InsertWorkExperiences(ctx context.Context, rows []models.WorkExperience) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workExperiences = append(f.workExperiences, rows...)
	return nil
}

func (f *fakeNormalizedStore) InsertEducations(ctx context.Context, rows []models.Education) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEducation {
		return fmt.Errorf("education insert failed")
	}
	f.educations = append(f.educations, rows...)
	return nil
}

func (f *fakeNormalizedStore) InsertDealExperiences(ctx context.Context, rows []models.DealExperience) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dealExperiences = append(f.dealExperiences, rows...)
	return nil
}

func (f *fakeNormalizedStore) InsertBoardCommittees(ctx context.Context, rows []models.BoardCommittee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committees = append(f.committees, rows...)
	return nil
}

func (f *fakeNormalizedStore) InsertBoardExperienceTypes(ctx context.Context, rows []models.BoardExperienceType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.experienceTypes = append(f.experienceTypes, rows...)
	return nil
}

func (f *fakeNormalizedStore) EnsureTags(ctx context.Context, names []string) ([]bson.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]bson.ObjectID, 0, len(names))
	for _, name := range names {
		id, ok := f.tags[name]
		if !ok {
			id = bson.NewObjectID()
			f.tags[name] = id
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeNormalizedStore) InsertCandidateTags(ctx context.Context, profileID bson.ObjectID, tagIDs []bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tagID := range tagIDs {
		f.candidateTags = append(f.candidateTags, models.CandidateTag{
			ID:        bson.NewObjectID(),
			ProfileID: profileID,
			TagID:     tagID,
		})
	}
	return nil
}

func (f *fakeNormalizedStore) ProfileIDsByTag(ctx context.Context, tagName string) ([]bson.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tagID, ok := f.tags[tagName]
	if !ok {
		return []bson.ObjectID{}, nil
	}
	ids := []bson.ObjectID{}
	for _, link := range f.candidateTags {
		if link.TagID == tagID {
			ids = append(ids, link.ProfileID)
		}
	}
	return ids, nil
}

func (f *fakeNormalizedStore) ProfileIDsByCommittee(ctx context.Context, name string) ([]bson.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []bson.ObjectID{}
	for _, row := range f.committees {
		if row.Name == name {
			ids = append(ids, row.ProfileID)
		}
	}
	return ids, nil
}

func (f *fakeNormalizedStore) ProfileIDsByDealType(ctx context.Context, dealType string) ([]bson.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []bson.ObjectID{}
	for _, row := range f.dealExperiences {
		if row.DealType == dealType {
			ids = append(ids, row.ProfileID)
		}
	}
	return ids, nil
}

type fakeCreditStore struct {
	mu       sync.Mutex
	accounts map[string]*models.CreditAccount
}

func newFakeCreditStore() *fakeCreditStore {
	return &fakeCreditStore{
		accounts: make(map[string]*models.CreditAccount),
	}
}

func (f *fakeCreditStore) FindByUserID(ctx context.Context, userID string) (*models.CreditAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return account, nil
}

func (f *fakeCreditStore) FindOrCreate(ctx context.Context, userID string) (*models.CreditAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		now := time.Now().Unix()
		account = &models.CreditAccount{
			ID:       bson.NewObjectID(),
			UserID:   userID,
			Metadata: models.Metadata{CreatedAt: now, UpdatedAt: now},
		}
		f.accounts[userID] = account
	}
	return account, nil
}

func (f *fakeCreditStore) Deduct(ctx context.Context, userID string, amount int64, profileID string, reason models.CreditReason) (*models.CreditAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return nil, models.ErrNotFound
	}

	isUnlock := reason == models.CreditReasonProfileUnlock
	if isUnlock && account.HasUnlocked(profileID) {
		return account, models.ErrAlreadyUnlocked
	}
	if account.CreditBalance < amount {
		return nil, models.ErrInsufficientCredits
	}

	account.CreditBalance -= amount
	account.CreditHistory = append(account.CreditHistory, models.CreditHistoryEntry{
		Timestamp:        time.Now().Unix(),
		Delta:            -amount,
		ResultingBalance: account.CreditBalance,
		Reason:           reason,
		ProfileID:        profileID,
	})
	if isUnlock {
		account.UnlockedProfileIDs = append(account.UnlockedProfileIDs, profileID)
	}
	return account, nil
}

func (f *fakeCreditStore) Grant(ctx context.Context, userID string, amount int64, reason models.CreditReason) (*models.CreditAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	account.CreditBalance += amount
	account.CreditHistory = append(account.CreditHistory, models.CreditHistoryEntry{
		Timestamp:        time.Now().Unix(),
		Delta:            amount,
		ResultingBalance: account.CreditBalance,
		Reason:           reason,
	})
	return account, nil
}

func (f *fakeCreditStore) IsUnlocked(ctx context.Context, userID, profileID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return false, nil
	}
	return account.HasUnlocked(profileID), nil
}

type fakeUnlockCache struct {
	mu       sync.Mutex
	unlocked map[string]map[string]bool
}

func newFakeUnlockCache() *fakeUnlockCache {
	return &fakeUnlockCache{
		unlocked: make(map[string]map[string]bool),
	}
}

func (f *fakeUnlockCache) IsUnlocked(ctx context.Context, userID, profileID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unlocked[userID][profileID], nil
}

func (f *fakeUnlockCache) MarkUnlocked(ctx context.Context, userID, profileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unlocked[userID] == nil {
		f.unlocked[userID] = make(map[string]bool)
	}
	f.unlocked[userID][profileID] = true
	return nil
}
