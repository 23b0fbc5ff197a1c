package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"board-champions/internal/event"
	"board-champions/internal/metrics"
	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// LifecycleService owns the candidate profile state machine:
// draft -> pending_review -> approved | rejected, with the orthogonal
// anonymity flag togglable while approved. Approval triggers the one-time
// migration of staged metadata into the normalized collections.
type LifecycleService struct {
	profiles   ProfileStore
	normalized NormalizedStore
	publisher  event.Publisher
}

func NewLifecycleService(profiles ProfileStore, normalized NormalizedStore, publisher event.Publisher) *LifecycleService {
	return &LifecycleService{
		profiles:   profiles,
		normalized: normalized,
		publisher:  publisher,
	}
}

// RegisterDraft creates the inactive draft profile captured at signup.
func (s *LifecycleService) RegisterDraft(ctx context.Context, req *models.CreateCandidateRequest) (*models.CandidateProfile, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if req.ContactInfo.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	existing, err := s.profiles.FindByUserID(ctx, req.UserID)
	if err != nil && err != models.ErrNotFound {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("profile already exists for user %s", req.UserID)
	}

	staging := req.Staging
	if staging != nil && staging.Version == 0 {
		staging.Version = models.StagingSchemaVersion
	}

	profile := &models.CandidateProfile{
		UserID:       req.UserID,
		PersonalInfo: req.PersonalInfo,
		ContactInfo:  req.ContactInfo,
		IsActive:     false,
		ReviewStatus: models.ReviewStatusDraft,
		Staging:      staging,
		Processing: models.ProcessingState{
			Status: models.ProcessingStatusNotStarted,
		},
	}

	created, err := s.profiles.New(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return created, nil
}

func (s *LifecycleService) GetProfile(ctx context.Context, profileID string) (*models.CandidateProfile, error) {
	objectID, err := parseProfileID(profileID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, objectID)
	if err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *LifecycleService) GetProfileByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	return s.profiles.FindByUserID(ctx, userID)
}

// SubmitForReview marks the profile completed and queues it for admin
// review. It never changes visibility: isActive stays false until approval.
func (s *LifecycleService) SubmitForReview(ctx context.Context, profileID, callerID string) (*models.CandidateProfile, error) {
	objectID, err := parseProfileID(profileID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != callerID {
		return nil, models.ErrForbidden
	}
	if profile.ReviewStatus == models.ReviewStatusApproved {
		return nil, fmt.Errorf("%w: profile is already approved", models.ErrInvalidTransition)
	}

	entry := models.AuditEntry{
		Action:    models.AuditActionSubmitted,
		Timestamp: time.Now().Unix(),
	}
	if err := s.profiles.MarkSubmitted(ctx, objectID, entry); err != nil {
		return nil, fmt.Errorf("failed to submit profile: %w", err)
	}

	s.publishCandidateEvent(models.EventTypeProfileSubmitted, profile, "", "")

	return s.profiles.FindByID(ctx, objectID)
}

// Approve migrates the staged metadata into normalized collections and
// activates the profile. Safe to re-invoke: categories already recorded in
// processing.completedSteps are skipped, so a retry after partial failure
// never duplicates rows. Per-category failures are recorded as audit
// warnings and do not abort the approval.
func (s *LifecycleService) Approve(ctx context.Context, profileID, adminID, reason string) (*models.CandidateProfile, []string, error) {
	timer := time.Now()

	objectID, err := parseProfileID(profileID)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.FindByID(ctx, objectID)
	if err != nil {
		return nil, nil, err
	}
	if profile.ReviewStatus != models.ReviewStatusPendingReview &&
		profile.ReviewStatus != models.ReviewStatusApproved {
		return nil, nil, fmt.Errorf("%w: cannot approve profile in state %s", models.ErrInvalidTransition, profile.ReviewStatus)
	}

	warnings, err := s.migrateStaging(ctx, profile, adminID)
	if err != nil {
		return nil, warnings, err
	}

	entry := models.AuditEntry{
		AdminID:   adminID,
		Action:    models.AuditActionApproved,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	if err := s.profiles.MarkApproved(ctx, objectID, entry); err != nil {
		return nil, warnings, fmt.Errorf("failed to mark profile approved: %w", err)
	}

	metrics.ApprovalsTotal.Inc()
	metrics.ApprovalDuration.Observe(time.Since(timer).Seconds())

	s.publishCandidateEvent(models.EventTypeProfileApproved, profile, adminID, reason)

	approved, err := s.profiles.FindByID(ctx, objectID)
	if err != nil {
		return nil, warnings, err
	}
	return approved, warnings, nil
}

// migrateStaging runs each pending category in order. Each category is
// claimed in the profile document before its rows are inserted; the claim
// is a conditional update against the stored marker set, so when two
// approvals run at once exactly one of them migrates a category and the
// other skips it. A failed insert releases the claim and records a
// warning, leaving the category for a later retry.
func (s *LifecycleService) migrateStaging(ctx context.Context, profile *models.CandidateProfile, adminID string) ([]string, error) {
	var warnings []string

	for _, step := range models.MigrationSteps {
		if profile.Processing.StepCompleted(step) {
			continue
		}

		claimed, err := s.profiles.ClaimStep(ctx, profile.ID, step)
		if err != nil {
			return warnings, fmt.Errorf("failed to claim step %s: %w", step, err)
		}
		if !claimed {
			continue
		}

		if err := s.migrateStep(ctx, profile, step); err != nil {
			if releaseErr := s.profiles.ReleaseStep(ctx, profile.ID, step); releaseErr != nil {
				log.Printf("Failed to release step %s for profile %s: %v", step, profile.ID.Hex(), releaseErr)
			}

			metrics.MigrationStepFailures.WithLabelValues(string(step)).Inc()
			warning := fmt.Sprintf("category %s failed to migrate: %v", step, err)
			warnings = append(warnings, warning)
			log.Printf("Migration warning for profile %s: %s", profile.ID.Hex(), warning)

			audit := models.AuditEntry{
				AdminID:   adminID,
				Action:    models.AuditActionMigrationWarning,
				Reason:    warning,
				Timestamp: time.Now().Unix(),
			}
			if auditErr := s.profiles.AppendAudit(ctx, profile.ID, audit); auditErr != nil {
				log.Printf("Failed to record migration warning for profile %s: %v", profile.ID.Hex(), auditErr)
			}
		}
	}

	return warnings, nil
}

func (s *LifecycleService) migrateStep(ctx context.Context, profile *models.CandidateProfile, step models.MigrationStep) error {
	staging := profile.Staging
	if staging == nil {
		return nil
	}

	switch step {
	case models.StepTags:
		names := cleanNames(staging.Tags)
		if len(names) == 0 {
			return nil
		}
		tagIDs, err := s.normalized.EnsureTags(ctx, names)
		if err != nil {
			return err
		}
		return s.normalized.InsertCandidateTags(ctx, profile.ID, tagIDs)

	case models.StepWorkExperience:
		rows := make([]models.WorkExperience, 0, len(staging.WorkExperience))
		for _, staged := range staging.WorkExperience {
			if staged.Company == "" && staged.Title == "" {
				return fmt.Errorf("work experience entry missing company and title")
			}
			rows = append(rows, staged.Normalize(profile))
		}
		return s.normalized.InsertWorkExperiences(ctx, rows)

	case models.StepEducation:
		rows := make([]models.Education, 0, len(staging.Education))
		for _, staged := range staging.Education {
			if staged.Institution == "" {
				return fmt.Errorf("education entry missing institution")
			}
			rows = append(rows, staged.Normalize(profile))
		}
		return s.normalized.InsertEducations(ctx, rows)

	case models.StepDealExperience:
		rows := make([]models.DealExperience, 0, len(staging.DealExperience))
		for _, staged := range staging.DealExperience {
			if staged.DealType == "" {
				return fmt.Errorf("deal experience entry missing deal type")
			}
			rows = append(rows, staged.Normalize(profile))
		}
		return s.normalized.InsertDealExperiences(ctx, rows)

	case models.StepBoardCommittees:
		names := cleanNames(staging.BoardCommittees)
		rows := make([]models.BoardCommittee, 0, len(names))
		for _, name := range names {
			rows = append(rows, models.BoardCommittee{ProfileID: profile.ID, Name: name})
		}
		return s.normalized.InsertBoardCommittees(ctx, rows)

	case models.StepBoardExperienceTypes:
		names := cleanNames(staging.BoardExperienceTypes)
		rows := make([]models.BoardExperienceType, 0, len(names))
		for _, name := range names {
			rows = append(rows, models.BoardExperienceType{ProfileID: profile.ID, Name: name})
		}
		return s.normalized.InsertBoardExperienceTypes(ctx, rows)

	default:
		return fmt.Errorf("unknown migration step %s", step)
	}
}

// Reject records the rejection and leaves the profile inactive. Staging
// data stays untouched so the candidate can resubmit later.
func (s *LifecycleService) Reject(ctx context.Context, profileID, adminID, reason string) (*models.CandidateProfile, error) {
	objectID, err := parseProfileID(profileID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if profile.ReviewStatus == models.ReviewStatusApproved {
		return nil, fmt.Errorf("%w: cannot reject an approved profile", models.ErrInvalidTransition)
	}

	entry := models.AuditEntry{
		AdminID:   adminID,
		Action:    models.AuditActionRejected,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	if err := s.profiles.MarkRejected(ctx, objectID, entry); err != nil {
		return nil, fmt.Errorf("failed to reject profile: %w", err)
	}

	metrics.RejectionsTotal.Inc()
	s.publishCandidateEvent(models.EventTypeProfileRejected, profile, adminID, reason)

	return s.profiles.FindByID(ctx, objectID)
}

// ToggleAnonymity flips the anonymity flag on an active profile. The one
// fully reversible, caller-initiated transition.
func (s *LifecycleService) ToggleAnonymity(ctx context.Context, profileID, callerID string) (*models.AnonymityToggleResult, error) {
	objectID, err := parseProfileID(profileID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != callerID {
		return nil, models.ErrForbidden
	}
	if !profile.IsActive {
		return nil, fmt.Errorf("%w: profile must be active to toggle anonymity", models.ErrInvalidTransition)
	}

	previous := profile.IsAnonymized
	entry := models.AuditEntry{
		Action:    models.AuditActionAnonymityToggled,
		Timestamp: time.Now().Unix(),
	}
	if err := s.profiles.SetAnonymized(ctx, objectID, !previous, entry); err != nil {
		return nil, fmt.Errorf("failed to toggle anonymity: %w", err)
	}

	s.publishCandidateEvent(models.EventTypeProfileAnonymityToggle, profile, "", "")

	return &models.AnonymityToggleResult{
		Previous: previous,
		Current:  !previous,
	}, nil
}

func (s *LifecycleService) DeactivateUser(ctx context.Context, userID string) error {
	return s.profiles.DeactivateByUserID(ctx, userID)
}

func (s *LifecycleService) PendingReview(ctx context.Context, page, limit int) ([]*models.CandidateProfile, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.profiles.FindPendingReview(ctx, page, limit)
}

func (s *LifecycleService) publishCandidateEvent(eventType models.EventType, profile *models.CandidateProfile, adminID, reason string) {
	if s.publisher == nil {
		return
	}
	candidateEvent := &models.CandidateEvent{
		EventType: eventType,
		ProfileID: profile.ID.Hex(),
		UserID:    profile.UserID,
		AdminID:   adminID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	if err := s.publisher.PublishCandidateEvent(candidateEvent); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}

func parseProfileID(profileID string) (bson.ObjectID, error) {
	if profileID == "" {
		return bson.ObjectID{}, fmt.Errorf("profile ID is required")
	}
	objectID, err := bson.ObjectIDFromHex(profileID)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("invalid profile ID format: %w", err)
	}
	return objectID, nil
}

func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}
