package service

import (
	"context"

	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store interfaces implemented by the Mongo repositories. Services depend
// on these so the state-machine and ledger logic can be exercised against
// in-memory fakes.

type ProfileStore interface {
	New(ctx context.Context, profile *models.CandidateProfile) (*models.CandidateProfile, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.CandidateProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error)
	MarkSubmitted(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error
	ClaimStep(ctx context.Context, id bson.ObjectID, step models.MigrationStep) (bool, error)
	ReleaseStep(ctx context.Context, id bson.ObjectID, step models.MigrationStep) error
	MarkApproved(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error
	MarkRejected(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error
	AppendAudit(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error
	SetAnonymized(ctx context.Context, id bson.ObjectID, anonymized bool, entry models.AuditEntry) error
	DeactivateByUserID(ctx context.Context, userID string) error
	FindPendingReview(ctx context.Context, page, limit int) ([]*models.CandidateProfile, error)
	SearchActive(ctx context.Context, query *models.CandidateSearchQuery, restrictToIDs []bson.ObjectID) ([]*models.CandidateProfile, int64, error)
}

type NormalizedStore interface {
	InsertWorkExperiences(ctx context.Context, rows []models.WorkExperience) error
	InsertEducations(ctx context.Context, rows []models.Education) error
	InsertDealExperiences(ctx context.Context, rows []models.DealExperience) error
	InsertBoardCommittees(ctx context.Context, rows []models.BoardCommittee) error
	InsertBoardExperienceTypes(ctx context.Context, rows []models.BoardExperienceType) error
	EnsureTags(ctx context.Context, names []string) ([]bson.ObjectID, error)
	InsertCandidateTags(ctx context.Context, profileID bson.ObjectID, tagIDs []bson.ObjectID) error
	ProfileIDsByTag(ctx context.Context, tagName string) ([]bson.ObjectID, error)
	ProfileIDsByCommittee(ctx context.Context, name string) ([]bson.ObjectID, error)
	ProfileIDsByDealType(ctx context.Context, dealType string) ([]bson.ObjectID, error)
}

type CreditStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.CreditAccount, error)
	FindOrCreate(ctx context.Context, userID string) (*models.CreditAccount, error)
	Deduct(ctx context.Context, userID string, amount int64, profileID string, reason models.CreditReason) (*models.CreditAccount, error)
	Grant(ctx context.Context, userID string, amount int64, reason models.CreditReason) (*models.CreditAccount, error)
	IsUnlocked(ctx context.Context, userID, profileID string) (bool, error)
}
