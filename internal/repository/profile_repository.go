package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ProfileRepository struct {
	collection *mongo.Collection
	mu         *sync.Mutex
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		collection: db.Collection("candidate_profiles"),
		mu:         &sync.Mutex{},
	}
}

func (r *ProfileRepository) New(ctx context.Context, profile *models.CandidateProfile) (*models.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.ID.IsZero() {
		profile.ID = bson.NewObjectID()
	}
	if profile.ReviewStatus == "" {
		profile.ReviewStatus = models.ReviewStatusDraft
	}
	if profile.Processing.Status == "" {
		profile.Processing.Status = models.ProcessingStatusNotStarted
	}

	currentTime := time.Now().Unix()
	if profile.Metadata.CreatedAt == 0 {
		profile.Metadata.CreatedAt = currentTime
	}
	profile.Metadata.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.CandidateProfile, error) {
	var profile models.CandidateProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error) {
	var profile models.CandidateProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) MarkSubmitted(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	update := bson.M{
		"$set": bson.M{
			"profileCompleted":   true,
			"reviewStatus":       models.ReviewStatusPendingReview,
			"metadata.updatedAt": time.Now().Unix(),
		},
		"$push": bson.M{"moderation.audit": entry},
	}

	return r.updateOne(ctx, id, update)
}

// ClaimStep records the per-category marker, but only when no other
// approval has recorded it yet. The filter makes the check-and-claim one
// conditional update: of two concurrent approvals exactly one claims a
// given category, the other sees false and skips it.
func (r *ProfileRepository) ClaimStep(ctx context.Context, id bson.ObjectID, step models.MigrationStep) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filter := bson.M{
		"_id":                       id,
		"processing.completedSteps": bson.M{"$ne": step},
	}
	update := bson.M{
		"$addToSet": bson.M{"processing.completedSteps": step},
		"$set": bson.M{
			"processing.status":  models.ProcessingStatusInProgress,
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim migration step: %w", err)
	}
	return result.MatchedCount == 1, nil
}

// ReleaseStep withdraws a claimed marker after the category's inserts
// failed, so a later approval can retry the category.
func (r *ProfileRepository) ReleaseStep(ctx context.Context, id bson.ObjectID, step models.MigrationStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	update := bson.M{
		"$pull": bson.M{"processing.completedSteps": step},
		"$set":  bson.M{"metadata.updatedAt": time.Now().Unix()},
	}

	return r.updateOne(ctx, id, update)
}

func (r *ProfileRepository) MarkApproved(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentTime := time.Now().Unix()
	update := bson.M{
		"$set": bson.M{
			"isActive":              true,
			"profileCompleted":      true,
			"reviewStatus":          models.ReviewStatusApproved,
			"processing.status":     models.ProcessingStatusCompleted,
			"moderation.reviewedBy": entry.AdminID,
			"moderation.reviewedAt": entry.Timestamp,
			"moderation.reason":     entry.Reason,
			"metadata.updatedAt":    currentTime,
		},
		"$push": bson.M{"moderation.audit": entry},
	}

	return r.updateOne(ctx, id, update)
}

func (r *ProfileRepository) MarkRejected(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentTime := time.Now().Unix()
	update := bson.M{
		"$set": bson.M{
			"isActive":              false,
			"reviewStatus":          models.ReviewStatusRejected,
			"moderation.reviewedBy": entry.AdminID,
			"moderation.reviewedAt": entry.Timestamp,
			"moderation.reason":     entry.Reason,
			"metadata.updatedAt":    currentTime,
		},
		"$push": bson.M{"moderation.audit": entry},
	}

	return r.updateOne(ctx, id, update)
}

func (r *ProfileRepository) AppendAudit(ctx context.Context, id bson.ObjectID, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	update := bson.M{
		"$push": bson.M{"moderation.audit": entry},
		"$set":  bson.M{"metadata.updatedAt": time.Now().Unix()},
	}

	return r.updateOne(ctx, id, update)
}

func (r *ProfileRepository) SetAnonymized(ctx context.Context, id bson.ObjectID, anonymized bool, entry models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentTime := time.Now().Unix()
	update := bson.M{
		"$set": bson.M{
			"isAnonymized":             anonymized,
			"moderation.lastToggledAt": currentTime,
			"metadata.updatedAt":       currentTime,
		},
		"$inc":  bson.M{"moderation.anonymityToggles": 1},
		"$push": bson.M{"moderation.audit": entry},
	}

	return r.updateOne(ctx, id, update)
}

func (r *ProfileRepository) DeactivateByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	update := bson.M{
		"$set": bson.M{
			"isActive":           false,
			"metadata.updatedAt": time.Now().Unix(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SearchActive queries visible profiles only. The isActive filter is not
// optional: inactive profiles must never be searchable.
func (r *ProfileRepository) SearchActive(ctx context.Context, query *models.CandidateSearchQuery, restrictToIDs []bson.ObjectID) ([]*models.CandidateProfile, int64, error) {
	filter := bson.M{"isActive": true}

	if query.Name != "" {
		filter["$or"] = []bson.M{
			{"personalInfo.firstName": bson.M{"$regex": query.Name, "$options": "i"}},
			{"personalInfo.lastName": bson.M{"$regex": query.Name, "$options": "i"}},
			{"personalInfo.displayName": bson.M{"$regex": query.Name, "$options": "i"}},
		}
	}

	if restrictToIDs != nil {
		filter["_id"] = bson.M{"$in": restrictToIDs}
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	opts := options.Find()
	opts.SetSort(bson.M{"metadata.createdAt": -1})
	opts.SetSkip(int64((query.Page - 1) * query.PageSize))
	opts.SetLimit(int64(query.PageSize))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []*models.CandidateProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, 0, fmt.Errorf("failed to decode profiles: %w", err)
	}

	return profiles, totalCount, nil
}

func (r *ProfileRepository) FindPendingReview(ctx context.Context, page, limit int) ([]*models.CandidateProfile, error) {
	filter := bson.M{"reviewStatus": models.ReviewStatusPendingReview}

	opts := options.Find()
	opts.SetSort(bson.M{"metadata.updatedAt": 1})
	opts.SetSkip(int64((page - 1) * limit))
	opts.SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []*models.CandidateProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	return profiles, nil
}

func (r *ProfileRepository) updateOne(ctx context.Context, id bson.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "reviewStatus", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "personalInfo.displayName", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "metadata.createdAt", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create profile indexes: %w", err)
	}

	return nil
}
