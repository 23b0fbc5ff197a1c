package repository

import (
	"context"
	"fmt"
	"time"

	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CreditRepository stores one ledger document per user. Every balance
// mutation is a single conditional document update, so the balance guard,
// the decrement, the history append and the unlocked-set insert are one
// atomic unit; a concurrent caller either sees the whole mutation or none
// of it.
type CreditRepository struct {
	collection *mongo.Collection
}

func NewCreditRepository(db *mongo.Database) *CreditRepository {
	return &CreditRepository{
		collection: db.Collection("user_credits"),
	}
}

func (r *CreditRepository) FindByUserID(ctx context.Context, userID string) (*models.CreditAccount, error) {
	var account models.CreditAccount
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindOrCreate lazily creates a zero-balance account on first access.
func (r *CreditRepository) FindOrCreate(ctx context.Context, userID string) (*models.CreditAccount, error) {
	currentTime := time.Now().Unix()
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                bson.NewObjectID(),
			"userId":             userID,
			"creditBalance":      int64(0),
			"unlockedProfileIds": []string{},
			"creditHistory":      []models.CreditHistoryEntry{},
			"metadata":           models.Metadata{CreatedAt: currentTime, UpdatedAt: currentTime},
		},
	}

	opts := options.UpdateOne().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update, opts); err != nil {
		return nil, fmt.Errorf("failed to ensure credit account: %w", err)
	}

	return r.FindByUserID(ctx, userID)
}

// Deduct atomically checks the balance, decrements it, appends exactly one
// history entry and, for unlock deductions, adds the profile to the
// unlocked set. The filter rejects the update when the balance is too low
// or the profile is already unlocked; the caller distinguishes the two by
// re-reading the account.
func (r *CreditRepository) Deduct(ctx context.Context, userID string, amount int64, profileID string, reason models.CreditReason) (*models.CreditAccount, error) {
	currentTime := time.Now().Unix()

	filter := bson.M{
		"userId":        userID,
		"creditBalance": bson.M{"$gte": amount},
	}
	isUnlock := reason == models.CreditReasonProfileUnlock
	if isUnlock {
		filter["unlockedProfileIds"] = bson.M{"$ne": profileID}
	}

	newBalance := bson.M{"$subtract": bson.A{"$creditBalance", amount}}
	entry := bson.M{
		"timestamp":        currentTime,
		"delta":            -amount,
		"resultingBalance": newBalance,
		"reason":           reason,
		"profileId":        profileID,
	}

	set := bson.M{
		"creditBalance": newBalance,
		"creditHistory": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$creditHistory", bson.A{}}},
			bson.A{entry},
		}},
		"metadata.updatedAt": currentTime,
	}
	if isUnlock {
		set["unlockedProfileIds"] = bson.M{"$setUnion": bson.A{
			bson.M{"$ifNull": bson.A{"$unlockedProfileIds", bson.A{}}},
			bson.A{profileID},
		}}
	}

	update := mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account models.CreditAccount
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if err == nil {
		return &account, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to deduct credits: %w", err)
	}

	// The guard rejected the update. Re-read to report why.
	existing, findErr := r.FindByUserID(ctx, userID)
	if findErr != nil {
		return nil, findErr
	}
	if isUnlock && existing.HasUnlocked(profileID) {
		return existing, models.ErrAlreadyUnlocked
	}
	return existing, models.ErrInsufficientCredits
}

// Grant atomically increments the balance and appends one history entry.
func (r *CreditRepository) Grant(ctx context.Context, userID string, amount int64, reason models.CreditReason) (*models.CreditAccount, error) {
	currentTime := time.Now().Unix()

	newBalance := bson.M{"$add": bson.A{"$creditBalance", amount}}
	entry := bson.M{
		"timestamp":        currentTime,
		"delta":            amount,
		"resultingBalance": newBalance,
		"reason":           reason,
	}

	update := mongo.Pipeline{bson.D{{Key: "$set", Value: bson.M{
		"creditBalance": newBalance,
		"creditHistory": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$creditHistory", bson.A{}}},
			bson.A{entry},
		}},
		"metadata.updatedAt": currentTime,
	}}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account models.CreditAccount
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to grant credits: %w", err)
	}
	return &account, nil
}

func (r *CreditRepository) IsUnlocked(ctx context.Context, userID, profileID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"userId":             userID,
		"unlockedProfileIds": profileID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check unlock: %w", err)
	}
	return count > 0, nil
}

func (r *CreditRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "unlockedProfileIds", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create credit indexes: %w", err)
	}

	return nil
}
