package repository

import (
	"context"
	"fmt"

	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NormalizedRepository owns the child collections populated exclusively by
// approval migration: work experience, education, deal experience, board
// committees, board experience types and the shared tag vocabulary.
type NormalizedRepository struct {
	workExperiences      *mongo.Collection
	educations           *mongo.Collection
	dealExperiences      *mongo.Collection
	boardCommittees      *mongo.Collection
	boardExperienceTypes *mongo.Collection
	tags                 *mongo.Collection
	candidateTags        *mongo.Collection
}

func NewNormalizedRepository(db *mongo.Database) *NormalizedRepository {
	return &NormalizedRepository{
		workExperiences:      db.Collection("work_experiences"),
		educations:           db.Collection("educations"),
		dealExperiences:      db.Collection("deal_experiences"),
		boardCommittees:      db.Collection("board_committees"),
		boardExperienceTypes: db.Collection("board_experience_types"),
		tags:                 db.Collection("tags"),
		candidateTags:        db.Collection("candidate_tags"),
	}
}

func (r *NormalizedRepository) InsertWorkExperiences(ctx context.Context, rows []models.WorkExperience) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = bson.NewObjectID()
		}
		docs = append(docs, rows[i])
	}
	if _, err := r.workExperiences.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert work experiences: %w", err)
	}
	return nil
}

func (r *NormalizedRepository) InsertEducations(ctx context.Context, rows []models.Education) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = bson.NewObjectID()
		}
		docs = append(docs, rows[i])
	}
	if _, err := r.educations.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert educations: %w", err)
	}
	return nil
}

func (r *NormalizedRepository) InsertDealExperiences(ctx context.Context, rows []models.DealExperience) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = bson.NewObjectID()
		}
		docs = append(docs, rows[i])
	}
	if _, err := r.dealExperiences.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert deal experiences: %w", err)
	}
	return nil
}

func (r *NormalizedRepository) InsertBoardCommittees(ctx context.Context, rows []models.BoardCommittee) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = bson.NewObjectID()
		}
		docs = append(docs, rows[i])
	}
	if _, err := r.boardCommittees.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert board committees: %w", err)
	}
	return nil
}

func (r *NormalizedRepository) InsertBoardExperienceTypes(ctx context.Context, rows []models.BoardExperienceType) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = bson.NewObjectID()
		}
		docs = append(docs, rows[i])
	}
	if _, err := r.boardExperienceTypes.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert board experience types: %w", err)
	}
	return nil
}

// EnsureTags upserts vocabulary entries by name and returns their ids in
// input order.
func (r *NormalizedRepository) EnsureTags(ctx context.Context, names []string) ([]bson.ObjectID, error) {
	ids := make([]bson.ObjectID, 0, len(names))
	for _, name := range names {
		filter := bson.M{"name": name}
		update := bson.M{"$setOnInsert": bson.M{"_id": bson.NewObjectID(), "name": name}}
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

		var tag models.Tag
		if err := r.tags.FindOneAndUpdate(ctx, filter, update, opts).Decode(&tag); err != nil {
			return nil, fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (r *NormalizedRepository) InsertCandidateTags(ctx context.Context, profileID bson.ObjectID, tagIDs []bson.ObjectID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		docs = append(docs, models.CandidateTag{
			ID:        bson.NewObjectID(),
			ProfileID: profileID,
			TagID:     tagID,
		})
	}
	if _, err := r.candidateTags.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert candidate tags: %w", err)
	}
	return nil
}

func (r *NormalizedRepository) ProfileIDsByTag(ctx context.Context, tagName string) ([]bson.ObjectID, error) {
	var tag models.Tag
	err := r.tags.FindOne(ctx, bson.M{"name": tagName}).Decode(&tag)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return []bson.ObjectID{}, nil
		}
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}

	cursor, err := r.candidateTags.Find(ctx, bson.M{"tagId": tag.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate tags: %w", err)
	}
	defer cursor.Close(ctx)

	var links []models.CandidateTag
	if err = cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode candidate tags: %w", err)
	}

	ids := make([]bson.ObjectID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ProfileID)
	}
	return ids, nil
}

func (r *NormalizedRepository) ProfileIDsByCommittee(ctx context.Context, name string) ([]bson.ObjectID, error) {
	return r.profileIDs(ctx, r.boardCommittees, bson.M{"name": bson.M{"$regex": name, "$options": "i"}})
}

func (r *NormalizedRepository) ProfileIDsByDealType(ctx context.Context, dealType string) ([]bson.ObjectID, error) {
	return r.profileIDs(ctx, r.dealExperiences, bson.M{"dealType": bson.M{"$regex": dealType, "$options": "i"}})
}

func (r *NormalizedRepository) profileIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]bson.ObjectID, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ProfileID bson.ObjectID `bson:"profileId"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}

	ids := make([]bson.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProfileID)
	}
	return ids, nil
}

func (r *NormalizedRepository) CreateIndexes(ctx context.Context) error {
	byProfile := []mongo.IndexModel{{Keys: bson.D{{Key: "profileId", Value: 1}}}}

	for _, coll := range []*mongo.Collection{
		r.workExperiences,
		r.educations,
		r.dealExperiences,
		r.boardCommittees,
		r.boardExperienceTypes,
		r.candidateTags,
	} {
		if _, err := coll.Indexes().CreateMany(ctx, byProfile); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
		}
	}

	tagIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.tags.Indexes().CreateMany(ctx, tagIndexes); err != nil {
		return fmt.Errorf("failed to create tag indexes: %w", err)
	}

	return nil
}
