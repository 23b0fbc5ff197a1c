package service

import (
	"context"
	"fmt"
	"strings"

	"board-champions/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SearchService is the read facade over active profiles. Results are
// anonymization-aware: a company sees identifying details only for
// profiles it has unlocked.
type SearchService struct {
	profiles   ProfileStore
	normalized NormalizedStore
	credits    *CreditService
}

func NewSearchService(profiles ProfileStore, normalized NormalizedStore, credits *CreditService) *SearchService {
	return &SearchService{
		profiles:   profiles,
		normalized: normalized,
		credits:    credits,
	}
}

func (s *SearchService) Search(ctx context.Context, query *models.CandidateSearchQuery, viewerID string) (*models.CandidateSearchResult, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 || query.PageSize > 50 {
		query.PageSize = 20
	}

	restrictToIDs, err := s.restrictionFilter(ctx, query)
	if err != nil {
		return nil, err
	}
	if restrictToIDs != nil && len(restrictToIDs) == 0 {
		return &models.CandidateSearchResult{
			Candidates:  []models.CandidateCard{},
			CurrentPage: query.Page,
		}, nil
	}

	profiles, totalCount, err := s.profiles.SearchActive(ctx, query, restrictToIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}

	cards := make([]models.CandidateCard, 0, len(profiles))
	for _, profile := range profiles {
		unlocked := false
		if viewerID != "" {
			unlocked, err = s.credits.IsUnlocked(ctx, viewerID, profile.ID.Hex())
			if err != nil {
				return nil, err
			}
		}
		cards = append(cards, BuildCard(profile, unlocked))
	}

	pageCount := int((totalCount + int64(query.PageSize) - 1) / int64(query.PageSize))

	return &models.CandidateSearchResult{
		Candidates:  cards,
		TotalCount:  totalCount,
		PageCount:   pageCount,
		CurrentPage: query.Page,
	}, nil
}

// restrictionFilter resolves normalized-collection filters into a profile
// id set. Returns nil when no such filter applies, and an empty non-nil
// slice when a filter matched nothing.
func (s *SearchService) restrictionFilter(ctx context.Context, query *models.CandidateSearchQuery) ([]bson.ObjectID, error) {
	var sets [][]bson.ObjectID

	if query.Tag != "" {
		ids, err := s.normalized.ProfileIDsByTag(ctx, query.Tag)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ids)
	}
	if query.Committee != "" {
		ids, err := s.normalized.ProfileIDsByCommittee(ctx, query.Committee)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ids)
	}
	if query.DealType != "" {
		ids, err := s.normalized.ProfileIDsByDealType(ctx, query.DealType)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ids)
	}

	if len(sets) == 0 {
		return nil, nil
	}

	result := sets[0]
	for _, set := range sets[1:] {
		result = intersect(result, set)
	}
	if result == nil {
		result = []bson.ObjectID{}
	}
	return result, nil
}

func intersect(a, b []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	out := make([]bson.ObjectID, 0, len(b))
	for _, id := range b {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// BuildCard projects a profile into what the viewer is allowed to see.
// Identifying details are hidden for anonymized profiles until unlocked.
func BuildCard(profile *models.CandidateProfile, unlocked bool) models.CandidateCard {
	card := models.CandidateCard{
		ID:           profile.ID.Hex(),
		Headline:     profile.PersonalInfo.Headline,
		Biography:    profile.PersonalInfo.Biography,
		Location:     profile.ContactInfo.Location,
		IsAnonymized: profile.IsAnonymized,
		Unlocked:     unlocked,
	}

	if !profile.IsAnonymized || unlocked {
		card.DisplayName = displayName(profile)
	}

	return card
}

func displayName(profile *models.CandidateProfile) string {
	if profile.PersonalInfo.DisplayName != "" {
		return profile.PersonalInfo.DisplayName
	}
	return strings.TrimSpace(profile.PersonalInfo.FirstName + " " + profile.PersonalInfo.LastName)
}
