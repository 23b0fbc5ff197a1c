package models

type CreateCandidateRequest struct {
	UserID       string           `json:"userId"`
	PersonalInfo PersonalInfo     `json:"personalInfo"`
	ContactInfo  ContactInfo      `json:"contactInfo"`
	Staging      *StagingMetadata `json:"staging,omitempty"`
}

type ModerationRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AnonymityToggleResult struct {
	Previous bool `json:"previous"`
	Current  bool `json:"current"`
}

type DeductRequest struct {
	Amount    int64        `json:"amount"`
	ProfileID string       `json:"profileId,omitempty"`
	Reason    CreditReason `json:"reason"`
}

type GrantRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

type DeductResult struct {
	Balance int64 `json:"balance"`
	Charged bool  `json:"charged"`
}

type CandidateSearchQuery struct {
	Name      string `query:"name"`
	Tag       string `query:"tag"`
	Committee string `query:"committee"`
	DealType  string `query:"dealType"`
	Page      int    `query:"page"`
	PageSize  int    `query:"pageSize"`
}

// CandidateCard is the anonymization-aware projection used by search and by
// profile views for companies that have not unlocked the candidate.
type CandidateCard struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName,omitempty"`
	Headline     string `json:"headline,omitempty"`
	Biography    string `json:"biography,omitempty"`
	Location     string `json:"location,omitempty"`
	IsAnonymized bool   `json:"isAnonymized"`
	Unlocked     bool   `json:"unlocked"`
}

type CandidateSearchResult struct {
	Candidates  []CandidateCard `json:"candidates"`
	TotalCount  int64           `json:"totalCount"`
	PageCount   int             `json:"pageCount"`
	CurrentPage int             `json:"currentPage"`
}
