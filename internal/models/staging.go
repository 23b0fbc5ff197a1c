package models

// StagingMetadata is the self-reported data captured at signup, before any
// admin has looked at it. It is a typed, versioned schema so the approval
// migration can transform by category instead of probing loose JSON fields.
type StagingMetadata struct {
	Version              int                    `json:"version" bson:"version"`
	WorkExperience       []StagedWorkExperience `json:"workExperience,omitempty" bson:"workExperience,omitempty"`
	Education            []StagedEducation      `json:"education,omitempty" bson:"education,omitempty"`
	DealExperience       []StagedDealExperience `json:"dealExperience,omitempty" bson:"dealExperience,omitempty"`
	BoardCommittees      []string               `json:"boardCommittees,omitempty" bson:"boardCommittees,omitempty"`
	BoardExperienceTypes []string               `json:"boardExperienceTypes,omitempty" bson:"boardExperienceTypes,omitempty"`
	Tags                 []string               `json:"tags,omitempty" bson:"tags,omitempty"`
}

const StagingSchemaVersion = 1

type StagedWorkExperience struct {
	Company     string `json:"company" bson:"company"`
	Title       string `json:"title" bson:"title"`
	StartYear   int    `json:"startYear,omitempty" bson:"startYear,omitempty"`
	EndYear     int    `json:"endYear,omitempty" bson:"endYear,omitempty"`
	Current     bool   `json:"current" bson:"current"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

type StagedEducation struct {
	Institution string `json:"institution" bson:"institution"`
	Degree      string `json:"degree,omitempty" bson:"degree,omitempty"`
	Field       string `json:"field,omitempty" bson:"field,omitempty"`
	StartYear   int    `json:"startYear,omitempty" bson:"startYear,omitempty"`
	EndYear     int    `json:"endYear,omitempty" bson:"endYear,omitempty"`
}

type StagedDealExperience struct {
	DealType    string `json:"dealType" bson:"dealType"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Year        int    `json:"year,omitempty" bson:"year,omitempty"`
}

func (w StagedWorkExperience) Normalize(profile *CandidateProfile) WorkExperience {
	return WorkExperience{
		ProfileID:   profile.ID,
		Company:     w.Company,
		Title:       w.Title,
		StartYear:   w.StartYear,
		EndYear:     w.EndYear,
		Current:     w.Current,
		Description: w.Description,
	}
}

func (e StagedEducation) Normalize(profile *CandidateProfile) Education {
	return Education{
		ProfileID:   profile.ID,
		Institution: e.Institution,
		Degree:      e.Degree,
		Field:       e.Field,
		StartYear:   e.StartYear,
		EndYear:     e.EndYear,
	}
}

func (d StagedDealExperience) Normalize(profile *CandidateProfile) DealExperience {
	return DealExperience{
		ProfileID:   profile.ID,
		DealType:    d.DealType,
		Description: d.Description,
		Year:        d.Year,
	}
}
