package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

type PersonalInfo struct {
	FirstName   string `json:"firstName" bson:"firstName"`
	LastName    string `json:"lastName" bson:"lastName"`
	DisplayName string `json:"displayName,omitempty" bson:"displayName,omitempty"`
	Headline    string `json:"headline,omitempty" bson:"headline,omitempty"`
	Biography   string `json:"biography,omitempty" bson:"biography,omitempty"`
}

type ContactInfo struct {
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
	Location string `json:"location,omitempty" bson:"location,omitempty"`
}

type Metadata struct {
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// ProcessingState tracks which staging categories have been migrated into
// the normalized collections. CompletedSteps is the per-category claim set:
// a step is claimed before its rows are inserted and released if the insert
// fails, so a claimed step is never migrated by anyone else.
type ProcessingState struct {
	Status         ProcessingStatus `json:"status" bson:"status"`
	CompletedSteps []MigrationStep  `json:"completedSteps,omitempty" bson:"completedSteps,omitempty"`
}

func (p ProcessingState) StepCompleted(step MigrationStep) bool {
	for _, s := range p.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

type AuditEntry struct {
	AdminID   string      `json:"adminId,omitempty" bson:"adminId,omitempty"`
	Action    AuditAction `json:"action" bson:"action"`
	Reason    string      `json:"reason,omitempty" bson:"reason,omitempty"`
	Timestamp int64       `json:"timestamp" bson:"timestamp"`
}

type ModerationRecord struct {
	ReviewedBy       string       `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt       int64        `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	Reason           string       `json:"reason,omitempty" bson:"reason,omitempty"`
	AnonymityToggles int          `json:"anonymityToggles" bson:"anonymityToggles"`
	LastToggledAt    int64        `json:"lastToggledAt,omitempty" bson:"lastToggledAt,omitempty"`
	Audit            []AuditEntry `json:"audit,omitempty" bson:"audit,omitempty"`
}

type CandidateProfile struct {
	ID               bson.ObjectID    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID           string           `json:"userId" bson:"userId"`
	PersonalInfo     PersonalInfo     `json:"personalInfo" bson:"personalInfo"`
	ContactInfo      ContactInfo      `json:"contactInfo" bson:"contactInfo"`
	IsActive         bool             `json:"isActive" bson:"isActive"`
	ProfileCompleted bool             `json:"profileCompleted" bson:"profileCompleted"`
	IsAnonymized     bool             `json:"isAnonymized" bson:"isAnonymized"`
	ReviewStatus     ReviewStatus     `json:"reviewStatus" bson:"reviewStatus"`
	Staging          *StagingMetadata `json:"staging,omitempty" bson:"staging,omitempty"`
	Processing       ProcessingState  `json:"processing" bson:"processing"`
	Moderation       ModerationRecord `json:"moderation" bson:"moderation"`
	Metadata         Metadata         `json:"metadata" bson:"metadata"`
}

// Normalized sub-entities. These collections stay empty until approval
// migration runs for the owning profile.

type WorkExperience struct {
	ID          bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID   bson.ObjectID `json:"profileId" bson:"profileId"`
	Company     string        `json:"company" bson:"company"`
	Title       string        `json:"title" bson:"title"`
	StartYear   int           `json:"startYear,omitempty" bson:"startYear,omitempty"`
	EndYear     int           `json:"endYear,omitempty" bson:"endYear,omitempty"`
	Current     bool          `json:"current" bson:"current"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
}

type Education struct {
	ID          bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID   bson.ObjectID `json:"profileId" bson:"profileId"`
	Institution string        `json:"institution" bson:"institution"`
	Degree      string        `json:"degree,omitempty" bson:"degree,omitempty"`
	Field       string        `json:"field,omitempty" bson:"field,omitempty"`
	StartYear   int           `json:"startYear,omitempty" bson:"startYear,omitempty"`
	EndYear     int           `json:"endYear,omitempty" bson:"endYear,omitempty"`
}

type DealExperience struct {
	ID          bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID   bson.ObjectID `json:"profileId" bson:"profileId"`
	DealType    string        `json:"dealType" bson:"dealType"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	Year        int           `json:"year,omitempty" bson:"year,omitempty"`
}

type BoardCommittee struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID bson.ObjectID `json:"profileId" bson:"profileId"`
	Name      string        `json:"name" bson:"name"`
}

type BoardExperienceType struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID bson.ObjectID `json:"profileId" bson:"profileId"`
	Name      string        `json:"name" bson:"name"`
}

// Tag is the shared vocabulary; CandidateTag links a profile to it.
type Tag struct {
	ID   bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name string        `json:"name" bson:"name"`
}

type CandidateTag struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID bson.ObjectID `json:"profileId" bson:"profileId"`
	TagID     bson.ObjectID `json:"tagId" bson:"tagId"`
}
