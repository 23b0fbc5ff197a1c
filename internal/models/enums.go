package models

type ReviewStatus string

const (
	ReviewStatusDraft         ReviewStatus = "draft"
	ReviewStatusPendingReview ReviewStatus = "pending_review"
	ReviewStatusApproved      ReviewStatus = "approved"
	ReviewStatusRejected      ReviewStatus = "rejected"
)

type ProcessingStatus string

const (
	ProcessingStatusNotStarted ProcessingStatus = "not_started"
	ProcessingStatusInProgress ProcessingStatus = "in_progress"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
)

// MigrationStep identifies one staging category that gets normalized
// during admin approval. Each step is committed independently.
type MigrationStep string

const (
	StepTags                 MigrationStep = "tags"
	StepWorkExperience       MigrationStep = "work_experience"
	StepEducation            MigrationStep = "education"
	StepDealExperience       MigrationStep = "deal_experience"
	StepBoardCommittees      MigrationStep = "board_committees"
	StepBoardExperienceTypes MigrationStep = "board_experience_types"
)

// MigrationSteps is the fixed processing order for approval migration.
var MigrationSteps = []MigrationStep{
	StepTags,
	StepWorkExperience,
	StepEducation,
	StepDealExperience,
	StepBoardCommittees,
	StepBoardExperienceTypes,
}

type CreditReason string

const (
	CreditReasonProfileUnlock CreditReason = "profile_unlock"
	CreditReasonAdminGrant    CreditReason = "admin_grant"
	CreditReasonPurchase      CreditReason = "purchase"
	CreditReasonAdjustment    CreditReason = "adjustment"
)

type AuditAction string

const (
	AuditActionSubmitted        AuditAction = "submitted"
	AuditActionApproved         AuditAction = "approved"
	AuditActionRejected         AuditAction = "rejected"
	AuditActionAnonymityToggled AuditAction = "anonymity_toggled"
	AuditActionMigrationWarning AuditAction = "migration_warning"
)
