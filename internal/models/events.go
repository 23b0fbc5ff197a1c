package models

import (
	"time"
)

type EventType string

const (
	EventTypeProfileSubmitted       EventType = "profile.submitted"
	EventTypeProfileApproved        EventType = "profile.approved"
	EventTypeProfileRejected        EventType = "profile.rejected"
	EventTypeProfileAnonymityToggle EventType = "profile.anonymity.toggled"
	EventTypeCreditDeducted         EventType = "credit.deducted"
	EventTypeCreditGranted          EventType = "credit.granted"

	EventTypeUserRegistered EventType = "user.registered"
	EventTypeUserDeleted    EventType = "user.deleted"
)

type CandidateEvent struct {
	EventType EventType `json:"eventType"`
	ProfileID string    `json:"profileId"`
	UserID    string    `json:"userId"`
	AdminID   string    `json:"adminId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CreditEvent struct {
	EventType        EventType    `json:"eventType"`
	UserID           string       `json:"userId"`
	ProfileID        string       `json:"profileId,omitempty"`
	Delta            int64        `json:"delta"`
	ResultingBalance int64        `json:"resultingBalance"`
	Reason           CreditReason `json:"reason"`
	Timestamp        time.Time    `json:"timestamp"`
}

// Events consumed from the identity service's exchange.

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

type UserRegisterEvent struct {
	BaseEvent
	UserID      string            `json:"userId"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	ProfileData map[string]string `json:"profileData,omitempty"`
	Staging     *StagingMetadata  `json:"staging,omitempty"`
}

type UserDeletedEvent struct {
	BaseEvent
	UserID string `json:"userId"`
}
