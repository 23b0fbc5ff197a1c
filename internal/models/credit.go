package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CreditAccount is the row-per-user credit ledger. The history log is the
// source of truth: the stored balance must always equal the sum of all
// history deltas, replayed from zero.
type CreditAccount struct {
	ID                 bson.ObjectID        `json:"id,omitempty" bson:"_id,omitempty"`
	UserID             string               `json:"userId" bson:"userId"`
	CreditBalance      int64                `json:"creditBalance" bson:"creditBalance"`
	UnlockedProfileIDs []string             `json:"unlockedProfileIds,omitempty" bson:"unlockedProfileIds,omitempty"`
	CreditHistory      []CreditHistoryEntry `json:"creditHistory,omitempty" bson:"creditHistory,omitempty"`
	Metadata           Metadata             `json:"metadata" bson:"metadata"`
}

type CreditHistoryEntry struct {
	Timestamp        int64        `json:"timestamp" bson:"timestamp"`
	Delta            int64        `json:"delta" bson:"delta"`
	ResultingBalance int64        `json:"resultingBalance" bson:"resultingBalance"`
	Reason           CreditReason `json:"reason" bson:"reason"`
	ProfileID        string       `json:"profileId,omitempty" bson:"profileId,omitempty"`
}

func (a *CreditAccount) HasUnlocked(profileID string) bool {
	for _, id := range a.UnlockedProfileIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// ReplayBalance recomputes the balance from the history log alone. Used as
// a consistency check.
func (a *CreditAccount) ReplayBalance() int64 {
	var balance int64
	for _, entry := range a.CreditHistory {
		balance += entry.Delta
	}
	return balance
}
