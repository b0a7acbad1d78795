package model

import "time"

const (
	TransactionEarn   = "earn"
	TransactionRedeem = "redeem"

	SourceReservation = "reservation"
	SourceReward      = "reward"
)

// PointTransaction is an append-only ledger entry. It is never updated.
type PointTransaction struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user" bson:"user_id"`
	Type      string    `json:"type" bson:"type"`
	Source    string    `json:"source" bson:"source"`
	SourceID  string    `json:"sourceId" bson:"source_id"`
	Amount    int       `json:"amount" bson:"amount"`
	Message   string    `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// SettlementResult describes the outcome of crediting a completed reservation.
type SettlementResult struct {
	NewBalance     int  `json:"currentPoints"`
	AlreadySettled bool `json:"alreadySettled"`
}
