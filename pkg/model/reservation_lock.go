package model

import "time"

// ReservationLock is an advisory lock document. Its _id is the lock key and a
// TTL index on expires_at reaps locks left behind by crashed requests.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
