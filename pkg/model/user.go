package model

import "time"

type User struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	Tel           string    `json:"tel,omitempty" bson:"tel,omitempty"`
	Role          string    `json:"role" bson:"role"`
	CurrentPoints int       `json:"currentPoints" bson:"current_points"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// UserPoints is the public view of a user's loyalty balance.
type UserPoints struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Tel           string `json:"tel,omitempty"`
	CurrentPoints int    `json:"currentPoints"`
}
