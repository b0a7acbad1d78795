package model

import "time"

type Notification struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user" bson:"user_id"`
	Title     string    `json:"title" bson:"title" validate:"required,max=100"`
	Message   string    `json:"message" bson:"message" validate:"required,max=1000"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type CreateNotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
