package model

import "time"

type Restaurant struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Address     string    `json:"address" bson:"address" validate:"required,max=200"`
	District    string    `json:"district" bson:"district" validate:"required,max=100"`
	Province    string    `json:"province" bson:"province" validate:"required,max=100"`
	PostalCode  string    `json:"postalcode" bson:"postal_code" validate:"required,max=5,numeric"`
	Tel         string    `json:"tel" bson:"tel" validate:"required,e164"`
	Region      string    `json:"region" bson:"region" validate:"required,max=100"`
	OpenTime    string    `json:"opentime" bson:"open_time" validate:"required,hhmm"`
	CloseTime   string    `json:"closetime" bson:"close_time" validate:"required,hhmm"`
	SmallTable  int       `json:"smallTable" bson:"small_tables" validate:"min=0"`
	MediumTable int       `json:"mediumTable" bson:"medium_tables" validate:"min=0"`
	LargeTable  int       `json:"largeTable" bson:"large_tables" validate:"min=0"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

type RestaurantUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=200"`
	District    *string `json:"district,omitempty" validate:"omitempty,max=100"`
	Province    *string `json:"province,omitempty" validate:"omitempty,max=100"`
	PostalCode  *string `json:"postalcode,omitempty" validate:"omitempty,max=5,numeric"`
	Tel         *string `json:"tel,omitempty"`
	Region      *string `json:"region,omitempty" validate:"omitempty,max=100"`
	OpenTime    *string `json:"opentime,omitempty" validate:"omitempty,hhmm"`
	CloseTime   *string `json:"closetime,omitempty" validate:"omitempty,hhmm"`
	SmallTable  *int    `json:"smallTable,omitempty" validate:"omitempty,min=0"`
	MediumTable *int    `json:"mediumTable,omitempty" validate:"omitempty,min=0"`
	LargeTable  *int    `json:"largeTable,omitempty" validate:"omitempty,min=0"`
}
