package model

import "time"

const (
	StatusPending    = "pending"
	StatusCancelled  = "cancelled"
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

const (
	TableSmall  = "small"
	TableMedium = "medium"
	TableLarge  = "large"
)

// TableSizes lists the table classes in display order.
var TableSizes = []string{TableSmall, TableMedium, TableLarge}

type Reservation struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string    `json:"user" bson:"user_id"`
	RestaurantID  string    `json:"restaurant" bson:"restaurant_id"`
	Name          string    `json:"name,omitempty" bson:"name,omitempty"`
	Contact       string    `json:"contact,omitempty" bson:"contact,omitempty"`
	ResDate       string    `json:"resDate" bson:"res_date"`
	ResStartTime  string    `json:"resStartTime" bson:"res_start_time"`
	ResEndTime    string    `json:"resEndTime" bson:"res_end_time"`
	DurationMin   int       `json:"duration" bson:"duration_min"`
	TableSize     string    `json:"tableSize" bson:"table_size"`
	PartySize     int       `json:"partySize,omitempty" bson:"party_size,omitempty"`
	Status        string    `json:"status" bson:"status"`
	LockedByAdmin bool      `json:"lockedByAdmin" bson:"locked_by_admin"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// IsLive reports whether the reservation counts toward its owner's booking cap.
func (r *Reservation) IsLive() bool {
	return r.Status == StatusPending && !r.LockedByAdmin
}

type CreateReservationRequest struct {
	UserID       string `json:"user,omitempty" validate:"omitempty,mongodb"`
	Name         string `json:"name,omitempty" validate:"omitempty,max=100"`
	Contact      string `json:"contact,omitempty" validate:"omitempty,max=15"`
	ResDate      string `json:"resDate" validate:"required,date_only"`
	ResStartTime string `json:"resStartTime" validate:"required,hhmm"`
	Duration     int    `json:"duration" validate:"required,min=1,max=1440"`
	TableSize    string `json:"tableSize,omitempty" validate:"omitempty,table_size"`
	PartySize    int    `json:"partySize,omitempty" validate:"omitempty,min=1,max=100"`
}

type UpdateReservationRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Contact      *string `json:"contact,omitempty" validate:"omitempty,max=15"`
	ResDate      *string `json:"resDate,omitempty" validate:"omitempty,date_only"`
	ResStartTime *string `json:"resStartTime,omitempty" validate:"omitempty,hhmm"`
	Duration     *int    `json:"duration,omitempty" validate:"omitempty,min=1,max=1440"`
	TableSize    *string `json:"tableSize,omitempty" validate:"omitempty,table_size"`
	PartySize    *int    `json:"partySize,omitempty" validate:"omitempty,min=1,max=100"`
}

// ChangesSchedule reports whether the update touches the time window or table class.
func (u *UpdateReservationRequest) ChangesSchedule() bool {
	return u.ResDate != nil || u.ResStartTime != nil || u.Duration != nil || u.TableSize != nil || u.PartySize != nil
}

// ReservationFilter narrows a reservation listing. Empty fields match all.
type ReservationFilter struct {
	UserID       string
	RestaurantID string
}

// CompletionResult is returned when an administrator completes a reservation.
type CompletionResult struct {
	Reservation *Reservation `json:"reservation"`
	Settled     bool         `json:"settled"`
	NewBalance  *int         `json:"currentPoints,omitempty"`
}
