package model

type AvailabilityQuery struct {
	Date      string `json:"date" validate:"required,date_only"`
	Duration  int    `json:"duration" validate:"required,min=1,max=1440"`
	PartySize int    `json:"partySize" validate:"required,min=1,max=100"`
}

type AvailableTables struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

// AvailableSlot is one bookable start time, e.g. "18:00 - 19:00".
type AvailableSlot struct {
	Time            string          `json:"time"`
	AvailableTables AvailableTables `json:"availableTables"`
}

type TableUsage struct {
	Unavailable int `json:"unavailable"`
	Available   int `json:"available"`
}

// HourlyTableStatus is the per-class usage of one hour of a service day.
type HourlyTableStatus struct {
	Time   string     `json:"time"`
	Small  TableUsage `json:"small"`
	Medium TableUsage `json:"medium"`
	Large  TableUsage `json:"large"`
}
