package entity

// TimeSlot is a derived bookable interval. It is never stored.
type TimeSlot struct {
	StartTime   ClockTime `json:"start_time"`
	EndTime     ClockTime `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
}
