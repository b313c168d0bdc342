package entity

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityWindow is a weekly recurring interval during which a doctor
// accepts appointments. Weekday uses Monday = 0 through Sunday = 6.
type AvailabilityWindow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index:idx_availability_doctor_weekday" json:"doctor_id"`
	Weekday   int       `gorm:"column:day_of_week;type:smallint;not null;index:idx_availability_doctor_weekday" json:"day_of_week"`
	StartTime ClockTime `gorm:"type:time;not null" json:"start_time"`
	EndTime   ClockTime `gorm:"type:time;not null" json:"end_time"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AvailabilityWindow) TableName() string {
	return "availability_windows"
}

// Valid reports whether the window has a legal weekday and a positive length.
func (w *AvailabilityWindow) Valid() bool {
	return w.Weekday >= 0 && w.Weekday <= 6 && w.EndTime > w.StartTime
}

// OverlapsWith reports whether both windows fall on the same weekday and
// intersect in time.
func (w *AvailabilityWindow) OverlapsWith(o *AvailabilityWindow) bool {
	return w.Weekday == o.Weekday && Overlaps(w.StartTime, w.EndTime, o.StartTime, o.EndTime)
}

// Fits reports whether [start, end) lies entirely inside the window.
func (w *AvailabilityWindow) Fits(start, end ClockTime) bool {
	return Contains(w.StartTime, w.EndTime, start, end)
}
