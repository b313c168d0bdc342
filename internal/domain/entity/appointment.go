package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidStatus = errors.New("status must be one of scheduled, completed, cancelled")

// AppointmentStatus is the closed set of appointment lifecycle states.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(s) {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return AppointmentStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransitionTo reports whether a status change is allowed. Only scheduled
// appointments move, and only to a terminal state.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s != AppointmentStatusScheduled {
		return false
	}
	return next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
}

// Appointment is a booked slot between a doctor and a patient.
type Appointment struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	AppointmentDate time.Time         `gorm:"type:date;not null" json:"appointment_date"`
	StartTime       ClockTime         `gorm:"type:time;not null" json:"start_time"`
	EndTime         ClockTime         `gorm:"type:time;not null" json:"end_time"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// HasParticipant reports whether userID is the doctor or the patient.
func (a *Appointment) HasParticipant(userID uuid.UUID) bool {
	return a.DoctorID == userID || a.PatientID == userID
}

// Occupies reports whether the appointment blocks [start, end).
func (a *Appointment) Occupies(start, end ClockTime) bool {
	return !a.IsCancelled() && Overlaps(a.StartTime, a.EndTime, start, end)
}

// AppointmentFilter narrows appointment listings. Zero dates mean unbounded.
type AppointmentFilter struct {
	StartDate time.Time
	EndDate   time.Time
}
