package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctor_id" validate:"required,uuid"`
	AppointmentDate string `json:"appointment_date" validate:"required,date"` // Format: YYYY-MM-DD
	StartTime       string `json:"start_time" validate:"required,clock"`      // Format: HH:MM
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AppointmentListRequest is read from the query string.
type AppointmentListRequest struct {
	StartDate string `validate:"omitempty,date"`
	EndDate   string `validate:"omitempty,date"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              int64     `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name,omitempty"`
	AppointmentDate string    `json:"appointment_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type TimeSlotResponse struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

type AvailabilityDateResponse struct {
	DoctorID  uuid.UUID          `json:"doctor_id"`
	Date      string             `json:"date"`
	TimeSlots []TimeSlotResponse `json:"time_slots"`
}
