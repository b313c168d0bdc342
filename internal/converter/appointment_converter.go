package converter

import (
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// Doctor and patient names are filled only when the relations were loaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	resp := &dto.AppointmentResponse{
		ID:              appointment.ID,
		DoctorID:        appointment.DoctorID,
		PatientID:       appointment.PatientID,
		AppointmentDate: appointment.AppointmentDate.Format(entity.DateLayout),
		StartTime:       appointment.StartTime.String(),
		EndTime:         appointment.EndTime.String(),
		Status:          string(appointment.Status),
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
	if appointment.Doctor != nil {
		resp.DoctorName = appointment.Doctor.FullName
	}
	if appointment.Patient != nil {
		resp.PatientName = appointment.Patient.FullName
	}
	return resp
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

// SlotsToAvailabilityDate builds the slot listing for one doctor and date.
func SlotsToAvailabilityDate(doctorID uuid.UUID, date time.Time, slots []entity.TimeSlot) *dto.AvailabilityDateResponse {
	timeSlots := make([]dto.TimeSlotResponse, len(slots))
	for i, slot := range slots {
		timeSlots[i] = dto.TimeSlotResponse{
			StartTime:   slot.StartTime.String(),
			EndTime:     slot.EndTime.String(),
			IsAvailable: slot.IsAvailable,
		}
	}

	return &dto.AvailabilityDateResponse{
		DoctorID:  doctorID,
		Date:      date.Format(entity.DateLayout),
		TimeSlots: timeSlots,
	}
}
