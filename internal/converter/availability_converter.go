package converter

import (
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
)

func AvailabilityToResponse(window *entity.AvailabilityWindow) *dto.AvailabilityResponse {
	if window == nil {
		return nil
	}

	return &dto.AvailabilityResponse{
		ID:        window.ID,
		DoctorID:  window.DoctorID,
		DayOfWeek: window.Weekday,
		StartTime: window.StartTime.String(),
		EndTime:   window.EndTime.String(),
		CreatedAt: window.CreatedAt,
	}
}

func AvailabilitiesToResponses(windows []entity.AvailabilityWindow) []dto.AvailabilityResponse {
	responses := make([]dto.AvailabilityResponse, len(windows))
	for i := range windows {
		responses[i] = *AvailabilityToResponse(&windows[i])
	}
	return responses
}
