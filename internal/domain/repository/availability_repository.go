package repository

import (
	"context"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, window *entity.AvailabilityWindow) error
	FindByID(ctx context.Context, id int64) (*entity.AvailabilityWindow, error)
	FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.AvailabilityWindow, error)
	FindByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday int) ([]entity.AvailabilityWindow, error)
	// Delete removes the window only when it belongs to doctorID and reports
	// how many rows went away.
	Delete(ctx context.Context, id int64, doctorID uuid.UUID) (int64, error)
}
