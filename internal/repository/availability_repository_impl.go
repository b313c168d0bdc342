package repository

import (
	"context"
	"errors"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	domainRepo "github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type availabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) domainRepo.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Create(ctx context.Context, window *entity.AvailabilityWindow) error {
	return database.Conn(ctx, r.db).Create(window).Error
}

func (r *availabilityRepository) FindByID(ctx context.Context, id int64) (*entity.AvailabilityWindow, error) {
	var window entity.AvailabilityWindow
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&window).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &window, nil
}

func (r *availabilityRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]entity.AvailabilityWindow, error) {
	var windows []entity.AvailabilityWindow
	err := database.Conn(ctx, r.db).
		Where("doctor_id = ?", doctorID).
		Order("day_of_week ASC, start_time ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *availabilityRepository) FindByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday int) ([]entity.AvailabilityWindow, error) {
	var windows []entity.AvailabilityWindow
	err := database.Conn(ctx, r.db).
		Where("doctor_id = ? AND day_of_week = ?", doctorID, weekday).
		Order("start_time ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id int64, doctorID uuid.UUID) (int64, error) {
	result := database.Conn(ctx, r.db).
		Where("id = ? AND doctor_id = ?", id, doctorID).
		Delete(&entity.AvailabilityWindow{})
	return result.RowsAffected, result.Error
}
