package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	domainRepo "github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeSlotIndex is the partial unique index guarding double booking.
const activeSlotIndex = "uq_appointments_doctor_slot_active"

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) domainRepo.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Insert(ctx context.Context, appointment *entity.Appointment) error {
	err := database.Conn(ctx, r.db).Omit("Doctor", "Patient").Create(appointment).Error
	if err != nil {
		if database.IsUniqueViolation(err, activeSlotIndex) {
			return fmt.Errorf("%w: %v", domainRepo.ErrDuplicateSlot, err)
		}
		return err
	}
	return nil
}

func (r *appointmentRepository) FindByID(ctx context.Context, id int64) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := database.Conn(ctx, r.db).
		Preload("Doctor").Preload("Patient").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeStatus entity.AppointmentStatus) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := database.Conn(ctx, r.db).
		Where("doctor_id = ? AND appointment_date = ?", doctorID, date.Format(entity.DateLayout))
	if excludeStatus != "" {
		query = query.Where("status <> ?", excludeStatus)
	}

	err := query.Order("start_time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := database.Conn(ctx, r.db).
		Preload("Doctor").Preload("Patient").
		Where("doctor_id = ? OR patient_id = ?", userID, userID)

	if !filter.StartDate.IsZero() {
		query = query.Where("appointment_date >= ?", filter.StartDate.Format(entity.DateLayout))
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("appointment_date <= ?", filter.EndDate.Format(entity.DateLayout))
	}

	err := query.Order("appointment_date ASC, start_time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateStatus is a compare-and-set on the current status so that two
// concurrent transitions cannot both succeed.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id int64, from, to entity.AppointmentStatus) (*entity.Appointment, error) {
	var appointment entity.Appointment
	result := database.Conn(ctx, r.db).
		Model(&appointment).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domainRepo.ErrRecordNotFound
	}
	return &appointment, nil
}
