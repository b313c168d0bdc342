package repository

import (
	"context"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	// Insert returns ErrDuplicateSlot when an active appointment already
	// starts at the same doctor, date and time.
	Insert(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id int64) (*entity.Appointment, error)
	// FindByDoctorAndDate lists the doctor's appointments on date, skipping
	// those with excludeStatus.
	FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeStatus entity.AppointmentStatus) ([]entity.Appointment, error)
	// FindByParticipant lists appointments where userID is doctor or patient,
	// ordered by date then start time.
	FindByParticipant(ctx context.Context, userID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, error)
	// UpdateStatus moves the appointment from one status to another and
	// returns ErrRecordNotFound when no row with that id and status exists.
	UpdateStatus(ctx context.Context, id int64, from, to entity.AppointmentStatus) (*entity.Appointment, error)
}
