package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDoctorNotAvailable      = errors.New("doctor does not exist or is not available")
	ErrPatientNotEligible      = errors.New("patient does not exist or is not eligible to book")
	ErrOutsideAvailability     = errors.New("requested time is outside the doctor's availability")
	ErrSlotConflict            = errors.New("time slot is already booked")
	ErrInvalidStatusValue      = errors.New("status must be one of scheduled, completed, cancelled")
	ErrInvalidStatusTransition = errors.New("appointment status cannot change from its current value")
	ErrAppointmentNotFound     = errors.New("appointment not found")
)

// BookingService validates and commits appointments and owns their status
// transitions.
type BookingService interface {
	BookAppointment(ctx context.Context, doctorID, patientID uuid.UUID, date time.Time, startTime entity.ClockTime) (*entity.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status string) (*entity.Appointment, error)
}

type bookingService struct {
	log              *logrus.Logger
	transactor       repository.Transactor
	userRepo         repository.UserRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	slotDuration     time.Duration
}

func NewBookingService(
	log *logrus.Logger,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	slotDuration time.Duration,
) BookingService {
	return &bookingService{
		log:              log,
		transactor:       transactor,
		userRepo:         userRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		slotDuration:     slotDuration,
	}
}

// BookAppointment checks, in order, that the doctor is bookable, that the
// patient is eligible, that the slot fits entirely in one availability window
// and that it overlaps no live appointment, then inserts it as scheduled.
// Everything runs in one serializable transaction; a serialization failure
// surfaces as repository.ErrTransientConflict and is safe to retry.
func (s *bookingService) BookAppointment(ctx context.Context, doctorID, patientID uuid.UUID, date time.Time, startTime entity.ClockTime) (*entity.Appointment, error) {
	date = entity.DateOnly(date)
	endTime, fitsInDay := startTime.Add(s.slotDuration)

	var booked *entity.Appointment
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		doctor, err := s.userRepo.FindIdentity(ctx, doctorID, entity.RoleDoctor, true)
		if err != nil {
			return fmt.Errorf("find doctor: %w", err)
		}
		if doctor == nil {
			return ErrDoctorNotAvailable
		}

		patient, err := s.userRepo.FindIdentity(ctx, patientID, entity.RolePatient, true)
		if err != nil {
			return fmt.Errorf("find patient: %w", err)
		}
		if patient == nil {
			return ErrPatientNotEligible
		}

		if !fitsInDay {
			return ErrOutsideAvailability
		}

		windows, err := s.availabilityRepo.FindByDoctorAndWeekday(ctx, doctorID, entity.Weekday(date))
		if err != nil {
			return fmt.Errorf("find availability: %w", err)
		}
		if !fitsAnyWindow(windows, startTime, endTime) {
			return ErrOutsideAvailability
		}

		existing, err := s.appointmentRepo.FindByDoctorAndDate(ctx, doctorID, date, entity.AppointmentStatusCancelled)
		if err != nil {
			return fmt.Errorf("find appointments: %w", err)
		}
		if occupied(existing, startTime, endTime) {
			return ErrSlotConflict
		}

		appointment := &entity.Appointment{
			DoctorID:        doctorID,
			PatientID:       patientID,
			AppointmentDate: date,
			StartTime:       startTime,
			EndTime:         endTime,
			Status:          entity.AppointmentStatusScheduled,
		}
		if err := s.appointmentRepo.Insert(ctx, appointment); err != nil {
			if errors.Is(err, repository.ErrDuplicateSlot) {
				return ErrSlotConflict
			}
			return fmt.Errorf("insert appointment: %w", err)
		}

		booked = appointment
		return nil
	})
	if err != nil {
		if !isBookingRejection(err) {
			s.log.Warnf("Failed to book appointment for doctor %s: %+v", doctorID, err)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"appointment_id": booked.ID,
		"doctor_id":      doctorID,
		"patient_id":     patientID,
		"date":           date.Format(entity.DateLayout),
		"start_time":     startTime.String(),
	}).Info("Appointment booked")

	return booked, nil
}

// UpdateAppointmentStatus applies one of the allowed transitions:
// scheduled -> completed and scheduled -> cancelled.
func (s *bookingService) UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status string) (*entity.Appointment, error) {
	next, err := entity.ParseAppointmentStatus(status)
	if err != nil {
		return nil, ErrInvalidStatusValue
	}

	current, err := s.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		s.log.Warnf("Failed to find appointment %d: %+v", appointmentID, err)
		return nil, err
	}
	if current == nil {
		return nil, ErrAppointmentNotFound
	}

	if !current.Status.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.appointmentRepo.UpdateStatus(ctx, appointmentID, current.Status, next)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			// Someone else moved it between our read and write.
			return nil, ErrInvalidStatusTransition
		}
		s.log.Warnf("Failed to update appointment %d status: %+v", appointmentID, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"appointment_id": appointmentID,
		"from":           current.Status,
		"to":             next,
	}).Info("Appointment status changed")

	return updated, nil
}

func fitsAnyWindow(windows []entity.AvailabilityWindow, start, end entity.ClockTime) bool {
	for i := range windows {
		if windows[i].Fits(start, end) {
			return true
		}
	}
	return false
}

func isBookingRejection(err error) bool {
	return errors.Is(err, ErrDoctorNotAvailable) ||
		errors.Is(err, ErrPatientNotEligible) ||
		errors.Is(err, ErrOutsideAvailability) ||
		errors.Is(err, ErrSlotConflict) ||
		errors.Is(err, repository.ErrTransientConflict)
}
