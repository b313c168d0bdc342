package usecase

import (
	"context"
	"errors"
	"strconv"

	"github.com/prog-nayeem/appointment-scheduler/internal/converter"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/middleware"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotParticipant   = errors.New("you are not a participant of this appointment")
	ErrInvalidDateRange = errors.New("start_date must not be after end_date")
)

type AppointmentUsecase interface {
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityDateResponse, error)
	BookAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetMyAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	GetAppointment(ctx context.Context, id int64) (*dto.AppointmentResponse, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	log             *logrus.Logger
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	resolver        SlotResolver
	bookingService  BookingService
	slotCache       service.SlotCache
	auditService    service.AuditService
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
	resolver SlotResolver,
	bookingService BookingService,
	slotCache service.SlotCache,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:             log,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		resolver:        resolver,
		bookingService:  bookingService,
		slotCache:       slotCache,
		auditService:    auditService,
	}
}

// GetAvailableSlots lists the doctor's slots on date, served from the slot
// cache when possible.
func (u *appointmentUsecase) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailabilityDateResponse, error) {
	day, err := entity.ParseDate(date)
	if err != nil {
		return nil, err
	}

	doctor, err := u.userRepo.FindIdentity(ctx, doctorID, entity.RoleDoctor, false)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	// The version is read before resolving so a booking that lands in
	// between invalidates it and the stale list is never stored.
	slots, version, hit := u.slotCache.Get(ctx, doctorID, day)
	if !hit {
		slots, err = u.resolver.ResolveSlots(ctx, doctorID, day)
		if err != nil {
			u.log.Warnf("Failed to resolve slots for doctor %s: %+v", doctorID, err)
			return nil, err
		}
		u.slotCache.Set(ctx, doctorID, day, version, slots)
	}

	return converter.SlotsToAvailabilityDate(doctorID, day, slots), nil
}

// BookAppointment books a slot for the calling patient.
func (u *appointmentUsecase) BookAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	patientID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrDoctorNotAvailable
	}
	date, err := entity.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	startTime, err := entity.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, err
	}

	appointment, err := u.bookingService.BookAppointment(ctx, doctorID, patientID, date, startTime)
	if err != nil {
		return nil, err
	}

	u.slotCache.InvalidateDate(ctx, doctorID, date)
	resp := converter.AppointmentToResponse(appointment)
	if err := u.auditService.LogCreate(ctx, patientID, entity.AuditActionAppointmentBook, "appointment", strconv.FormatInt(appointment.ID, 10), resp); err != nil {
		u.log.Warnf("Failed to audit appointment %d: %+v", appointment.ID, err)
	}

	return resp, nil
}

func (u *appointmentUsecase) GetMyAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	var filter entity.AppointmentFilter
	var err error
	if req.StartDate != "" {
		if filter.StartDate, err = entity.ParseDate(req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != "" {
		if filter.EndDate, err = entity.ParseDate(req.EndDate); err != nil {
			return nil, err
		}
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.StartDate.After(filter.EndDate) {
		return nil, ErrInvalidDateRange
	}

	appointments, err := u.appointmentRepo.FindByParticipant(ctx, userID, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id int64) (*dto.AppointmentResponse, error) {
	appointment, err := u.findAsParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// UpdateAppointmentStatus lets either participant complete or cancel the
// appointment.
func (u *appointmentUsecase) UpdateAppointmentStatus(ctx context.Context, id int64, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	current, err := u.findAsParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	userID, _ := middleware.GetUserIDFromContext(ctx)

	updated, err := u.bookingService.UpdateAppointmentStatus(ctx, id, req.Status)
	if err != nil {
		return nil, err
	}
	updated.Doctor = current.Doctor
	updated.Patient = current.Patient

	u.slotCache.InvalidateDate(ctx, updated.DoctorID, updated.AppointmentDate)
	resp := converter.AppointmentToResponse(updated)
	if err := u.auditService.LogUpdate(ctx, userID, entity.AuditActionAppointmentStatus, "appointment", strconv.FormatInt(id, 10), current.Status, updated.Status); err != nil {
		u.log.Warnf("Failed to audit appointment %d: %+v", id, err)
	}

	return resp, nil
}

func (u *appointmentUsecase) findAsParticipant(ctx context.Context, id int64) (*entity.Appointment, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	appointment, err := u.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return appointment, nil
}
