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
	ErrOverlappingWindow    = errors.New("availability overlaps with an existing window on the same day")
	ErrInvalidWindow        = errors.New("end time must be after start time")
	ErrAvailabilityNotFound = errors.New("availability not found or not owned by you")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrUnauthenticated      = errors.New("user not found in context")
)

type AvailabilityUsecase interface {
	CreateAvailability(ctx context.Context, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	GetMyAvailabilities(ctx context.Context) (*dto.AvailabilityListResponse, error)
	GetDoctorAvailabilities(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityListResponse, error)
	DeleteAvailability(ctx context.Context, id int64) error
}

type availabilityUsecase struct {
	log              *logrus.Logger
	transactor       repository.Transactor
	userRepo         repository.UserRepository
	availabilityRepo repository.AvailabilityRepository
	slotCache        service.SlotCache
	auditService     service.AuditService
}

func NewAvailabilityUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	availabilityRepo repository.AvailabilityRepository,
	slotCache service.SlotCache,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		log:              log,
		transactor:       transactor,
		userRepo:         userRepo,
		availabilityRepo: availabilityRepo,
		slotCache:        slotCache,
		auditService:     auditService,
	}
}

// CreateAvailability adds a weekly window for the calling doctor. The
// overlap check and the insert share one serializable transaction, so two
// concurrent requests cannot both slip past the check.
func (u *availabilityUsecase) CreateAvailability(ctx context.Context, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	startTime, err := entity.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, err
	}
	endTime, err := entity.ParseClockTime(req.EndTime)
	if err != nil {
		return nil, err
	}

	window := &entity.AvailabilityWindow{
		DoctorID:  doctorID,
		Weekday:   *req.DayOfWeek,
		StartTime: startTime,
		EndTime:   endTime,
	}
	if !window.Valid() {
		return nil, ErrInvalidWindow
	}

	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := u.availabilityRepo.FindByDoctorAndWeekday(ctx, doctorID, window.Weekday)
		if err != nil {
			return err
		}
		for i := range existing {
			if window.OverlapsWith(&existing[i]) {
				return ErrOverlappingWindow
			}
		}
		return u.availabilityRepo.Create(ctx, window)
	})
	if err != nil {
		if !errors.Is(err, ErrOverlappingWindow) {
			u.log.Warnf("Failed to create availability: %+v", err)
		}
		return nil, err
	}

	u.slotCache.InvalidateDoctor(ctx, doctorID)
	resp := converter.AvailabilityToResponse(window)
	if err := u.auditService.LogCreate(ctx, doctorID, entity.AuditActionAvailabilityCreate, "availability_window", strconv.FormatInt(window.ID, 10), resp); err != nil {
		u.log.Warnf("Failed to audit availability %d: %+v", window.ID, err)
	}

	return resp, nil
}

func (u *availabilityUsecase) GetMyAvailabilities(ctx context.Context) (*dto.AvailabilityListResponse, error) {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return u.listWindows(ctx, doctorID)
}

func (u *availabilityUsecase) GetDoctorAvailabilities(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityListResponse, error) {
	doctor, err := u.userRepo.FindIdentity(ctx, doctorID, entity.RoleDoctor, false)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return u.listWindows(ctx, doctorID)
}

func (u *availabilityUsecase) listWindows(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityListResponse, error) {
	windows, err := u.availabilityRepo.FindByDoctor(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find availabilities for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.AvailabilityListResponse{
		Availabilities: converter.AvailabilitiesToResponses(windows),
		Total:          len(windows),
	}, nil
}

// DeleteAvailability removes one of the calling doctor's windows. Existing
// appointments are left untouched.
func (u *availabilityUsecase) DeleteAvailability(ctx context.Context, id int64) error {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	window, err := u.availabilityRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find availability %d: %+v", id, err)
		return err
	}
	if window == nil || window.DoctorID != doctorID {
		return ErrAvailabilityNotFound
	}

	affected, err := u.availabilityRepo.Delete(ctx, id, doctorID)
	if err != nil {
		u.log.Warnf("Failed to delete availability %d: %+v", id, err)
		return err
	}
	if affected == 0 {
		return ErrAvailabilityNotFound
	}

	u.slotCache.InvalidateDoctor(ctx, doctorID)
	if err := u.auditService.LogDelete(ctx, doctorID, entity.AuditActionAvailabilityDelete, "availability_window", strconv.FormatInt(id, 10), converter.AvailabilityToResponse(window)); err != nil {
		u.log.Warnf("Failed to audit availability %d: %+v", id, err)
	}

	return nil
}
