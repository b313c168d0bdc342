package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/usecase"
	"github.com/prog-nayeem/appointment-scheduler/pkg/response"
	"github.com/prog-nayeem/appointment-scheduler/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type AvailabilityHandler struct {
	log                 *logrus.Logger
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
	maxAttempts         int
}

func NewAvailabilityHandler(
	log *logrus.Logger,
	availabilityUsecase usecase.AvailabilityUsecase,
	validator *validator.CustomValidator,
	maxAttempts int,
) *AvailabilityHandler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AvailabilityHandler{
		log:                 log,
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
		maxAttempts:         maxAttempts,
	}
}

// CreateAvailability adds a weekly window for the calling doctor
// @Summary Create availability window
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAvailabilityRequest true "Availability Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /availability [post]
func (h *AvailabilityHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	// Concurrent creates for one doctor and weekday can abort each other
	// under serializable isolation.
	fields := logrus.Fields{"day_of_week": *req.DayOfWeek, "start": req.StartTime, "end": req.EndTime}
	window, err := retryTransient(r.Context(), h.log, h.maxAttempts, fields, func() (*dto.AvailabilityResponse, error) {
		return h.availabilityUsecase.CreateAvailability(r.Context(), &req)
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrOverlappingWindow),
			errors.Is(err, usecase.ErrInvalidWindow),
			errors.Is(err, entity.ErrInvalidClockTime):
			response.BadRequest(w, err.Error())
		case errors.Is(err, usecase.ErrUnauthenticated):
			response.Unauthorized(w, "Invalid token")
		case errors.Is(err, repository.ErrTransientConflict):
			response.ServiceUnavailable(w, "Availability is busy, please retry")
		default:
			response.InternalServerError(w, "Failed to create availability")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Availability created successfully", window)
}

func (h *AvailabilityHandler) GetMyAvailabilities(w http.ResponseWriter, r *http.Request) {
	windows, err := h.availabilityUsecase.GetMyAvailabilities(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthenticated) {
			response.Unauthorized(w, "Invalid token")
			return
		}
		response.InternalServerError(w, "Failed to get availabilities")
		return
	}

	response.Success(w, http.StatusOK, "Availabilities retrieved successfully", windows)
}

func (h *AvailabilityHandler) GetDoctorAvailabilities(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["doctorId"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	windows, err := h.availabilityUsecase.GetDoctorAvailabilities(r.Context(), doctorID)
	if err != nil {
		if errors.Is(err, usecase.ErrDoctorNotFound) {
			response.NotFound(w, "Doctor not found")
			return
		}
		response.InternalServerError(w, "Failed to get availabilities")
		return
	}

	response.Success(w, http.StatusOK, "Availabilities retrieved successfully", windows)
}

func (h *AvailabilityHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid availability ID")
		return
	}

	if err := h.availabilityUsecase.DeleteAvailability(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, usecase.ErrAvailabilityNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, usecase.ErrUnauthenticated):
			response.Unauthorized(w, "Invalid token")
		default:
			response.InternalServerError(w, "Failed to delete availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Availability deleted successfully", nil)
}
