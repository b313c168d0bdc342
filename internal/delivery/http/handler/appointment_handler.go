package handler

import (
	"context"
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

type AppointmentHandler struct {
	log                *logrus.Logger
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
	maxAttempts        int
}

func NewAppointmentHandler(
	log *logrus.Logger,
	appointmentUsecase usecase.AppointmentUsecase,
	validator *validator.CustomValidator,
	maxAttempts int,
) *AppointmentHandler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AppointmentHandler{
		log:                log,
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
		maxAttempts:        maxAttempts,
	}
}

// GetAvailableSlots lists a doctor's slots for one date
// @Summary List slots of a doctor on a date
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Param doctorId path string true "Doctor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /appointments/doctors/{doctorId}/slots [get]
func (h *AppointmentHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["doctorId"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	slots, err := h.appointmentUsecase.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidDate):
			response.BadRequest(w, err.Error())
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to get available slots")
		}
		return
	}

	response.Success(w, http.StatusOK, "Slots retrieved successfully", slots)
}

// BookAppointment books a slot for the calling patient
// @Summary Book an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookWithRetry(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotAvailable),
			errors.Is(err, usecase.ErrPatientNotEligible),
			errors.Is(err, usecase.ErrOutsideAvailability):
			response.Error(w, http.StatusUnprocessableEntity, err.Error(), nil)
		case errors.Is(err, usecase.ErrSlotConflict):
			response.Conflict(w, err.Error())
		case errors.Is(err, entity.ErrInvalidDate), errors.Is(err, entity.ErrInvalidClockTime):
			response.BadRequest(w, err.Error())
		case errors.Is(err, usecase.ErrUnauthenticated):
			response.Unauthorized(w, "Invalid token")
		case errors.Is(err, repository.ErrTransientConflict):
			response.ServiceUnavailable(w, "Booking is busy, please retry")
		default:
			response.InternalServerError(w, "Failed to book appointment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

func (h *AppointmentHandler) bookWithRetry(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	fields := logrus.Fields{
		"doctor_id": req.DoctorID,
		"date":      req.AppointmentDate,
		"start":     req.StartTime,
	}
	return retryTransient(ctx, h.log, h.maxAttempts, fields, func() (*dto.AppointmentResponse, error) {
		return h.appointmentUsecase.BookAppointment(ctx, req)
	})
}

func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := dto.AppointmentListRequest{
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointments, err := h.appointmentUsecase.GetMyAppointments(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidDateRange), errors.Is(err, entity.ErrInvalidDate):
			response.BadRequest(w, err.Error())
		case errors.Is(err, usecase.ErrUnauthenticated):
			response.Unauthorized(w, "Invalid token")
		default:
			response.InternalServerError(w, "Failed to get appointments")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), id)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// UpdateAppointmentStatus completes or cancels an appointment
// @Summary Update appointment status
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param request body dto.UpdateAppointmentStatusRequest true "Status Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	var req dto.UpdateAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointmentStatus(r.Context(), id, &req)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) writeAppointmentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrNotParticipant):
		response.Forbidden(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidStatusValue):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidStatusTransition):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrUnauthenticated):
		response.Unauthorized(w, "Invalid token")
	default:
		response.InternalServerError(w, fallback)
	}
}
