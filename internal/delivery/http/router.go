package http

import (
	"net/http"

	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/handler"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Router struct {
	router              *mux.Router
	log                 *logrus.Logger
	healthHandler       *handler.HealthHandler
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	availabilityHandler *handler.AvailabilityHandler
	appointmentHandler  *handler.AppointmentHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	log *logrus.Logger,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	availabilityHandler *handler.AvailabilityHandler,
	appointmentHandler *handler.AppointmentHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		log:                 log,
		healthHandler:       healthHandler,
		authHandler:         authHandler,
		userHandler:         userHandler,
		availabilityHandler: availabilityHandler,
		appointmentHandler:  appointmentHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Use(middleware.RequestID, middleware.Logging(r.log), r.corsMiddleware.Handle)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Preflight requests are answered by the CORS middleware
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health check
	api.HandleFunc("/health", r.healthHandler.Health).Methods(http.MethodGet)

	// Auth routes (public)
	api.HandleFunc("/auth/register", r.authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", r.authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Everything below requires a valid access token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/logout-all", r.authHandler.LogoutAll).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Users
	protected.HandleFunc("/users/doctors", r.userHandler.GetDoctors).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", r.userHandler.GetUser).Methods(http.MethodGet)

	// Availability windows
	protected.Handle("/availability", doctorOnly(r.availabilityHandler.CreateAvailability)).Methods(http.MethodPost)
	protected.Handle("/availability", doctorOnly(r.availabilityHandler.GetMyAvailabilities)).Methods(http.MethodGet)
	protected.HandleFunc("/availability/{doctorId}", r.availabilityHandler.GetDoctorAvailabilities).Methods(http.MethodGet)
	protected.Handle("/availability/{id}", doctorOnly(r.availabilityHandler.DeleteAvailability)).Methods(http.MethodDelete)

	// Appointments
	protected.HandleFunc("/appointments/doctors/{doctorId}/slots", r.appointmentHandler.GetAvailableSlots).Methods(http.MethodGet)
	protected.Handle("/appointments", patientOnly(r.appointmentHandler.BookAppointment)).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.appointmentHandler.GetMyAppointments).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.UpdateAppointmentStatus).Methods(http.MethodPatch)

	// Audit trail
	protected.HandleFunc("/audit-logs", r.auditLogHandler.GetMyAuditLogs).Methods(http.MethodGet)

	return r.router
}

func doctorOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireDoctor(h)
}

func patientOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequirePatient(h)
}
