package http

import (
	"log/slog"
	"net/http"

	"github.com/carelink/mission-service/internal/application"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *application.Service
	logger  *slog.Logger
}

func NewHandler(service *application.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(handler.logger))
	r.Use(loggingMiddleware(handler.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	// Form-style misuse of the field endpoints bounces back to the mission page.
	r.Get("/mission/{id}/checkin", handler.verificationRedirect)
	r.Get("/mission/{id}/checkout", handler.verificationRedirect)

	r.Group(func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Post("/mission/{id}/checkin", handler.checkIn)
		r.Post("/mission/{id}/checkout", handler.checkOut)
		r.Get("/missions/{id}", handler.getMission)

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", handler.createRequest)
			r.Get("/{id}", handler.getRequest)
			r.Delete("/{id}", handler.deleteRequest)
			r.Get("/{id}/suggestions", handler.getSuggestions)
			r.Get("/{id}/matches", handler.topMatches)
			r.Post("/{id}/assign", handler.assignCaregiver)
		})

		r.Get("/caregivers/{id}/availability", handler.caregiverAvailability)

		r.Route("/aide/missions", func(r chi.Router) {
			r.Post("/{id}/accept", handler.acceptMission)
			r.Post("/{id}/refuse", handler.refuseMission)
			r.Post("/propose-price/{id}", handler.proposePrice)
		})

		r.Post("/patient/missions/cancel/{requestId}", handler.cancelMission)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/missions/delete/{id}", handler.deleteMission)
			r.Post("/requests/{id}/refuse", handler.refuseRequest)
			r.Get("/risk/caregivers/{id}", handler.caregiverReliability)
			r.Get("/risk/requests/{id}", handler.requestRisk)
			r.Get("/alerts", handler.adminAlerts)
			r.Post("/sweep", handler.triggerSweep)
		})
	})
	return r
}
