package http

import (
	"net/http"
	"net/url"

	"github.com/carelink/mission-service/internal/application"
	"github.com/go-chi/chi/v5"
)

type checkInResponse struct {
	Success bool `json:"success"`
	application.CheckInResult
}

type checkOutResponse struct {
	Success bool `json:"success"`
	application.CheckOutResult
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	var body verificationBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CheckIn(r.Context(), actor, missionID, body.toInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkInResponse{Success: true, CheckInResult: resp})
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	var body verificationBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CheckOut(r.Context(), actor, missionID, body.toInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkOutResponse{Success: true, CheckOutResult: resp})
}

func (h *Handler) verificationRedirect(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "flash_error",
		Value:    url.QueryEscape("Check-in and check-out must be submitted from the mission page."),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/aide/missions/"+url.PathEscape(chi.URLParam(r, "id")), http.StatusSeeOther)
}

func (h *Handler) getMission(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	resp, err := h.service.GetMission(r.Context(), actor, missionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) acceptMission(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	resp, err := h.service.AcceptMission(r.Context(), actor, missionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) refuseMission(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.RefuseMission(r.Context(), actor, missionID, body.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) proposePrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	var body struct {
		Price *int `json:"price"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Price == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "price is required")
		return
	}
	resp, err := h.service.ProposePrice(r.Context(), actor, missionID, *body.Price)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) cancelMission(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	requestID, err := uuidParam(r, "requestId")
	if err != nil {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found")
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CancelMission(r.Context(), actor, requestID, body.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) deleteMission(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	missionID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "MISSION_NOT_FOUND", "mission not found")
		return
	}
	if err := h.service.DeleteMission(r.Context(), actor, missionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"missionId": missionID.String(), "deleted": true})
}
