package http

import (
	"net/http"

	"github.com/carelink/mission-service/internal/application"
)

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.CreateRequestInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CreateRequest(r.Context(), actor, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	requestID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found")
		return
	}
	resp, err := h.service.GetRequest(r.Context(), actor, requestID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	requestID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found")
		return
	}
	if err := h.service.DeleteRequest(r.Context(), actor, requestID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"requestId": requestID.String(), "deleted": true})
}

func (h *Handler) getSuggestions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	requestID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found")
		return
	}
	resp, err := h.service.GetSuggestions(r.Context(), actor, requestID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) topMatches(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	requestID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found")
		return
	}
	limit := intQuery(r, "limit")
	resp, err := h.service.TopMatches(r.Context(), actor, requestID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"requestId": requestID.String(),
		"matches":   resp,
	})
}

func (h *Handler) assignCaregiver(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	requestID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found")
		return
	}
	var req application.AssignCaregiverInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.AssignCaregiver(r.Context(), actor, r.Header.Get("Idempotency-Key"), requestID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) caregiverAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	caregiverID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "CAREGIVER_NOT_FOUND", "caregiver not found")
		return
	}
	q := r.URL.Query()
	resp, err := h.service.CaregiverAvailability(r.Context(), actor, caregiverID, q.Get("start"), q.Get("end"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
