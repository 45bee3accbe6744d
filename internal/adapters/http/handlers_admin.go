package http

import "net/http"

func (h *Handler) refuseRequest(w http.ResponseWriter, r *http.Request) {
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
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.RefuseRequest(r.Context(), actor, requestID, body.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) caregiverReliability(w http.ResponseWriter, r *http.Request) {
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
	resp, err := h.service.CaregiverReliability(r.Context(), actor, caregiverID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) requestRisk(w http.ResponseWriter, r *http.Request) {
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
	resp, err := h.service.RequestRisk(r.Context(), actor, requestID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) adminAlerts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	limit := intQuery(r, "limit")
	resp, err := h.service.AdminAlerts(r.Context(), actor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"alerts": resp,
		"count":  len(resp),
	})
}

func (h *Handler) triggerSweep(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.TriggerSweep(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
