package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyActor     ctxKey = "actor"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func recoverMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"module", "http.router",
						"layer", "adapter",
						"operation", r.Method+" "+r.URL.Path,
						"outcome", "failure",
						"request_id", requestIDFromContext(r.Context()),
						"panic", rec,
					)
					writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			outcome := "success"
			if rec.status >= http.StatusBadRequest {
				outcome = "failure"
			}
			logger.InfoContext(r.Context(), "http request",
				"module", "http.router",
				"layer", "adapter",
				"operation", r.Method+" "+r.URL.Path,
				"outcome", outcome,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestIDFromContext(r.Context()),
			)
		})
	}
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		actor, err := h.service.ResolveActor(r.Context(), raw)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
				return
			}
			writeDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyActor, actor)))
	})
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", domain.ErrUnauthorized
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	return token, nil
}

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ctxKeyActor).(domain.Actor)
	return actor, ok && actor != nil
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

var statusByCode = map[string]int{
	domain.CodeMissionNotFound:        http.StatusNotFound,
	domain.CodeRequestNotFound:        http.StatusNotFound,
	domain.CodeCaregiverNotFound:      http.StatusNotFound,
	domain.CodeAideRequired:           http.StatusForbidden,
	domain.CodeNotOwner:               http.StatusForbidden,
	domain.CodeForbidden:              http.StatusForbidden,
	domain.CodeMissionNotAccepted:     http.StatusUnprocessableEntity,
	domain.CodeNoStartDate:            http.StatusUnprocessableEntity,
	domain.CodeOutsideTimeWindow:      http.StatusUnprocessableEntity,
	domain.CodePatientLocationMissing: http.StatusUnprocessableEntity,
	domain.CodeCaregiverNotValidated:  http.StatusUnprocessableEntity,
	domain.CodeAlreadyCheckedIn:       http.StatusConflict,
	domain.CodeAlreadyCheckedOut:      http.StatusConflict,
	domain.CodeCheckinRequired:        http.StatusConflict,
	domain.CodeMissionArchived:        http.StatusConflict,
	domain.CodeMissionNotArchived:     http.StatusConflict,
	domain.CodeRequestTerminal:        http.StatusConflict,
	domain.CodeRequestNotAssignable:   http.StatusConflict,
	domain.CodeActiveMissionExists:    http.StatusConflict,
	domain.CodeRequestHasMissions:     http.StatusConflict,
	domain.CodeCaregiverUnavailable:   http.StatusConflict,
	domain.CodeConflict:               http.StatusConflict,
	domain.CodeConsentRequired:        http.StatusBadRequest,
	domain.CodeInvalidCoordinates:     http.StatusBadRequest,
	domain.CodeOutOfRangeCoordinates:  http.StatusBadRequest,
	domain.CodeInvalidProofPhoto:      http.StatusBadRequest,
	domain.CodeInvalidSignature:       http.StatusBadRequest,
	domain.CodePriceOutOfRange:        http.StatusBadRequest,
	domain.CodeValidation:             http.StatusBadRequest,
}

func mapDomainError(err error) (int, string, string) {
	var coded *domain.CodedError
	if errors.As(err, &coded) {
		if status, ok := statusByCode[coded.Code]; ok {
			return status, coded.Code, coded.Message
		}
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, domain.CodeValidation, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.CodeForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "IDEMPOTENCY_CONFLICT", err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, domain.CodeConflict, err.Error()
	case errors.Is(err, domain.ErrPrecondition):
		return http.StatusUnprocessableEntity, "PRECONDITION_FAILED", err.Error()
	case errors.Is(err, domain.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
