package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/example/mentorship-backend/internal/auth"
	"github.com/example/mentorship-backend/internal/booking"
	"github.com/example/mentorship-backend/internal/calendar"
	"github.com/example/mentorship-backend/internal/logging"
)

var (
	errBadRequestBody  = errors.New("invalid request body")
	errInvalidMentorID = errors.New("invalid mentor id")
	errInvalidMeetupID = errors.New("invalid meetup id")
	errMissingToken    = errors.New("missing bearer token")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps domain errors onto HTTP statuses. Conflicts carry a
// machine readable reason so clients can distinguish a taken occurrence from a
// duplicate request; external calendar failures surface as a bad gateway.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, booking.ErrUnauthorized), errors.Is(err, auth.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   "authentication required",
		})
		return
	case errors.Is(err, booking.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
		return
	case errors.Is(err, booking.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
		return
	case errors.Is(err, calendar.ErrExternalAuth):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			ErrorCode: "CALENDAR_AUTH",
			Message:   "external calendar authorization failed",
		})
		return
	}

	var cErr *booking.ConflictError
	if errors.As(err, &cErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: conflictErrorCode(cErr.Reason),
			Message:   conflictMessage(cErr.Reason),
		})
		return
	}

	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	var batchErr *calendar.DeleteBatchError
	if errors.As(err, &batchErr) {
		ids := make([]string, 0, len(batchErr.Failures))
		for id := range batchErr.Failures {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			ErrorCode: "CALENDAR_DELETE_PARTIAL",
			Message:   "some slots could not be removed from the external calendar",
			FailedIDs: ids,
		})
		return
	}

	var svcErr *calendar.ServiceError
	if errors.As(err, &svcErr) {
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			ErrorCode: "CALENDAR_UNAVAILABLE",
			Message:   "the external calendar did not respond",
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func conflictErrorCode(reason booking.ConflictReason) string {
	switch reason {
	case booking.ConflictSelfBooking:
		return "BOOKING_SELF"
	case booking.ConflictLocationInvalid:
		return "BOOKING_LOCATION"
	case booking.ConflictAlreadyBooked:
		return "BOOKING_TAKEN"
	case booking.ConflictDuplicateRequest:
		return "BOOKING_DUPLICATE"
	default:
		return "BOOKING_CONFLICT"
	}
}

func conflictMessage(reason booking.ConflictReason) string {
	switch reason {
	case booking.ConflictSelfBooking:
		return "mentors cannot book their own slots"
	case booking.ConflictLocationInvalid:
		return "the requested location is not offered by this mentor"
	case booking.ConflictAlreadyBooked:
		return "this occurrence has already been booked"
	case booking.ConflictDuplicateRequest:
		return "you already have a pending request for this occurrence"
	default:
		return "the request conflicts with the current booking state"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	FailedIDs []string          `json:"failed_ids,omitempty"`
}
