package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/mentorship-backend/internal/booking"
	"github.com/example/mentorship-backend/internal/recurrence"
)

type availabilityService interface {
	BookableOccurrences(ctx context.Context, mentorID string, window recurrence.Window) ([]booking.Occurrence, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger)}
}

// Get resolves the mentor's bookable occurrences. The optional `from` and `to`
// query parameters bound the expansion window; without `to` the window runs to
// the end of the current month.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	mentorID, ok := MentorIDFromContext(r.Context())
	if !ok || strings.TrimSpace(mentorID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMentorID)
		return
	}

	window := recurrence.Window{
		Start: parseTime(r.URL.Query().Get("from")),
		End:   parseTime(r.URL.Query().Get("to")),
	}

	occurrences, err := h.service.BookableOccurrences(r.Context(), mentorID, window)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		MentorID:    mentorID,
		Occurrences: toOccurrenceDTOs(occurrences),
	})
}

type availabilityResponse struct {
	MentorID    string          `json:"mentor_id"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type occurrenceDTO struct {
	SlotTemplateID string `json:"slot_template_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

func toOccurrenceDTOs(occurrences []booking.Occurrence) []occurrenceDTO {
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		out = append(out, occurrenceDTO{
			SlotTemplateID: occurrence.SlotTemplateID,
			Start:          occurrence.Start.UTC().Format(time.RFC3339Nano),
			End:            occurrence.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
