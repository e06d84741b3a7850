package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/mentorship-backend/internal/booking"
	"github.com/example/mentorship-backend/internal/persistence"
)

type slotService interface {
	ApplySlots(ctx context.Context, params booking.ApplySlotsParams) (booking.ApplySlotsResult, error)
}

type SlotHandler struct {
	service   slotService
	responder responder
}

func NewSlotHandler(service slotService, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{service: service, responder: newResponder(logger)}
}

// Apply handles a batch of availability changes for the mentor in the path.
func (h *SlotHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	mentorID, ok := MentorIDFromContext(r.Context())
	if !ok || strings.TrimSpace(mentorID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMentorID)
		return
	}

	var req applySlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := IdentityFromContext(r.Context())

	result, err := h.service.ApplySlots(r.Context(), booking.ApplySlotsParams{
		Principal:  principal,
		MentorID:   mentorID,
		Added:      req.toInputs(),
		RemovedIDs: append([]string(nil), req.RemovedIDs...),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, applySlotsResponse{
		Added:      toSlotTemplateDTOs(result.Added),
		RemovedIDs: result.RemovedIDs,
	})
}

type applySlotsRequest struct {
	Added      []slotTemplateInputDTO `json:"added"`
	RemovedIDs []string               `json:"removed_ids"`
}

func (r applySlotsRequest) toInputs() []booking.SlotTemplateInput {
	inputs := make([]booking.SlotTemplateInput, 0, len(r.Added))
	for _, added := range r.Added {
		inputs = append(inputs, booking.SlotTemplateInput{
			Start:      parseTime(added.Start),
			End:        parseTime(added.End),
			Recurrence: persistence.Recurrence(strings.TrimSpace(added.Recurrence)),
		})
	}
	return inputs
}

type slotTemplateInputDTO struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Recurrence string `json:"recurrence"`
}

type applySlotsResponse struct {
	Added      []slotTemplateDTO `json:"added"`
	RemovedIDs []string          `json:"removed_ids,omitempty"`
}

type slotTemplateDTO struct {
	ID         string `json:"id"`
	MentorID   string `json:"mentor_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Recurrence string `json:"recurrence"`
}

func toSlotTemplateDTOs(templates []persistence.SlotTemplate) []slotTemplateDTO {
	out := make([]slotTemplateDTO, 0, len(templates))
	for _, template := range templates {
		out = append(out, slotTemplateDTO{
			ID:         template.ID,
			MentorID:   template.MentorID,
			Start:      template.Start.UTC().Format(time.RFC3339Nano),
			End:        template.End.UTC().Format(time.RFC3339Nano),
			Recurrence: string(template.Recurrence),
		})
	}
	return out
}
