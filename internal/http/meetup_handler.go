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

type meetupService interface {
	Create(ctx context.Context, params booking.CreateMeetupParams) (persistence.Meetup, []booking.Warning, error)
	Confirm(ctx context.Context, principal booking.Identity, meetupID string) (persistence.Meetup, []booking.Warning, error)
	Refuse(ctx context.Context, principal booking.Identity, meetupID string) (persistence.Meetup, []booking.Warning, error)
	ListForMentee(ctx context.Context, principal booking.Identity) ([]persistence.Meetup, error)
}

type MeetupHandler struct {
	service   meetupService
	responder responder
}

func NewMeetupHandler(service meetupService, logger *slog.Logger) *MeetupHandler {
	return &MeetupHandler{service: service, responder: newResponder(logger)}
}

func (h *MeetupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := IdentityFromContext(r.Context())

	meetup, warnings, err := h.service.Create(r.Context(), booking.CreateMeetupParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderMeetup(r.Context(), w, meetup, warnings, http.StatusCreated)
}

func (h *MeetupHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.serviceConfirm)
}

func (h *MeetupHandler) Refuse(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.serviceRefuse)
}

func (h *MeetupHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := IdentityFromContext(r.Context())
	meetups, err := h.service.ListForMentee(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetupsResponse{Meetups: toMeetupDTOs(meetups)})
}

type transitionFunc func(ctx context.Context, principal booking.Identity, meetupID string) (persistence.Meetup, []booking.Warning, error)

func (h *MeetupHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetupID, ok := MeetupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(meetupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetupID)
		return
	}

	principal, _ := IdentityFromContext(r.Context())
	meetup, warnings, err := fn(r.Context(), principal, meetupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderMeetup(r.Context(), w, meetup, warnings, http.StatusOK)
}

func (h *MeetupHandler) serviceConfirm(ctx context.Context, principal booking.Identity, meetupID string) (persistence.Meetup, []booking.Warning, error) {
	return h.service.Confirm(ctx, principal, meetupID)
}

func (h *MeetupHandler) serviceRefuse(ctx context.Context, principal booking.Identity, meetupID string) (persistence.Meetup, []booking.Warning, error) {
	return h.service.Refuse(ctx, principal, meetupID)
}

func (h *MeetupHandler) renderMeetup(ctx context.Context, w http.ResponseWriter, meetup persistence.Meetup, warnings []booking.Warning, status int) {
	h.responder.writeJSON(ctx, w, status, meetupResponse{
		Meetup:   toMeetupDTO(meetup),
		Warnings: toWarningDTOs(warnings),
	})
}

type meetupRequest struct {
	SlotTemplateID string  `json:"slot_template_id"`
	Start          string  `json:"start"`
	Location       string  `json:"location"`
	Message        *string `json:"message"`
}

func (r meetupRequest) toInput() booking.MeetupInput {
	return booking.MeetupInput{
		SlotTemplateID: strings.TrimSpace(r.SlotTemplateID),
		Start:          parseTime(r.Start),
		Location:       strings.TrimSpace(r.Location),
		Message:        r.Message,
	}
}

type meetupResponse struct {
	Meetup   meetupDTO    `json:"meetup"`
	Warnings []warningDTO `json:"warnings,omitempty"`
}

type listMeetupsResponse struct {
	Meetups []meetupDTO `json:"meetups"`
}

type meetupDTO struct {
	ID             string  `json:"id"`
	SlotTemplateID string  `json:"slot_template_id"`
	MentorID       string  `json:"mentor_id"`
	MenteeID       string  `json:"mentee_id"`
	Start          string  `json:"start"`
	Location       string  `json:"location"`
	Message        *string `json:"message,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toMeetupDTO(meetup persistence.Meetup) meetupDTO {
	return meetupDTO{
		ID:             meetup.ID,
		SlotTemplateID: meetup.SlotTemplateID,
		MentorID:       meetup.MentorID,
		MenteeID:       meetup.MenteeID,
		Start:          meetup.Start.UTC().Format(time.RFC3339Nano),
		Location:       meetup.Location,
		Message:        meetup.Message,
		Status:         string(meetup.Status),
		CreatedAt:      meetup.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      meetup.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMeetupDTOs(meetups []persistence.Meetup) []meetupDTO {
	out := make([]meetupDTO, 0, len(meetups))
	for _, meetup := range meetups {
		out = append(out, toMeetupDTO(meetup))
	}
	return out
}

type warningDTO struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func toWarningDTOs(warnings []booking.Warning) []warningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]warningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, warningDTO{Kind: string(warning.Kind), Detail: warning.Detail})
	}
	return out
}
