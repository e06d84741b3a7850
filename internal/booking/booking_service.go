package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
	"github.com/example/mentorship-backend/internal/recurrence"
)

// Notifier delivers booking lifecycle notifications. Delivery is best effort:
// failures are surfaced as warnings beside the persisted result, never rolled
// back into booking state.
type Notifier interface {
	NotifyBookingRequested(ctx context.Context, meetup persistence.Meetup) error
	NotifyBookingConfirmed(ctx context.Context, meetup persistence.Meetup) error
}

// CalendarMaterializer mirrors a confirmed meetup into the owning mentor's
// external calendar.
type CalendarMaterializer interface {
	MaterializeMeetup(ctx context.Context, meetup persistence.Meetup) error
}

// BookingService owns the meetup lifecycle. Transitions are pending→confirmed
// and pending→refused; both targets are terminal.
type BookingService struct {
	meetups     persistence.MeetupRepository
	slots       persistence.SlotTemplateRepository
	users       persistence.UserRepository
	expander    *recurrence.Expander
	notifier    Notifier
	calendar    CalendarMaterializer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for meetup operations. The notifier and
// calendar materializer may be nil, in which case the corresponding side
// effects are skipped.
func NewBookingService(meetups persistence.MeetupRepository, slots persistence.SlotTemplateRepository, users persistence.UserRepository, expander *recurrence.Expander, notifier Notifier, calendar CalendarMaterializer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		meetups:     meetups,
		slots:       slots,
		users:       users,
		expander:    expander,
		notifier:    notifier,
		calendar:    calendar,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Create validates a mentee booking request against the mentor's availability
// and persists a pending meetup. The returned warnings report best-effort side
// effects (notification delivery) that failed without affecting the record.
func (s *BookingService) Create(ctx context.Context, params CreateMeetupParams) (persistence.Meetup, []Warning, error) {
	if s == nil {
		return persistence.Meetup{}, nil, fmt.Errorf("BookingService is nil")
	}

	principal := params.Principal
	input := params.Input
	logger := serviceLogger(ctx, s.logger, "booking", "create",
		"mentee_id", principal.UserID, "slot_template_id", input.SlotTemplateID)

	if principal.UserID == "" {
		return persistence.Meetup{}, nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if input.SlotTemplateID == "" {
		vErr.add("slot_template_id", "slot template id is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		vErr.add("location", "location is required")
	}
	if vErr.HasErrors() {
		return persistence.Meetup{}, nil, vErr
	}

	template, err := s.slots.GetSlotTemplate(ctx, input.SlotTemplateID)
	if err != nil {
		return persistence.Meetup{}, nil, mapRepoError(err)
	}

	if template.MentorID == principal.UserID {
		return persistence.Meetup{}, nil, &ConflictError{Reason: ConflictSelfBooking}
	}

	mentor, err := s.users.GetUser(ctx, template.MentorID)
	if err != nil {
		return persistence.Meetup{}, nil, mapRepoError(err)
	}
	if !containsLocation(mentor.MeetingLocations, input.Location) {
		return persistence.Meetup{}, nil, &ConflictError{Reason: ConflictLocationInvalid}
	}

	if !s.occurrenceExists(template, input.Start) {
		return persistence.Meetup{}, nil, ErrNoSuchOccurrence
	}

	createdAt := s.now()
	meetup := persistence.Meetup{
		ID:             s.idGenerator(),
		SlotTemplateID: template.ID,
		MentorID:       template.MentorID,
		MenteeID:       principal.UserID,
		Start:          input.Start,
		Location:       strings.TrimSpace(input.Location),
		Message:        input.Message,
		Status:         persistence.MeetupStatusPending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if err := s.meetups.CreateMeetup(ctx, meetup); err != nil {
		return persistence.Meetup{}, nil, mapRepoError(err)
	}

	warnings := s.notifyRequested(ctx, logger, meetup)

	logger.InfoContext(ctx, "meetup requested", "meetup_id", meetup.ID, "mentor_id", meetup.MentorID)
	return meetup, warnings, nil
}

// Confirm transitions a pending meetup owned by the acting mentor to
// confirmed, then notifies the mentee and materializes the booking in the
// mentor's external calendar. A notification or calendar failure is returned
// as a warning; the confirmation itself is never reverted.
func (s *BookingService) Confirm(ctx context.Context, principal Identity, meetupID string) (persistence.Meetup, []Warning, error) {
	if s == nil {
		return persistence.Meetup{}, nil, fmt.Errorf("BookingService is nil")
	}
	if principal.UserID == "" {
		return persistence.Meetup{}, nil, ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "booking", "confirm",
		"mentor_id", principal.UserID, "meetup_id", meetupID)

	meetup, err := s.meetups.ConfirmMeetup(ctx, meetupID, principal.UserID, s.now())
	if err != nil {
		return persistence.Meetup{}, nil, mapRepoError(err)
	}

	warnings := make([]Warning, 0, 2)
	if s.notifier != nil {
		if nErr := s.notifier.NotifyBookingConfirmed(ctx, meetup); nErr != nil {
			logger.ErrorContext(ctx, "confirmation notification failed", "error", nErr)
			warnings = append(warnings, Warning{Kind: WarningNotifyFailed, Detail: nErr.Error()})
		}
	}
	if s.calendar != nil {
		if cErr := s.calendar.MaterializeMeetup(ctx, meetup); cErr != nil {
			logger.ErrorContext(ctx, "calendar materialization failed", "error", cErr)
			warnings = append(warnings, Warning{Kind: WarningCalendarSyncFailed, Detail: cErr.Error()})
		}
	}
	if len(warnings) == 0 {
		warnings = nil
	}

	logger.InfoContext(ctx, "meetup confirmed")
	return meetup, warnings, nil
}

// Refuse transitions a pending meetup owned by the acting mentor to refused.
// No calendar side effect is triggered.
func (s *BookingService) Refuse(ctx context.Context, principal Identity, meetupID string) (persistence.Meetup, []Warning, error) {
	if s == nil {
		return persistence.Meetup{}, nil, fmt.Errorf("BookingService is nil")
	}
	if principal.UserID == "" {
		return persistence.Meetup{}, nil, ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "booking", "refuse",
		"mentor_id", principal.UserID, "meetup_id", meetupID)

	meetup, err := s.meetups.RefuseMeetup(ctx, meetupID, principal.UserID, s.now())
	if err != nil {
		return persistence.Meetup{}, nil, mapRepoError(err)
	}

	logger.InfoContext(ctx, "meetup refused")
	return meetup, nil, nil
}

// ListForMentee returns every meetup owned by the acting mentee, any status.
func (s *BookingService) ListForMentee(ctx context.Context, principal Identity) ([]persistence.Meetup, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	meetups, err := s.meetups.ListMeetupsForMentee(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(meetups) == 0 {
		return nil, ErrNotFound
	}
	return meetups, nil
}

// occurrenceExists reports whether start matches an expanded occurrence of
// template inside [now, start+24h).
func (s *BookingService) occurrenceExists(template persistence.SlotTemplate, start time.Time) bool {
	window := recurrence.Window{Start: s.now(), End: start.Add(24 * time.Hour)}
	occurrences := s.expander.Expand(recurrence.Template{
		ID:    template.ID,
		Start: template.Start,
		End:   template.End,
		Kind:  recurrence.Kind(template.Recurrence),
	}, window)

	for _, occ := range occurrences {
		if occ.Start.Equal(start) {
			return true
		}
	}
	return false
}

func (s *BookingService) notifyRequested(ctx context.Context, logger *slog.Logger, meetup persistence.Meetup) []Warning {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.NotifyBookingRequested(ctx, meetup); err != nil {
		logger.ErrorContext(ctx, "request notification failed", "error", err)
		return []Warning{{Kind: WarningNotifyFailed, Detail: err.Error()}}
	}
	return nil
}

func containsLocation(locations []string, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	for _, location := range locations {
		if strings.EqualFold(strings.TrimSpace(location), candidate) {
			return true
		}
	}
	return false
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOccurrenceBooked):
		return &ConflictError{Reason: ConflictAlreadyBooked}
	case errors.Is(err, persistence.ErrDuplicate):
		return &ConflictError{Reason: ConflictDuplicateRequest}
	}
	return err
}
