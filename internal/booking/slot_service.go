package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
)

// CalendarSlotSync mirrors slot template changes into a mentor's external
// calendar. AddSlots persists the mirrored (chunked) templates itself and
// returns them; DeleteSlots removes external events and local templates.
type CalendarSlotSync interface {
	AddSlots(ctx context.Context, mentorID string, templates []persistence.SlotTemplate) ([]persistence.SlotTemplate, error)
	DeleteSlots(ctx context.Context, mentorID string, ids []string) error
}

// SlotService applies batches of added and removed availability templates for
// a mentor. Mentors with linked calendar credentials go through the sync
// adapter; unlinked mentors are served purely from local storage.
type SlotService struct {
	slots       persistence.SlotTemplateRepository
	credentials persistence.CredentialRepository
	calendar    CalendarSlotSync
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSlotService wires dependencies for slot batch application.
func NewSlotService(slots persistence.SlotTemplateRepository, credentials persistence.CredentialRepository, calendar CalendarSlotSync, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SlotService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SlotService{
		slots:       slots,
		credentials: credentials,
		calendar:    calendar,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// ApplySlots applies a batch of availability changes owned by the acting
// mentor. Additions are applied before removals so a batch that replaces a
// template never leaves the mentor without coverage.
func (s *SlotService) ApplySlots(ctx context.Context, params ApplySlotsParams) (ApplySlotsResult, error) {
	if s == nil {
		return ApplySlotsResult{}, fmt.Errorf("SlotService is nil")
	}

	principal := params.Principal
	if principal.UserID == "" {
		return ApplySlotsResult{}, ErrUnauthorized
	}
	if principal.UserID != params.MentorID {
		return ApplySlotsResult{}, ErrForbidden
	}

	logger := serviceLogger(ctx, s.logger, "slots", "apply",
		"mentor_id", params.MentorID, "added", len(params.Added), "removed", len(params.RemovedIDs))

	if err := validateSlotInputs(params.Added); err != nil {
		return ApplySlotsResult{}, err
	}

	createdAt := s.now()
	templates := make([]persistence.SlotTemplate, 0, len(params.Added))
	for _, input := range params.Added {
		templates = append(templates, persistence.SlotTemplate{
			ID:         s.idGenerator(),
			MentorID:   params.MentorID,
			Start:      input.Start,
			End:        input.End,
			Recurrence: input.Recurrence,
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		})
	}

	linked, err := s.calendarLinked(ctx, params.MentorID)
	if err != nil {
		return ApplySlotsResult{}, err
	}

	if linked && s.calendar != nil {
		return s.applySynced(ctx, logger, params, templates)
	}
	return s.applyLocal(ctx, logger, params, templates)
}

func (s *SlotService) applySynced(ctx context.Context, logger *slog.Logger, params ApplySlotsParams, templates []persistence.SlotTemplate) (ApplySlotsResult, error) {
	result := ApplySlotsResult{}

	if len(templates) > 0 {
		added, err := s.calendar.AddSlots(ctx, params.MentorID, templates)
		if err != nil {
			return ApplySlotsResult{}, err
		}
		result.Added = added
	}

	if len(params.RemovedIDs) > 0 {
		if err := s.calendar.DeleteSlots(ctx, params.MentorID, params.RemovedIDs); err != nil {
			// Partial deletion failures are reported collectively; the
			// successfully removed ids are already gone.
			return result, err
		}
		result.RemovedIDs = params.RemovedIDs
	}

	logger.InfoContext(ctx, "applied slot batch through calendar sync")
	return result, nil
}

func (s *SlotService) applyLocal(ctx context.Context, logger *slog.Logger, params ApplySlotsParams, templates []persistence.SlotTemplate) (ApplySlotsResult, error) {
	result := ApplySlotsResult{}

	for _, template := range templates {
		if err := s.slots.CreateSlotTemplate(ctx, template); err != nil {
			return result, mapRepoError(err)
		}
		result.Added = append(result.Added, template)
	}

	for _, id := range params.RemovedIDs {
		template, err := s.slots.GetSlotTemplate(ctx, id)
		if err != nil {
			return result, mapRepoError(err)
		}
		if template.MentorID != params.MentorID {
			return result, ErrForbidden
		}
		if err := s.slots.DeleteSlotTemplate(ctx, id); err != nil {
			return result, mapRepoError(err)
		}
		result.RemovedIDs = append(result.RemovedIDs, id)
	}

	logger.InfoContext(ctx, "applied slot batch locally")
	return result, nil
}

func (s *SlotService) calendarLinked(ctx context.Context, mentorID string) (bool, error) {
	if s.credentials == nil {
		return false, nil
	}
	_, err := s.credentials.GetCredentials(ctx, mentorID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load credentials: %w", err)
	}
	return true, nil
}

func validateSlotInputs(inputs []SlotTemplateInput) error {
	vErr := &ValidationError{}
	for i, input := range inputs {
		if input.Start.IsZero() {
			vErr.add(fmt.Sprintf("added[%d].start", i), "start is required")
		}
		if input.End.IsZero() {
			vErr.add(fmt.Sprintf("added[%d].end", i), "end is required")
		}
		switch input.Recurrence {
		case persistence.RecurrenceDaily, persistence.RecurrenceWeekly, persistence.RecurrenceMonthly, persistence.RecurrenceUnique:
		default:
			vErr.add(fmt.Sprintf("added[%d].recurrence", i), "unknown recurrence kind")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
