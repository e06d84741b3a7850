package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
	"github.com/example/mentorship-backend/internal/recurrence"
)

// AvailabilityService resolves the bookable occurrence set for a mentor by
// combining expanded slot templates with confirmed booking state.
type AvailabilityService struct {
	slots    persistence.SlotTemplateRepository
	meetups  persistence.MeetupRepository
	expander *recurrence.Expander
	now      func() time.Time
	logger   *slog.Logger
}

// NewAvailabilityService wires dependencies for availability queries.
func NewAvailabilityService(slots persistence.SlotTemplateRepository, meetups persistence.MeetupRepository, expander *recurrence.Expander, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityService{
		slots:    slots,
		meetups:  meetups,
		expander: expander,
		now:      now,
		logger:   logger,
	}
}

// BookableOccurrences returns the chronologically sorted, deduplicated
// occurrences of mentorID that carry no confirmed meetup and have not yet
// started. Occurrences are regenerated on every query; nothing is persisted.
func (s *AvailabilityService) BookableOccurrences(ctx context.Context, mentorID string, window recurrence.Window) ([]Occurrence, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	if mentorID == "" {
		vErr := &ValidationError{}
		vErr.add("mentor_id", "mentor id is required")
		return nil, vErr
	}

	logger := serviceLogger(ctx, s.logger, "availability", "bookable_occurrences", "mentor_id", mentorID)

	templates, err := s.slots.ListSlotTemplatesForMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("list slot templates: %w", err)
	}

	confirmed, err := s.confirmedOccurrenceSet(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	seen := make(map[occurrenceKey]struct{})
	bookable := make([]Occurrence, 0)

	for _, template := range templates {
		expanded := s.expander.Expand(recurrence.Template{
			ID:    template.ID,
			Start: template.Start,
			End:   template.End,
			Kind:  recurrence.Kind(template.Recurrence),
		}, window)

		for _, occ := range expanded {
			if occ.Start.Before(now) {
				continue
			}
			key := occurrenceKey{templateID: occ.TemplateID, start: occ.Start.Unix()}
			if _, ok := confirmed[key]; ok {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			bookable = append(bookable, Occurrence{
				SlotTemplateID: occ.TemplateID,
				MentorID:       mentorID,
				Start:          occ.Start,
				End:            occ.End,
			})
		}
	}

	sort.Slice(bookable, func(i, j int) bool {
		if bookable[i].Start.Equal(bookable[j].Start) {
			return bookable[i].SlotTemplateID < bookable[j].SlotTemplateID
		}
		return bookable[i].Start.Before(bookable[j].Start)
	})

	logger.DebugContext(ctx, "resolved bookable occurrences", "count", len(bookable))
	return bookable, nil
}

type occurrenceKey struct {
	templateID string
	start      int64
}

func (s *AvailabilityService) confirmedOccurrenceSet(ctx context.Context, mentorID string) (map[occurrenceKey]struct{}, error) {
	meetups, err := s.meetups.ListConfirmedMeetupsForMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed meetups: %w", err)
	}

	set := make(map[occurrenceKey]struct{}, len(meetups))
	for _, meetup := range meetups {
		set[occurrenceKey{templateID: meetup.SlotTemplateID, start: meetup.Start.Unix()}] = struct{}{}
	}
	return set, nil
}
