package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
	"github.com/example/mentorship-backend/internal/recurrence"
	"github.com/example/mentorship-backend/internal/testfixtures"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAvailabilityFixture(t *testing.T) (*AvailabilityService, *testfixtures.MemoryStore, *testfixtures.Clock) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	logger := testLogger()
	expander := recurrence.NewExpander(time.UTC, clock.NowFunc(), logger)
	service := NewAvailabilityService(store, store, expander, clock.NowFunc(), logger)
	return service, store, clock
}

func TestAvailabilityServiceBookableOccurrences(t *testing.T) {
	t.Parallel()

	// Clock starts Friday 2024-03-01 09:00 UTC; the template's first Monday
	// occurrence is 2024-03-04 10:00.
	monday := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

	t.Run("weekly template yields one occurrence per week", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newAvailabilityFixture(t)
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-1",
			MentorID:   "mentor-1",
			Start:      monday,
			End:        monday.Add(time.Hour),
			Recurrence: persistence.RecurrenceWeekly,
		})

		window := recurrence.Window{Start: monday.Add(-time.Hour), End: monday.AddDate(0, 0, 14)}
		occurrences, err := service.BookableOccurrences(context.Background(), "mentor-1", window)
		if err != nil {
			t.Fatalf("BookableOccurrences() error = %v", err)
		}
		if len(occurrences) != 2 {
			t.Fatalf("expected 2 occurrences, got %d", len(occurrences))
		}
		if !occurrences[0].Start.Equal(monday) {
			t.Errorf("first occurrence start = %v, want %v", occurrences[0].Start, monday)
		}
		if !occurrences[1].Start.Equal(monday.AddDate(0, 0, 7)) {
			t.Errorf("second occurrence start = %v, want %v", occurrences[1].Start, monday.AddDate(0, 0, 7))
		}
	})

	t.Run("confirmed occurrence is excluded", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newAvailabilityFixture(t)
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-1",
			MentorID:   "mentor-1",
			Start:      monday,
			End:        monday.Add(time.Hour),
			Recurrence: persistence.RecurrenceWeekly,
		})
		mustCreateMeetup(t, store, persistence.Meetup{
			ID:             "meetup-1",
			SlotTemplateID: "slot-1",
			MentorID:       "mentor-1",
			MenteeID:       "mentee-1",
			Start:          monday,
			Location:       "Online",
			Status:         persistence.MeetupStatusPending,
		})
		if _, err := store.ConfirmMeetup(context.Background(), "meetup-1", "mentor-1", monday); err != nil {
			t.Fatalf("ConfirmMeetup() error = %v", err)
		}

		window := recurrence.Window{Start: monday.Add(-time.Hour), End: monday.AddDate(0, 0, 14)}
		occurrences, err := service.BookableOccurrences(context.Background(), "mentor-1", window)
		if err != nil {
			t.Fatalf("BookableOccurrences() error = %v", err)
		}
		if len(occurrences) != 1 {
			t.Fatalf("expected 1 occurrence after confirmation, got %d", len(occurrences))
		}
		if !occurrences[0].Start.Equal(monday.AddDate(0, 0, 7)) {
			t.Errorf("remaining occurrence start = %v, want %v", occurrences[0].Start, monday.AddDate(0, 0, 7))
		}
	})

	t.Run("pending meetup does not hide the occurrence", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newAvailabilityFixture(t)
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-1",
			MentorID:   "mentor-1",
			Start:      monday,
			End:        monday.Add(time.Hour),
			Recurrence: persistence.RecurrenceUnique,
		})
		mustCreateMeetup(t, store, persistence.Meetup{
			ID:             "meetup-1",
			SlotTemplateID: "slot-1",
			MentorID:       "mentor-1",
			MenteeID:       "mentee-1",
			Start:          monday,
			Location:       "Online",
			Status:         persistence.MeetupStatusPending,
		})

		occurrences, err := service.BookableOccurrences(context.Background(), "mentor-1", recurrence.Window{Start: monday.Add(-time.Hour)})
		if err != nil {
			t.Fatalf("BookableOccurrences() error = %v", err)
		}
		if len(occurrences) != 1 {
			t.Fatalf("expected pending occurrence to stay bookable, got %d occurrences", len(occurrences))
		}
	})

	t.Run("started occurrences are dropped", func(t *testing.T) {
		t.Parallel()
		service, store, clock := newAvailabilityFixture(t)
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-1",
			MentorID:   "mentor-1",
			Start:      monday,
			End:        monday.Add(time.Hour),
			Recurrence: persistence.RecurrenceWeekly,
		})

		clock.Set(monday.Add(time.Minute))
		window := recurrence.Window{Start: monday.Add(-time.Hour), End: monday.AddDate(0, 0, 14)}
		occurrences, err := service.BookableOccurrences(context.Background(), "mentor-1", window)
		if err != nil {
			t.Fatalf("BookableOccurrences() error = %v", err)
		}
		if len(occurrences) != 1 {
			t.Fatalf("expected only the future occurrence, got %d", len(occurrences))
		}
		if !occurrences[0].Start.Equal(monday.AddDate(0, 0, 7)) {
			t.Errorf("occurrence start = %v, want %v", occurrences[0].Start, monday.AddDate(0, 0, 7))
		}
	})

	t.Run("results are sorted across templates", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newAvailabilityFixture(t)
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-later",
			MentorID:   "mentor-1",
			Start:      monday.Add(2 * time.Hour),
			End:        monday.Add(3 * time.Hour),
			Recurrence: persistence.RecurrenceUnique,
		})
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-earlier",
			MentorID:   "mentor-1",
			Start:      monday,
			End:        monday.Add(time.Hour),
			Recurrence: persistence.RecurrenceUnique,
		})

		occurrences, err := service.BookableOccurrences(context.Background(), "mentor-1", recurrence.Window{Start: monday.Add(-time.Hour)})
		if err != nil {
			t.Fatalf("BookableOccurrences() error = %v", err)
		}
		if len(occurrences) != 2 {
			t.Fatalf("expected 2 occurrences, got %d", len(occurrences))
		}
		if occurrences[0].SlotTemplateID != "slot-earlier" || occurrences[1].SlotTemplateID != "slot-later" {
			t.Errorf("unexpected order: %s before %s", occurrences[0].SlotTemplateID, occurrences[1].SlotTemplateID)
		}
	})

	t.Run("missing mentor id fails validation", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newAvailabilityFixture(t)
		_, err := service.BookableOccurrences(context.Background(), "", recurrence.Window{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["mentor_id"]; !ok {
			t.Errorf("expected mentor_id field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("mentor without templates yields empty set", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newAvailabilityFixture(t)
		occurrences, err := service.BookableOccurrences(context.Background(), "mentor-unknown", recurrence.Window{})
		if err != nil {
			t.Fatalf("BookableOccurrences() error = %v", err)
		}
		if len(occurrences) != 0 {
			t.Errorf("expected no occurrences, got %d", len(occurrences))
		}
	})
}

func mustCreateSlot(t *testing.T, store *testfixtures.MemoryStore, template persistence.SlotTemplate) {
	t.Helper()
	if err := store.CreateSlotTemplate(context.Background(), template); err != nil {
		t.Fatalf("CreateSlotTemplate(%s) error = %v", template.ID, err)
	}
}

func mustCreateMeetup(t *testing.T, store *testfixtures.MemoryStore, meetup persistence.Meetup) {
	t.Helper()
	if err := store.CreateMeetup(context.Background(), meetup); err != nil {
		t.Fatalf("CreateMeetup(%s) error = %v", meetup.ID, err)
	}
}
