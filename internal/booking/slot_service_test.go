package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
	"github.com/example/mentorship-backend/internal/testfixtures"
)

type fakeSlotSync struct {
	added      []persistence.SlotTemplate
	deletedIDs []string
	addErr     error
	deleteErr  error
}

func (f *fakeSlotSync) AddSlots(_ context.Context, _ string, templates []persistence.SlotTemplate) ([]persistence.SlotTemplate, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, templates...)
	return templates, nil
}

func (f *fakeSlotSync) DeleteSlots(_ context.Context, _ string, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, ids...)
	return nil
}

func newSlotFixture(t *testing.T) (*SlotService, *testfixtures.MemoryStore, *fakeSlotSync) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	sync := &fakeSlotSync{}
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("slot")
	service := NewSlotService(store, store, sync, ids.NextFunc(), clock.NowFunc(), testLogger())
	return service, store, sync
}

func TestSlotServiceApplySlots(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	mentor := Identity{UserID: "mentor-1", Role: persistence.RoleMentor}

	t.Run("unlinked mentor writes locally", func(t *testing.T) {
		t.Parallel()
		service, store, sync := newSlotFixture(t)

		result, err := service.ApplySlots(context.Background(), ApplySlotsParams{
			Principal: mentor,
			MentorID:  "mentor-1",
			Added: []SlotTemplateInput{
				{Start: start, End: start.Add(time.Hour), Recurrence: persistence.RecurrenceWeekly},
			},
		})
		if err != nil {
			t.Fatalf("ApplySlots() error = %v", err)
		}
		if len(result.Added) != 1 {
			t.Fatalf("expected 1 added template, got %d", len(result.Added))
		}
		if len(sync.added) != 0 {
			t.Errorf("calendar sync should not be used for unlinked mentors")
		}
		templates, err := store.ListSlotTemplatesForMentor(context.Background(), "mentor-1")
		if err != nil {
			t.Fatalf("ListSlotTemplatesForMentor() error = %v", err)
		}
		if len(templates) != 1 || templates[0].Recurrence != persistence.RecurrenceWeekly {
			t.Errorf("unexpected stored templates: %v", templates)
		}
	})

	t.Run("linked mentor goes through calendar sync", func(t *testing.T) {
		t.Parallel()
		service, store, sync := newSlotFixture(t)
		mustUpsertCredentials(t, store, "mentor-1")

		result, err := service.ApplySlots(context.Background(), ApplySlotsParams{
			Principal: mentor,
			MentorID:  "mentor-1",
			Added: []SlotTemplateInput{
				{Start: start, End: start.Add(time.Hour), Recurrence: persistence.RecurrenceUnique},
			},
			RemovedIDs: []string{"slot-old"},
		})
		if err != nil {
			t.Fatalf("ApplySlots() error = %v", err)
		}
		if len(sync.added) != 1 {
			t.Errorf("expected 1 template routed to sync, got %d", len(sync.added))
		}
		if len(sync.deletedIDs) != 1 || sync.deletedIDs[0] != "slot-old" {
			t.Errorf("expected slot-old routed to sync deletion, got %v", sync.deletedIDs)
		}
		if len(result.RemovedIDs) != 1 {
			t.Errorf("expected 1 removed id in result, got %v", result.RemovedIDs)
		}
	})

	t.Run("sync deletion failure still reports applied additions", func(t *testing.T) {
		t.Parallel()
		service, store, sync := newSlotFixture(t)
		mustUpsertCredentials(t, store, "mentor-1")
		sync.deleteErr = errors.New("upstream 503")

		result, err := service.ApplySlots(context.Background(), ApplySlotsParams{
			Principal: mentor,
			MentorID:  "mentor-1",
			Added: []SlotTemplateInput{
				{Start: start, End: start.Add(time.Hour), Recurrence: persistence.RecurrenceUnique},
			},
			RemovedIDs: []string{"slot-old"},
		})
		if err == nil {
			t.Fatal("expected deletion error")
		}
		if len(result.Added) != 1 {
			t.Errorf("expected additions to survive the failed removal, got %v", result.Added)
		}
		if len(result.RemovedIDs) != 0 {
			t.Errorf("expected no removed ids, got %v", result.RemovedIDs)
		}
	})

	t.Run("local removal checks ownership", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSlotFixture(t)
		mustCreateSlot(t, store, persistence.SlotTemplate{
			ID:         "slot-other",
			MentorID:   "mentor-2",
			Start:      start,
			End:        start.Add(time.Hour),
			Recurrence: persistence.RecurrenceUnique,
		})

		_, err := service.ApplySlots(context.Background(), ApplySlotsParams{
			Principal:  mentor,
			MentorID:   "mentor-1",
			RemovedIDs: []string{"slot-other"},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if _, getErr := store.GetSlotTemplate(context.Background(), "slot-other"); getErr != nil {
			t.Errorf("foreign template must survive: %v", getErr)
		}
	})

	t.Run("acting for another mentor is forbidden", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newSlotFixture(t)
		_, err := service.ApplySlots(context.Background(), ApplySlotsParams{
			Principal: mentor,
			MentorID:  "mentor-2",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("invalid inputs fail validation", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newSlotFixture(t)
		_, err := service.ApplySlots(context.Background(), ApplySlotsParams{
			Principal: mentor,
			MentorID:  "mentor-1",
			Added: []SlotTemplateInput{
				{Recurrence: persistence.Recurrence("fortnightly")},
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"added[0].start", "added[0].end", "added[0].recurrence"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func mustUpsertCredentials(t *testing.T, store *testfixtures.MemoryStore, mentorID string) {
	t.Helper()
	err := store.UpsertCredentials(context.Background(), persistence.Credentials{
		MentorID:     mentorID,
		AccessToken:  "access",
		RefreshToken: "refresh",
	})
	if err != nil {
		t.Fatalf("UpsertCredentials() error = %v", err)
	}
}
