package calendar_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/mentorship-backend/internal/calendar"
	"github.com/example/mentorship-backend/internal/persistence"
	"github.com/example/mentorship-backend/internal/testfixtures"
)

type adapterFixture struct {
	adapter   *calendar.SyncAdapter
	store     *testfixtures.MemoryStore
	service   *testfixtures.FakeCalendarService
	refresher *testfixtures.FakeTokenRefresher
	clock     *testfixtures.Clock
}

func newAdapterFixture(t *testing.T) *adapterFixture {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	service := testfixtures.NewFakeCalendarService()
	refresher := &testfixtures.FakeTokenRefresher{AccessToken: "fresh-token"}
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("event")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapter := calendar.NewSyncAdapter(service, refresher, store, store, store, time.Second, ids.NextFunc(), clock.NowFunc(), logger)
	return &adapterFixture{adapter: adapter, store: store, service: service, refresher: refresher, clock: clock}
}

func (f *adapterFixture) linkMentor(t *testing.T, mentorID string) {
	t.Helper()
	err := f.store.UpsertCredentials(context.Background(), persistence.Credentials{
		MentorID:     mentorID,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
	})
	if err != nil {
		t.Fatalf("UpsertCredentials() error = %v", err)
	}
}

func TestSyncAdapterAddSlots(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

	t.Run("mirrors each block as event plus unique template", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")

		persisted, err := fixture.adapter.AddSlots(context.Background(), "mentor-1", []persistence.SlotTemplate{
			{MentorID: "mentor-1", Start: start, End: start.Add(3*time.Hour + 30*time.Minute), Recurrence: persistence.RecurrenceUnique},
		})
		if err != nil {
			t.Fatalf("AddSlots() error = %v", err)
		}
		// 3h30m decomposes into 2h + 1h + 30m.
		if len(persisted) != 3 {
			t.Fatalf("expected 3 mirrored templates, got %d", len(persisted))
		}
		if inserted := fixture.service.InsertedIDs(); len(inserted) != 3 {
			t.Fatalf("expected 3 external events, got %d", len(inserted))
		}
		for _, template := range persisted {
			if template.Recurrence != persistence.RecurrenceUnique {
				t.Errorf("mirrored template %s recurrence = %s, want unique", template.ID, template.Recurrence)
			}
			if _, exists := fixture.service.Event(template.ID); !exists {
				t.Errorf("no external event shares template id %s", template.ID)
			}
			if _, err := fixture.store.GetSlotTemplate(context.Background(), template.ID); err != nil {
				t.Errorf("mirrored template %s not persisted: %v", template.ID, err)
			}
		}
	})

	t.Run("refresh happens before the operation and is persisted", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")

		_, err := fixture.adapter.AddSlots(context.Background(), "mentor-1", []persistence.SlotTemplate{
			{MentorID: "mentor-1", Start: start, End: start.Add(time.Hour)},
		})
		if err != nil {
			t.Fatalf("AddSlots() error = %v", err)
		}
		if fixture.refresher.Calls() != 1 {
			t.Errorf("refresh calls = %d, want 1", fixture.refresher.Calls())
		}
		creds, err := fixture.store.GetCredentials(context.Background(), "mentor-1")
		if err != nil {
			t.Fatalf("GetCredentials() error = %v", err)
		}
		if creds.AccessToken != "fresh-token" {
			t.Errorf("stored access token = %q, want refreshed value", creds.AccessToken)
		}
	})

	t.Run("refresh failure aborts with auth error", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")
		fixture.refresher.Err = errors.New("invalid_grant")

		_, err := fixture.adapter.AddSlots(context.Background(), "mentor-1", []persistence.SlotTemplate{
			{MentorID: "mentor-1", Start: start, End: start.Add(time.Hour)},
		})
		if !errors.Is(err, calendar.ErrExternalAuth) {
			t.Fatalf("expected ErrExternalAuth, got %v", err)
		}
		if len(fixture.service.InsertedIDs()) != 0 {
			t.Errorf("no events should be inserted after failed refresh")
		}
	})

	t.Run("unlinked mentor fails with auth error", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		_, err := fixture.adapter.AddSlots(context.Background(), "mentor-unlinked", nil)
		if !errors.Is(err, calendar.ErrExternalAuth) {
			t.Fatalf("expected ErrExternalAuth, got %v", err)
		}
	})

	t.Run("insert failure returns the blocks mirrored so far", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")
		fixture.service.InsertErr = errors.New("quota exceeded")

		persisted, err := fixture.adapter.AddSlots(context.Background(), "mentor-1", []persistence.SlotTemplate{
			{MentorID: "mentor-1", Start: start, End: start.Add(time.Hour)},
		})
		if err == nil {
			t.Fatal("expected insert error")
		}
		var svcErr *calendar.ServiceError
		if !errors.As(err, &svcErr) {
			t.Fatalf("expected ServiceError, got %v", err)
		}
		if len(persisted) != 0 {
			t.Errorf("expected no mirrored templates, got %d", len(persisted))
		}
	})
}

func TestSyncAdapterDeleteSlots(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

	seedMirrored := func(t *testing.T, fixture *adapterFixture, ids ...string) {
		t.Helper()
		for _, id := range ids {
			fixture.service.Seed(calendar.Event{ID: id, Start: start, End: start.Add(time.Hour)})
			mustCreateTemplate(t, fixture.store, persistence.SlotTemplate{
				ID:         id,
				MentorID:   "mentor-1",
				Start:      start,
				End:        start.Add(time.Hour),
				Recurrence: persistence.RecurrenceUnique,
			})
		}
	}

	t.Run("removes event and template per id", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")
		seedMirrored(t, fixture, "block-1", "block-2")

		if err := fixture.adapter.DeleteSlots(context.Background(), "mentor-1", []string{"block-1", "block-2"}); err != nil {
			t.Fatalf("DeleteSlots() error = %v", err)
		}
		for _, id := range []string{"block-1", "block-2"} {
			if _, exists := fixture.service.Event(id); exists {
				t.Errorf("event %s should be gone", id)
			}
			if _, err := fixture.store.GetSlotTemplate(context.Background(), id); !errors.Is(err, persistence.ErrNotFound) {
				t.Errorf("template %s should be gone, got %v", id, err)
			}
		}
	})

	t.Run("one failure does not abort the batch", func(t *testing.T) {
		t.Parallel()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")
		seedMirrored(t, fixture, "block-1", "block-2", "block-3")
		fixture.service.DeleteErrs = map[string]error{"block-2": errors.New("upstream 500")}

		err := fixture.adapter.DeleteSlots(context.Background(), "mentor-1", []string{"block-1", "block-2", "block-3"})
		var batchErr *calendar.DeleteBatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("expected DeleteBatchError, got %v", err)
		}
		if len(batchErr.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(batchErr.Failures))
		}
		if _, failed := batchErr.Failures["block-2"]; !failed {
			t.Errorf("expected block-2 to be the failed id, got %v", batchErr.Failures)
		}

		// The failed entry survives on both sides for reconciliation.
		if _, exists := fixture.service.Event("block-2"); !exists {
			t.Errorf("failed event must remain externally")
		}
		if _, err := fixture.store.GetSlotTemplate(context.Background(), "block-2"); err != nil {
			t.Errorf("failed template must remain locally: %v", err)
		}
		for _, id := range []string{"block-1", "block-3"} {
			if _, err := fixture.store.GetSlotTemplate(context.Background(), id); !errors.Is(err, persistence.ErrNotFound) {
				t.Errorf("template %s should be gone, got %v", id, err)
			}
		}
	})
}

func TestSyncAdapterMaterializeMeetup(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

	newConfirmedFixture := func(t *testing.T) (*adapterFixture, persistence.Meetup) {
		t.Helper()
		fixture := newAdapterFixture(t)
		fixture.linkMentor(t, "mentor-1")
		ctx := context.Background()
		for _, user := range []persistence.User{
			{ID: "mentor-1", Role: persistence.RoleMentor, Email: "mentor@example.com"},
			{ID: "mentee-1", Role: persistence.RoleMentee, Email: "mentee@example.com"},
		} {
			if err := fixture.store.CreateUser(ctx, user); err != nil {
				t.Fatalf("CreateUser(%s) error = %v", user.ID, err)
			}
		}
		fixture.service.Seed(calendar.Event{ID: "block-1", Start: start, End: start.Add(30 * time.Minute)})
		mustCreateTemplate(t, fixture.store, persistence.SlotTemplate{
			ID:         "block-1",
			MentorID:   "mentor-1",
			Start:      start,
			End:        start.Add(30 * time.Minute),
			Recurrence: persistence.RecurrenceUnique,
		})
		message := "Looking forward to it"
		return fixture, persistence.Meetup{
			ID:             "meetup-1",
			SlotTemplateID: "block-1",
			MentorID:       "mentor-1",
			MenteeID:       "mentee-1",
			Start:          start,
			Location:       "Online",
			Message:        &message,
			Status:         persistence.MeetupStatusConfirmed,
		}
	}

	t.Run("replaces the slot event with a meetup event", func(t *testing.T) {
		t.Parallel()
		fixture, meetup := newConfirmedFixture(t)

		if err := fixture.adapter.MaterializeMeetup(context.Background(), meetup); err != nil {
			t.Fatalf("MaterializeMeetup() error = %v", err)
		}
		if _, exists := fixture.service.Event("block-1"); exists {
			t.Errorf("consumed slot event should be deleted")
		}

		inserted := fixture.service.InsertedIDs()
		if len(inserted) != 1 {
			t.Fatalf("expected 1 inserted event, got %d", len(inserted))
		}
		event, _ := fixture.service.Event(inserted[0])
		if len(event.Attendees) != 2 {
			t.Errorf("attendees = %v, want both participants", event.Attendees)
		}
		if event.Description != "Looking forward to it" {
			t.Errorf("description = %q, want the mentee message", event.Description)
		}
		if got := event.End.Sub(event.Start); got != 30*time.Minute {
			t.Errorf("event duration = %v, want the slot's 30m", got)
		}
	})

	t.Run("missing slot event does not block materialization", func(t *testing.T) {
		t.Parallel()
		fixture, meetup := newConfirmedFixture(t)
		fixture.service.DeleteErrs = map[string]error{"block-1": errors.New("404 not found")}

		if err := fixture.adapter.MaterializeMeetup(context.Background(), meetup); err != nil {
			t.Fatalf("MaterializeMeetup() error = %v", err)
		}
		if len(fixture.service.InsertedIDs()) != 1 {
			t.Errorf("meetup event must still be inserted")
		}
	})

	t.Run("duration falls back to one hour without the template", func(t *testing.T) {
		t.Parallel()
		fixture, meetup := newConfirmedFixture(t)
		if err := fixture.store.DeleteSlotTemplate(context.Background(), "block-1"); err != nil {
			t.Fatalf("DeleteSlotTemplate() error = %v", err)
		}

		if err := fixture.adapter.MaterializeMeetup(context.Background(), meetup); err != nil {
			t.Fatalf("MaterializeMeetup() error = %v", err)
		}
		inserted := fixture.service.InsertedIDs()
		if len(inserted) != 1 {
			t.Fatalf("expected 1 inserted event, got %d", len(inserted))
		}
		event, _ := fixture.service.Event(inserted[0])
		if got := event.End.Sub(event.Start); got != time.Hour {
			t.Errorf("event duration = %v, want 1h fallback", got)
		}
	})
}

func TestSyncAdapterListFutureEvents(t *testing.T) {
	t.Parallel()

	fixture := newAdapterFixture(t)
	fixture.linkMentor(t, "mentor-1")
	now := fixture.clock.Now()
	fixture.service.Seed(
		calendar.Event{ID: "past", Start: now.Add(-time.Hour), End: now.Add(-30 * time.Minute)},
		calendar.Event{ID: "future", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
	)

	events, err := fixture.adapter.ListFutureEvents(context.Background(), "mentor-1")
	if err != nil {
		t.Fatalf("ListFutureEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != "future" {
		t.Errorf("expected only the future event, got %v", events)
	}
}

func mustCreateTemplate(t *testing.T, store *testfixtures.MemoryStore, template persistence.SlotTemplate) {
	t.Helper()
	if err := store.CreateSlotTemplate(context.Background(), template); err != nil {
		t.Fatalf("CreateSlotTemplate(%s) error = %v", template.ID, err)
	}
}
