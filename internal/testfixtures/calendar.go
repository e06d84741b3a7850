package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/mentorship-backend/internal/calendar"
	"github.com/example/mentorship-backend/internal/persistence"
)

// FakeCalendarService is an in-memory stand-in for the external calendar API.
// Tests can inject per-operation failures and inspect the stored events.
type FakeCalendarService struct {
	mu     sync.Mutex
	events map[string]calendar.Event

	// When set, the matching operation fails with the stored error.
	ListErr   error
	InsertErr error
	// DeleteErrs maps event ids to the error their deletion should fail with.
	DeleteErrs map[string]error

	inserted []string
	deleted  []string
}

// NewFakeCalendarService creates an empty fake calendar.
func NewFakeCalendarService() *FakeCalendarService {
	return &FakeCalendarService{events: make(map[string]calendar.Event)}
}

// ListEvents returns stored events overlapping the requested range.
func (f *FakeCalendarService) ListEvents(_ context.Context, _ string, from, to time.Time, _ int64) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	events := make([]calendar.Event, 0)
	for _, event := range f.events {
		if event.Start.Before(from) {
			continue
		}
		if !to.IsZero() && !event.Start.Before(to) {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

// InsertEvent stores a new event.
func (f *FakeCalendarService) InsertEvent(_ context.Context, _ string, event calendar.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.events[event.ID] = event
	f.inserted = append(f.inserted, event.ID)
	return nil
}

// DeleteEvent removes a stored event. Deleting an unknown id succeeds, which
// matches the adapter's treatment of already-gone events.
func (f *FakeCalendarService) DeleteEvent(_ context.Context, _ string, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, failed := f.DeleteErrs[eventID]; failed {
		return err
	}
	delete(f.events, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

// Seed stores events directly, bypassing failure injection.
func (f *FakeCalendarService) Seed(events ...calendar.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, event := range events {
		f.events[event.ID] = event
	}
}

// Event returns the stored event for id and whether it exists.
func (f *FakeCalendarService) Event(id string) (calendar.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, exists := f.events[id]
	return event, exists
}

// InsertedIDs returns the ids of events inserted through the service, in order.
func (f *FakeCalendarService) InsertedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inserted...)
}

// DeletedIDs returns the ids of events deleted through the service, in order.
func (f *FakeCalendarService) DeletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// FakeTokenRefresher returns a fixed access token for every refresh.
type FakeTokenRefresher struct {
	mu sync.Mutex

	// AccessToken is handed out on every successful refresh.
	AccessToken string
	// Err, when set, fails every refresh.
	Err error

	calls int
}

// Refresh exchanges the stored credentials for ones carrying AccessToken.
func (f *FakeTokenRefresher) Refresh(_ context.Context, creds persistence.Credentials) (persistence.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return persistence.Credentials{}, f.Err
	}
	refreshed := creds
	refreshed.AccessToken = f.AccessToken
	return refreshed, nil
}

// Calls reports how many refreshes were attempted.
func (f *FakeTokenRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// NotificationRecord captures one delivered notification.
type NotificationRecord struct {
	Kind     string
	MeetupID string
}

// RecordingNotifier captures notifications and optionally fails them.
type RecordingNotifier struct {
	mu sync.Mutex

	// Err, when set, fails every delivery.
	Err error

	records []NotificationRecord
}

// NotifyBookingRequested records a booking-requested notification.
func (n *RecordingNotifier) NotifyBookingRequested(_ context.Context, meetup persistence.Meetup) error {
	return n.record("booking-requested", meetup.ID)
}

// NotifyBookingConfirmed records a booking-confirmed notification.
func (n *RecordingNotifier) NotifyBookingConfirmed(_ context.Context, meetup persistence.Meetup) error {
	return n.record("booking-confirmed", meetup.ID)
}

// Records returns the captured notifications in delivery order.
func (n *RecordingNotifier) Records() []NotificationRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotificationRecord(nil), n.records...)
}

func (n *RecordingNotifier) record(kind, meetupID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.records = append(n.records, NotificationRecord{Kind: kind, MeetupID: meetupID})
	return nil
}
