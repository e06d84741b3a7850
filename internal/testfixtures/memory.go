package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
)

// MemoryStore is an in-memory implementation of the persistence repositories.
// It mirrors the SQLite layer's behaviour, including the booking exclusivity
// invariants, so service tests can exercise concurrency without a database.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]persistence.User
	slots       map[string]persistence.SlotTemplate
	meetups     map[string]persistence.Meetup
	credentials map[string]persistence.Credentials
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]persistence.User),
		slots:       make(map[string]persistence.SlotTemplate),
		meetups:     make(map[string]persistence.Meetup),
		credentials: make(map[string]persistence.Credentials),
	}
}

// CreateUser stores a new account.
func (s *MemoryStore) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return persistence.ErrDuplicate
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// UpdateUser replaces an existing account.
func (s *MemoryStore) UpdateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; !exists {
		return persistence.ErrNotFound
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUser retrieves an account by id.
func (s *MemoryStore) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, exists := s.users[id]
	if !exists {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

// ListUsers returns every stored account ordered by id.
func (s *MemoryStore) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateSlotTemplate stores a new availability rule.
func (s *MemoryStore) CreateSlotTemplate(_ context.Context, template persistence.SlotTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slots[template.ID]; exists {
		return persistence.ErrDuplicate
	}
	s.slots[template.ID] = template
	return nil
}

// GetSlotTemplate retrieves an availability rule by id.
func (s *MemoryStore) GetSlotTemplate(_ context.Context, id string) (persistence.SlotTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, exists := s.slots[id]
	if !exists {
		return persistence.SlotTemplate{}, persistence.ErrNotFound
	}
	return template, nil
}

// ListSlotTemplatesForMentor returns a mentor's rules ordered by start.
func (s *MemoryStore) ListSlotTemplatesForMentor(_ context.Context, mentorID string) ([]persistence.SlotTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates := make([]persistence.SlotTemplate, 0)
	for _, template := range s.slots {
		if template.MentorID == mentorID {
			templates = append(templates, template)
		}
	}
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].Start.Equal(templates[j].Start) {
			return templates[i].ID < templates[j].ID
		}
		return templates[i].Start.Before(templates[j].Start)
	})
	return templates, nil
}

// DeleteSlotTemplate removes an availability rule by id.
func (s *MemoryStore) DeleteSlotTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slots[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(s.slots, id)
	return nil
}

// CreateMeetup inserts a booking record, enforcing occurrence exclusivity
// under the store lock.
func (s *MemoryStore) CreateMeetup(_ context.Context, meetup persistence.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.meetups {
		if existing.SlotTemplateID != meetup.SlotTemplateID || !existing.Start.Equal(meetup.Start) {
			continue
		}
		if existing.Status == persistence.MeetupStatusConfirmed {
			return persistence.ErrOccurrenceBooked
		}
		if existing.Status == persistence.MeetupStatusPending && existing.MenteeID == meetup.MenteeID {
			return persistence.ErrDuplicate
		}
	}
	s.meetups[meetup.ID] = cloneMeetup(meetup)
	return nil
}

// GetMeetup retrieves a booking record by id.
func (s *MemoryStore) GetMeetup(_ context.Context, id string) (persistence.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetup, exists := s.meetups[id]
	if !exists {
		return persistence.Meetup{}, persistence.ErrNotFound
	}
	return cloneMeetup(meetup), nil
}

// ConfirmMeetup transitions a pending meetup to confirmed as one atomic step.
func (s *MemoryStore) ConfirmMeetup(_ context.Context, id, mentorID string, at time.Time) (persistence.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetup, exists := s.meetups[id]
	if !exists || meetup.MentorID != mentorID || meetup.Status != persistence.MeetupStatusPending {
		return persistence.Meetup{}, persistence.ErrNotFound
	}
	for _, existing := range s.meetups {
		if existing.ID != id &&
			existing.SlotTemplateID == meetup.SlotTemplateID &&
			existing.Start.Equal(meetup.Start) &&
			existing.Status == persistence.MeetupStatusConfirmed {
			return persistence.Meetup{}, persistence.ErrOccurrenceBooked
		}
	}
	meetup.Status = persistence.MeetupStatusConfirmed
	meetup.UpdatedAt = at
	s.meetups[id] = meetup
	return cloneMeetup(meetup), nil
}

// RefuseMeetup transitions a pending meetup to refused.
func (s *MemoryStore) RefuseMeetup(_ context.Context, id, mentorID string, at time.Time) (persistence.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetup, exists := s.meetups[id]
	if !exists || meetup.MentorID != mentorID || meetup.Status != persistence.MeetupStatusPending {
		return persistence.Meetup{}, persistence.ErrNotFound
	}
	meetup.Status = persistence.MeetupStatusRefused
	meetup.UpdatedAt = at
	s.meetups[id] = meetup
	return cloneMeetup(meetup), nil
}

// ListMeetupsForMentee returns the mentee's booking records, any status.
func (s *MemoryStore) ListMeetupsForMentee(_ context.Context, menteeID string) ([]persistence.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetups := make([]persistence.Meetup, 0)
	for _, meetup := range s.meetups {
		if meetup.MenteeID == menteeID {
			meetups = append(meetups, cloneMeetup(meetup))
		}
	}
	sortMeetups(meetups)
	return meetups, nil
}

// ListConfirmedMeetupsForMentor returns the mentor's confirmed bookings.
func (s *MemoryStore) ListConfirmedMeetupsForMentor(_ context.Context, mentorID string) ([]persistence.Meetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetups := make([]persistence.Meetup, 0)
	for _, meetup := range s.meetups {
		if meetup.MentorID == mentorID && meetup.Status == persistence.MeetupStatusConfirmed {
			meetups = append(meetups, cloneMeetup(meetup))
		}
	}
	sortMeetups(meetups)
	return meetups, nil
}

// GetCredentials retrieves a mentor's external calendar tokens.
func (s *MemoryStore) GetCredentials(_ context.Context, mentorID string) (persistence.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, exists := s.credentials[mentorID]
	if !exists {
		return persistence.Credentials{}, persistence.ErrNotFound
	}
	return creds, nil
}

// UpsertCredentials stores the superseding token value for a mentor.
func (s *MemoryStore) UpsertCredentials(_ context.Context, creds persistence.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[creds.MentorID] = creds
	return nil
}

func sortMeetups(meetups []persistence.Meetup) {
	sort.Slice(meetups, func(i, j int) bool {
		if meetups[i].Start.Equal(meetups[j].Start) {
			return meetups[i].ID < meetups[j].ID
		}
		return meetups[i].Start.Before(meetups[j].Start)
	})
}

func cloneUser(user persistence.User) persistence.User {
	clone := user
	clone.MeetingLocations = append([]string(nil), user.MeetingLocations...)
	return clone
}

func cloneMeetup(meetup persistence.Meetup) persistence.Meetup {
	clone := meetup
	if meetup.Message != nil {
		message := *meetup.Message
		clone.Message = &message
	}
	return clone
}
