package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account lookups and maintenance.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SlotTemplateRepository stores mentor availability rules.
type SlotTemplateRepository interface {
	CreateSlotTemplate(ctx context.Context, template SlotTemplate) error
	GetSlotTemplate(ctx context.Context, id string) (SlotTemplate, error)
	ListSlotTemplatesForMentor(ctx context.Context, mentorID string) ([]SlotTemplate, error)
	DeleteSlotTemplate(ctx context.Context, id string) error
}

// MeetupRepository stores booking records and enforces the exclusivity
// invariants atomically:
//
//   - at most one confirmed meetup per (slot template, occurrence start);
//   - at most one pending meetup per (slot template, occurrence start, mentee).
//
// CreateMeetup returns ErrOccurrenceBooked when a confirmed meetup already
// claims the occurrence and ErrDuplicate when the mentee already holds a
// pending request for it. ConfirmMeetup performs the pending-to-confirmed
// transition as a single conditional write; two racing confirms on the same
// occurrence cannot both succeed.
type MeetupRepository interface {
	CreateMeetup(ctx context.Context, meetup Meetup) error
	GetMeetup(ctx context.Context, id string) (Meetup, error)
	ConfirmMeetup(ctx context.Context, id, mentorID string, at time.Time) (Meetup, error)
	RefuseMeetup(ctx context.Context, id, mentorID string, at time.Time) (Meetup, error)
	ListMeetupsForMentee(ctx context.Context, menteeID string) ([]Meetup, error)
	ListConfirmedMeetupsForMentor(ctx context.Context, mentorID string) ([]Meetup, error)
}

// CredentialRepository stores per-mentor external calendar tokens.
type CredentialRepository interface {
	GetCredentials(ctx context.Context, mentorID string) (Credentials, error)
	UpsertCredentials(ctx context.Context, creds Credentials) error
}
