package persistence

import "time"

// Role identifies the kind of platform account a user holds.
type Role string

const (
	// RoleMentor marks an account that publishes availability and owns bookings.
	RoleMentor Role = "mentor"
	// RoleMentee marks an account that requests bookings.
	RoleMentee Role = "mentee"
)

// User represents a platform account.
type User struct {
	ID               string
	Role             Role
	Email            string
	DisplayName      string
	MeetingLocations []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Recurrence enumerates the supported slot template repetition kinds.
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceUnique  Recurrence = "unique"
)

// SlotTemplate represents a mentor declared availability rule.
type SlotTemplate struct {
	ID         string
	MentorID   string
	Start      time.Time
	End        time.Time
	Recurrence Recurrence
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MeetupStatus enumerates the lifecycle states of a booking.
type MeetupStatus string

const (
	MeetupStatusPending   MeetupStatus = "pending"
	MeetupStatusConfirmed MeetupStatus = "confirmed"
	MeetupStatusRefused   MeetupStatus = "refused"
)

// Meetup represents a booking request linking a mentee to one occurrence.
// Meetup rows are never deleted; a confirmed or refused status is terminal.
type Meetup struct {
	ID             string
	SlotTemplateID string
	MentorID       string
	MenteeID       string
	Start          time.Time
	Location       string
	Message        *string
	Status         MeetupStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credentials holds a mentor's external calendar tokens.
type Credentials struct {
	MentorID     string
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}
