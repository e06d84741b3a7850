package booking

import (
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
)

// Identity represents the authenticated caller invoking a service method, as
// resolved by the auth provider. Ownership checks trust it.
type Identity struct {
	UserID string
	Role   persistence.Role
}

// Occurrence represents one concrete bookable instance offered to mentees.
type Occurrence struct {
	SlotTemplateID string
	MentorID       string
	Start          time.Time
	End            time.Time
}

// MeetupInput captures caller provided booking request fields.
type MeetupInput struct {
	SlotTemplateID string
	Start          time.Time
	Location       string
	Message        *string
}

// CreateMeetupParams wraps the data required to request a booking.
type CreateMeetupParams struct {
	Principal Identity
	Input     MeetupInput
}

// SlotTemplateInput captures caller provided availability rule fields.
type SlotTemplateInput struct {
	Start      time.Time
	End        time.Time
	Recurrence persistence.Recurrence
}

// ApplySlotsParams wraps a batch of availability changes for one mentor.
type ApplySlotsParams struct {
	Principal  Identity
	MentorID   string
	Added      []SlotTemplateInput
	RemovedIDs []string
}

// ApplySlotsResult reports the outcome of a slot batch application.
type ApplySlotsResult struct {
	Added      []persistence.SlotTemplate
	RemovedIDs []string
}

// WarningKind labels a non-fatal failure surfaced beside a successful result.
type WarningKind string

const (
	// WarningNotifyFailed indicates the notification collaborator failed; the
	// booking record itself was persisted.
	WarningNotifyFailed WarningKind = "notify-failed"
	// WarningCalendarSyncFailed indicates external calendar materialization
	// failed; the booking state transition stands.
	WarningCalendarSyncFailed WarningKind = "calendar-sync-failed"
)

// Warning reports a best-effort side effect that did not complete.
type Warning struct {
	Kind   WarningKind
	Detail string
}
