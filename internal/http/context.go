package http

import (
	"context"

	"github.com/example/mentorship-backend/internal/booking"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	mentorIDContextKey contextKey = "mentor_id"
	meetupIDContextKey contextKey = "meetup_id"
)

// ContextWithIdentity returns a derived context carrying the authenticated caller.
func ContextWithIdentity(ctx context.Context, identity booking.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext extracts the authenticated caller from context if available.
func IdentityFromContext(ctx context.Context) (booking.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(booking.Identity)
	return identity, ok
}

// ContextWithMentorID injects the mentor identifier resolved from the request path.
func ContextWithMentorID(ctx context.Context, mentorID string) context.Context {
	return context.WithValue(ctx, mentorIDContextKey, mentorID)
}

// MentorIDFromContext extracts a mentor identifier previously associated with the context.
func MentorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(mentorIDContextKey).(string)
	return id, ok
}

// ContextWithMeetupID injects the meetup identifier resolved from the request path.
func ContextWithMeetupID(ctx context.Context, meetupID string) context.Context {
	return context.WithValue(ctx, meetupIDContextKey, meetupID)
}

// MeetupIDFromContext extracts a meetup identifier previously associated with the context.
func MeetupIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(meetupIDContextKey).(string)
	return id, ok
}
