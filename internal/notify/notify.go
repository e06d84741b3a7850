// Package notify provides the engine side of the notification boundary.
// Message composition and delivery belong to an external collaborator; the
// implementation here records the trigger so the delivery pipeline can pick
// it up, and reports failures for the caller to surface as warnings.
package notify

import (
	"context"
	"log/slog"

	"github.com/example/mentorship-backend/internal/persistence"
)

// LogNotifier emits booking lifecycle notifications as structured log records.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// NotifyBookingRequested records a booking request notification for the mentor.
func (n *LogNotifier) NotifyBookingRequested(ctx context.Context, meetup persistence.Meetup) error {
	n.logger.InfoContext(ctx, "notification: booking requested",
		"meetup_id", meetup.ID, "mentor_id", meetup.MentorID, "mentee_id", meetup.MenteeID,
		"start", meetup.Start)
	return nil
}

// NotifyBookingConfirmed records a booking confirmation notification for the mentee.
func (n *LogNotifier) NotifyBookingConfirmed(ctx context.Context, meetup persistence.Meetup) error {
	n.logger.InfoContext(ctx, "notification: booking confirmed",
		"meetup_id", meetup.ID, "mentor_id", meetup.MentorID, "mentee_id", meetup.MenteeID,
		"start", meetup.Start)
	return nil
}
