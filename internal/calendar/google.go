package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/example/mentorship-backend/internal/persistence"
)

const primaryCalendarID = "primary"

// GoogleService implements Service against the Google Calendar API using the
// mentor's primary calendar.
type GoogleService struct{}

// NewGoogleService constructs a GoogleService.
func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

// ListEvents returns single (non-recurring-expanded) events in the range.
func (s *GoogleService) ListEvents(ctx context.Context, accessToken string, from, to time.Time, maxResults int64) ([]Event, error) {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	call := srv.Events.List(primaryCalendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		MaxResults(maxResults).
		Context(ctx)
	if !to.IsZero() {
		call = call.TimeMax(to.Format(time.RFC3339))
	}

	listed, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]Event, 0, len(listed.Items))
	for _, item := range listed.Items {
		events = append(events, fromGoogleEvent(item))
	}
	return events, nil
}

// InsertEvent creates event in the mentor's primary calendar.
func (s *GoogleService) InsertEvent(ctx context.Context, accessToken string, event Event) error {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return err
	}

	attendees := make([]*gcal.EventAttendee, 0, len(event.Attendees))
	for _, email := range event.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	payload := &gcal.Event{
		Id:          event.ID,
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339)},
		Attendees:   attendees,
	}

	if _, err := srv.Events.Insert(primaryCalendarID, payload).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert event %s: %w", event.ID, err)
	}
	return nil
}

// DeleteEvent removes an event by id from the mentor's primary calendar.
func (s *GoogleService) DeleteEvent(ctx context.Context, accessToken string, eventID string) error {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete(primaryCalendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func (s *GoogleService) client(ctx context.Context, accessToken string) (*gcal.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	srv, err := gcal.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("build calendar client: %w", err)
	}
	return srv, nil
}

func fromGoogleEvent(item *gcal.Event) Event {
	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Status:      item.Status,
	}
	if item.Start != nil {
		event.Start = parseEventTime(item.Start)
	}
	if item.End != nil {
		event.End = parseEventTime(item.End)
	}
	for _, attendee := range item.Attendees {
		event.Attendees = append(event.Attendees, attendee.Email)
	}
	return event
}

func parseEventTime(edt *gcal.EventDateTime) time.Time {
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GoogleTokenRefresher implements TokenRefresher over the Google OAuth token
// endpoint.
type GoogleTokenRefresher struct {
	config *oauth2.Config
}

// NewGoogleTokenRefresher constructs a refresher for the configured OAuth client.
func NewGoogleTokenRefresher(clientID, clientSecret string) *GoogleTokenRefresher {
	return &GoogleTokenRefresher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{gcal.CalendarScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// Refresh exchanges the stored refresh token for a fresh access token.
func (r *GoogleTokenRefresher) Refresh(ctx context.Context, creds persistence.Credentials) (persistence.Credentials, error) {
	if creds.RefreshToken == "" {
		return persistence.Credentials{}, fmt.Errorf("no refresh token stored")
	}

	source := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return persistence.Credentials{}, fmt.Errorf("token refresh: %w", err)
	}
	if token.AccessToken == "" {
		return persistence.Credentials{}, fmt.Errorf("token refresh yielded empty access token")
	}

	refreshed := creds
	refreshed.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	return refreshed, nil
}
