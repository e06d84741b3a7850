package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/mentorship-backend/internal/persistence"
)

const (
	// defaultCallTimeout bounds each external calendar call; a timed out call
	// is treated as a failure, never left pending.
	defaultCallTimeout = 15 * time.Second
	// reconcileMaxResults is the page size used when listing live events.
	reconcileMaxResults = 2500
)

// SyncAdapter translates slot edits and confirmed bookings into external
// calendar calls for one deployment. Credentials are refreshed before every
// operation; the refreshed value is persisted and supersedes the prior one.
type SyncAdapter struct {
	service     Service
	refresher   TokenRefresher
	credentials persistence.CredentialRepository
	slots       persistence.SlotTemplateRepository
	users       persistence.UserRepository
	timeout     time.Duration
	locks       *mentorLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSyncAdapter wires dependencies for external calendar synchronization.
func NewSyncAdapter(service Service, refresher TokenRefresher, credentials persistence.CredentialRepository, slots persistence.SlotTemplateRepository, users persistence.UserRepository, timeout time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SyncAdapter {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if idGenerator == nil {
		idGenerator = NewEventID
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncAdapter{
		service:     service,
		refresher:   refresher,
		credentials: credentials,
		slots:       slots,
		users:       users,
		timeout:     timeout,
		locks:       newMentorLocks(),
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// NewEventID generates an external event identifier. Google event ids admit
// only base32hex characters, so the uuid is flattened to bare hex.
func NewEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// AddSlots mirrors templates into the mentor's external calendar. Each
// template is decomposed into 2h/1h/30m blocks; every block becomes one
// external event and one persisted slot template of kind unique carrying the
// same freshly generated id. The source recurring template is not persisted:
// once synced, a recurring rule exists externally only as its mirrored unique
// blocks.
func (a *SyncAdapter) AddSlots(ctx context.Context, mentorID string, templates []persistence.SlotTemplate) ([]persistence.SlotTemplate, error) {
	if a == nil {
		return nil, fmt.Errorf("SyncAdapter is nil")
	}
	release := a.locks.acquire(mentorID)
	defer release()

	creds, err := a.refreshCredentials(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	createdAt := a.now()
	persisted := make([]persistence.SlotTemplate, 0)
	for _, template := range templates {
		for _, block := range decompose(template.Start, template.End) {
			id := a.idGenerator()
			event := Event{
				ID:      id,
				Summary: "Mentorship availability",
				Start:   block.Start,
				End:     block.End,
			}
			if err := a.call(ctx, "insert event", func(callCtx context.Context) error {
				return a.service.InsertEvent(callCtx, creds.AccessToken, event)
			}); err != nil {
				return persisted, err
			}

			mirrored := persistence.SlotTemplate{
				ID:         id,
				MentorID:   mentorID,
				Start:      block.Start,
				End:        block.End,
				Recurrence: persistence.RecurrenceUnique,
				CreatedAt:  createdAt,
				UpdatedAt:  createdAt,
			}
			if err := a.slots.CreateSlotTemplate(ctx, mirrored); err != nil {
				return persisted, fmt.Errorf("persist mirrored slot: %w", err)
			}
			persisted = append(persisted, mirrored)
		}
	}

	a.logger.InfoContext(ctx, "mirrored slot templates to external calendar",
		"mentor_id", mentorID, "templates", len(templates), "blocks", len(persisted))
	return persisted, nil
}

// DeleteSlots removes the external events and local templates for ids. Each
// deletion is independent: a failure is accumulated and the rest of the batch
// proceeds. The local template is only removed once its external event is
// gone, so reconciliation still sees failed entries on both sides.
func (a *SyncAdapter) DeleteSlots(ctx context.Context, mentorID string, ids []string) error {
	if a == nil {
		return fmt.Errorf("SyncAdapter is nil")
	}
	release := a.locks.acquire(mentorID)
	defer release()

	creds, err := a.refreshCredentials(ctx, mentorID)
	if err != nil {
		return err
	}

	failures := make(map[string]error)
	for _, id := range ids {
		if err := a.call(ctx, "delete event", func(callCtx context.Context) error {
			return a.service.DeleteEvent(callCtx, creds.AccessToken, id)
		}); err != nil {
			failures[id] = err
			continue
		}
		if err := a.slots.DeleteSlotTemplate(ctx, id); err != nil && !errors.Is(err, persistence.ErrNotFound) {
			failures[id] = err
		}
	}

	if len(failures) > 0 {
		return &DeleteBatchError{Failures: failures}
	}

	a.logger.InfoContext(ctx, "deleted mirrored slots", "mentor_id", mentorID, "count", len(ids))
	return nil
}

// MaterializeMeetup replaces the consumed slot's external event with an event
// representing the confirmed meetup, listing both participants as attendees.
func (a *SyncAdapter) MaterializeMeetup(ctx context.Context, meetup persistence.Meetup) error {
	if a == nil {
		return fmt.Errorf("SyncAdapter is nil")
	}
	release := a.locks.acquire(meetup.MentorID)
	defer release()

	creds, err := a.refreshCredentials(ctx, meetup.MentorID)
	if err != nil {
		return err
	}

	if err := a.call(ctx, "delete consumed slot event", func(callCtx context.Context) error {
		return a.service.DeleteEvent(callCtx, creds.AccessToken, meetup.SlotTemplateID)
	}); err != nil {
		// The slot event may already be gone (reconciled or deleted by the
		// mentor); the meetup event is still inserted.
		a.logger.WarnContext(ctx, "failed to delete consumed slot event",
			"mentor_id", meetup.MentorID, "slot_template_id", meetup.SlotTemplateID, "error", err)
	}

	attendees, err := a.attendeeEmails(ctx, meetup)
	if err != nil {
		return err
	}

	event := Event{
		ID:        a.idGenerator(),
		Summary:   "Mentorship meetup",
		Start:     meetup.Start,
		End:       meetup.Start.Add(a.meetupDuration(ctx, meetup)),
		Attendees: attendees,
	}
	if meetup.Message != nil {
		event.Description = *meetup.Message
	}

	if err := a.call(ctx, "insert meetup event", func(callCtx context.Context) error {
		return a.service.InsertEvent(callCtx, creds.AccessToken, event)
	}); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "materialized meetup in external calendar",
		"mentor_id", meetup.MentorID, "meetup_id", meetup.ID)
	return nil
}

// ListFutureEvents returns the mentor's live external events from now on,
// fetched with a large page size for reconciliation diffs.
func (a *SyncAdapter) ListFutureEvents(ctx context.Context, mentorID string) ([]Event, error) {
	if a == nil {
		return nil, fmt.Errorf("SyncAdapter is nil")
	}
	release := a.locks.acquire(mentorID)
	defer release()

	creds, err := a.refreshCredentials(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	var events []Event
	err = a.call(ctx, "list events", func(callCtx context.Context) error {
		listed, listErr := a.service.ListEvents(callCtx, creds.AccessToken, a.now(), time.Time{}, reconcileMaxResults)
		if listErr != nil {
			return listErr
		}
		events = listed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// refreshCredentials loads the mentor's stored tokens, exchanges the refresh
// token for a fresh access token and persists the superseding value.
func (a *SyncAdapter) refreshCredentials(ctx context.Context, mentorID string) (persistence.Credentials, error) {
	stored, err := a.credentials.GetCredentials(ctx, mentorID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Credentials{}, fmt.Errorf("%w: no stored credentials for mentor %s", ErrExternalAuth, mentorID)
		}
		return persistence.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	refreshed, err := a.refresher.Refresh(ctx, stored)
	if err != nil {
		return persistence.Credentials{}, fmt.Errorf("%w: %v", ErrExternalAuth, err)
	}
	if refreshed.AccessToken == "" {
		return persistence.Credentials{}, fmt.Errorf("%w: refresh yielded no usable token", ErrExternalAuth)
	}

	refreshed.MentorID = mentorID
	refreshed.UpdatedAt = a.now()
	if err := a.credentials.UpsertCredentials(ctx, refreshed); err != nil {
		// The fresh token still serves this operation; only the stored copy is stale.
		a.logger.ErrorContext(ctx, "failed to persist refreshed credentials",
			"mentor_id", mentorID, "error", err)
	}

	return refreshed, nil
}

func (a *SyncAdapter) call(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := fn(callCtx); err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	return nil
}

func (a *SyncAdapter) attendeeEmails(ctx context.Context, meetup persistence.Meetup) ([]string, error) {
	emails := make([]string, 0, 2)
	for _, id := range []string{meetup.MentorID, meetup.MenteeID} {
		user, err := a.users.GetUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load participant %s: %w", id, err)
		}
		emails = append(emails, user.Email)
	}
	return emails, nil
}

// meetupDuration derives the event length from the consumed slot template,
// falling back to one hour when the template has already been reconciled away.
func (a *SyncAdapter) meetupDuration(ctx context.Context, meetup persistence.Meetup) time.Duration {
	template, err := a.slots.GetSlotTemplate(ctx, meetup.SlotTemplateID)
	if err != nil {
		return time.Hour
	}
	if d := template.End.Sub(template.Start); d > 0 {
		return d
	}
	return time.Hour
}
