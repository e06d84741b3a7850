package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
)

// Event represents one entry in a mentor's external calendar.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Status      string
}

// Service is the untrusted external calendar boundary. Implementations must
// honor context cancellation; callers bound every call with a timeout.
type Service interface {
	// ListEvents returns events between from and to. A zero to leaves the
	// range open ended.
	ListEvents(ctx context.Context, accessToken string, from, to time.Time, maxResults int64) ([]Event, error)
	InsertEvent(ctx context.Context, accessToken string, event Event) error
	DeleteEvent(ctx context.Context, accessToken string, eventID string) error
}

// TokenRefresher exchanges a stored refresh token for a usable access token.
// The returned credentials supersede the input value.
type TokenRefresher interface {
	Refresh(ctx context.Context, creds persistence.Credentials) (persistence.Credentials, error)
}

// ErrExternalAuth is returned when credential refresh yields no usable token.
// The triggering operation is aborted without retry.
var ErrExternalAuth = errors.New("calendar: external auth failure")

// ServiceError reports a failed or timed out external calendar call.
type ServiceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("calendar: %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// DeleteBatchError accumulates per-id failures from a slot deletion batch. A
// single failure never aborts the batch; the remaining deletions proceed.
type DeleteBatchError struct {
	Failures map[string]error
}

// Error implements the error interface.
func (e *DeleteBatchError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("calendar: %d slot deletions failed: %v", len(e.Failures), ids)
}
