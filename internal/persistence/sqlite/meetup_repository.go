package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
)

// MeetupRepository implements persistence.MeetupRepository using SQLite.
//
// The exclusivity invariants are enforced by partial unique indexes (see the
// schema) so the check-then-write sequences below are atomic: a racing
// transaction hits the index instead of slipping between a read and a write.
type MeetupRepository struct {
	pool *ConnectionPool
}

// NewMeetupRepository creates a new SQLite meetup repository.
func NewMeetupRepository(pool *ConnectionPool) *MeetupRepository {
	return &MeetupRepository{pool: pool}
}

// CreateMeetup inserts a new booking record. It returns
// persistence.ErrOccurrenceBooked when a confirmed meetup already claims the
// occurrence and persistence.ErrDuplicate when the mentee already holds a
// pending request for it.
func (r *MeetupRepository) CreateMeetup(ctx context.Context, meetup persistence.Meetup) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var confirmed int
		err := tx.QueryRow(`
			SELECT COUNT(*) FROM meetups
			WHERE slot_template_id = ? AND start_at = ? AND status = 'confirmed'`,
			meetup.SlotTemplateID, formatTime(meetup.Start)).Scan(&confirmed)
		if err != nil {
			return mapError(err)
		}
		if confirmed > 0 {
			return persistence.ErrOccurrenceBooked
		}

		_, err = tx.Exec(`
			INSERT INTO meetups (id, slot_template_id, mentor_id, mentee_id, start_at, location, message, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			meetup.ID,
			meetup.SlotTemplateID,
			meetup.MentorID,
			meetup.MenteeID,
			formatTime(meetup.Start),
			meetup.Location,
			nullableString(meetup.Message),
			string(meetup.Status),
			formatTime(meetup.CreatedAt),
			formatTime(meetup.UpdatedAt),
		)
		return mapError(err)
	})
}

// GetMeetup retrieves a booking record by id.
func (r *MeetupRepository) GetMeetup(ctx context.Context, id string) (persistence.Meetup, error) {
	row := r.pool.db.QueryRowContext(ctx, selectMeetup+" WHERE id = ?", id)
	return scanMeetup(row)
}

// ConfirmMeetup transitions a pending meetup owned by mentorID to confirmed
// as one conditional write. Racing confirms on the same occurrence cannot
// both succeed: the loser's UPDATE violates the confirmed-occurrence index
// and surfaces as persistence.ErrOccurrenceBooked.
func (r *MeetupRepository) ConfirmMeetup(ctx context.Context, id, mentorID string, at time.Time) (persistence.Meetup, error) {
	return r.transition(ctx, id, mentorID, persistence.MeetupStatusConfirmed, at)
}

// RefuseMeetup transitions a pending meetup owned by mentorID to refused.
func (r *MeetupRepository) RefuseMeetup(ctx context.Context, id, mentorID string, at time.Time) (persistence.Meetup, error) {
	return r.transition(ctx, id, mentorID, persistence.MeetupStatusRefused, at)
}

// ListMeetupsForMentee returns the mentee's booking records, any status.
func (r *MeetupRepository) ListMeetupsForMentee(ctx context.Context, menteeID string) ([]persistence.Meetup, error) {
	rows, err := r.pool.db.QueryContext(ctx, selectMeetup+" WHERE mentee_id = ? ORDER BY start_at, id", menteeID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectMeetups(rows)
}

// ListConfirmedMeetupsForMentor returns the mentor's confirmed bookings.
func (r *MeetupRepository) ListConfirmedMeetupsForMentor(ctx context.Context, mentorID string) ([]persistence.Meetup, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		selectMeetup+" WHERE mentor_id = ? AND status = 'confirmed' ORDER BY start_at, id", mentorID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return collectMeetups(rows)
}

func (r *MeetupRepository) transition(ctx context.Context, id, mentorID string, target persistence.MeetupStatus, at time.Time) (persistence.Meetup, error) {
	var updated persistence.Meetup
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE meetups SET status = ?, updated_at = ?
			WHERE id = ? AND mentor_id = ? AND status = 'pending'`,
			string(target), formatTime(at), id, mentorID)
		if err != nil {
			mapped := mapError(err)
			if errors.Is(mapped, persistence.ErrDuplicate) {
				return persistence.ErrOccurrenceBooked
			}
			return mapped
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		row := tx.QueryRow(selectMeetup+" WHERE id = ?", id)
		meetup, scanErr := scanMeetup(row)
		if scanErr != nil {
			return scanErr
		}
		updated = meetup
		return nil
	})
	if err != nil {
		return persistence.Meetup{}, err
	}
	return updated, nil
}

const selectMeetup = `
	SELECT id, slot_template_id, mentor_id, mentee_id, start_at, location, message, status, created_at, updated_at
	FROM meetups`

func collectMeetups(rows *sql.Rows) ([]persistence.Meetup, error) {
	meetups := make([]persistence.Meetup, 0)
	for rows.Next() {
		meetup, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}
		meetups = append(meetups, meetup)
	}
	return meetups, rows.Err()
}

func scanMeetup(scanner rowScanner) (persistence.Meetup, error) {
	var (
		meetup    persistence.Meetup
		startAt   string
		message   sql.NullString
		status    string
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&meetup.ID, &meetup.SlotTemplateID, &meetup.MentorID, &meetup.MenteeID,
		&startAt, &meetup.Location, &message, &status, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Meetup{}, mapError(err)
	}

	meetup.Status = persistence.MeetupStatus(status)
	if message.Valid {
		meetup.Message = &message.String
	}
	if meetup.Start, err = parseTime(startAt); err != nil {
		return persistence.Meetup{}, err
	}
	if meetup.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Meetup{}, err
	}
	if meetup.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Meetup{}, err
	}
	return meetup, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
