package sqlite

import (
	"context"

	"github.com/example/mentorship-backend/internal/persistence"
)

// CredentialRepository implements persistence.CredentialRepository using SQLite.
type CredentialRepository struct {
	pool *ConnectionPool
}

// NewCredentialRepository creates a new SQLite credential repository.
func NewCredentialRepository(pool *ConnectionPool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// GetCredentials retrieves a mentor's external calendar tokens.
func (r *CredentialRepository) GetCredentials(ctx context.Context, mentorID string) (persistence.Credentials, error) {
	var (
		creds     persistence.Credentials
		updatedAt string
	)
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT mentor_id, access_token, refresh_token, updated_at
		FROM credentials WHERE mentor_id = ?`, mentorID).
		Scan(&creds.MentorID, &creds.AccessToken, &creds.RefreshToken, &updatedAt)
	if err != nil {
		return persistence.Credentials{}, mapError(err)
	}
	if creds.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Credentials{}, err
	}
	return creds, nil
}

// UpsertCredentials stores the superseding token value for a mentor.
func (r *CredentialRepository) UpsertCredentials(ctx context.Context, creds persistence.Credentials) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO credentials (mentor_id, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mentor_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at`,
		creds.MentorID, creds.AccessToken, creds.RefreshToken, formatTime(creds.UpdatedAt))
	return mapError(err)
}
