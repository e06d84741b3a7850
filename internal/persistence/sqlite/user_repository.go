package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/mentorship-backend/internal/persistence"
)

// locationSeparator joins a mentor's declared meeting locations into one
// column. Newlines cannot appear in a location name.
const locationSeparator = "\n"

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (id, role, email, display_name, meeting_locations, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		string(user.Role),
		user.Email,
		user.DisplayName,
		strings.Join(user.MeetingLocations, locationSeparator),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// UpdateUser updates an existing account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE users
		SET role = ?, email = ?, display_name = ?, meeting_locations = ?, updated_at = ?
		WHERE id = ?`,
		string(user.Role),
		user.Email,
		user.DisplayName,
		strings.Join(user.MeetingLocations, locationSeparator),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetUser retrieves an account by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, role, email, display_name, meeting_locations, created_at, updated_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ListUsers returns all accounts ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, role, email, display_name, meeting_locations, created_at, updated_at
		FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		role      string
		locations string
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&user.ID, &role, &user.Email, &user.DisplayName, &locations, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, mapError(err)
	}

	user.Role = persistence.Role(role)
	if locations != "" {
		user.MeetingLocations = strings.Split(locations, locationSeparator)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
