package sqlite

import (
	"context"

	"github.com/example/mentorship-backend/internal/persistence"
)

// SlotTemplateRepository implements persistence.SlotTemplateRepository using SQLite.
type SlotTemplateRepository struct {
	pool *ConnectionPool
}

// NewSlotTemplateRepository creates a new SQLite slot template repository.
func NewSlotTemplateRepository(pool *ConnectionPool) *SlotTemplateRepository {
	return &SlotTemplateRepository{pool: pool}
}

// CreateSlotTemplate inserts a new availability rule.
func (r *SlotTemplateRepository) CreateSlotTemplate(ctx context.Context, template persistence.SlotTemplate) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO slot_templates (id, mentor_id, start_at, end_at, recurrence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		template.ID,
		template.MentorID,
		formatTime(template.Start),
		formatTime(template.End),
		string(template.Recurrence),
		formatTime(template.CreatedAt),
		formatTime(template.UpdatedAt),
	)
	return mapError(err)
}

// GetSlotTemplate retrieves an availability rule by id.
func (r *SlotTemplateRepository) GetSlotTemplate(ctx context.Context, id string) (persistence.SlotTemplate, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, mentor_id, start_at, end_at, recurrence, created_at, updated_at
		FROM slot_templates WHERE id = ?`, id)
	return scanSlotTemplate(row)
}

// ListSlotTemplatesForMentor returns a mentor's availability rules ordered by start.
func (r *SlotTemplateRepository) ListSlotTemplatesForMentor(ctx context.Context, mentorID string) ([]persistence.SlotTemplate, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, mentor_id, start_at, end_at, recurrence, created_at, updated_at
		FROM slot_templates WHERE mentor_id = ? ORDER BY start_at, id`, mentorID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	templates := make([]persistence.SlotTemplate, 0)
	for rows.Next() {
		template, scanErr := scanSlotTemplate(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

// DeleteSlotTemplate removes an availability rule by id.
func (r *SlotTemplateRepository) DeleteSlotTemplate(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM slot_templates WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanSlotTemplate(scanner rowScanner) (persistence.SlotTemplate, error) {
	var (
		template   persistence.SlotTemplate
		startAt    string
		endAt      string
		recurrence string
		createdAt  string
		updatedAt  string
	)
	err := scanner.Scan(&template.ID, &template.MentorID, &startAt, &endAt, &recurrence, &createdAt, &updatedAt)
	if err != nil {
		return persistence.SlotTemplate{}, mapError(err)
	}

	template.Recurrence = persistence.Recurrence(recurrence)
	if template.Start, err = parseTime(startAt); err != nil {
		return persistence.SlotTemplate{}, err
	}
	if template.End, err = parseTime(endAt); err != nil {
		return persistence.SlotTemplate{}, err
	}
	if template.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.SlotTemplate{}, err
	}
	if template.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.SlotTemplate{}, err
	}
	return template, nil
}
