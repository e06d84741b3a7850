package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/mentorship-backend/internal/calendar"
	"github.com/example/mentorship-backend/internal/persistence"
)

// ExternalEvents exposes the live external event list used for drift diffs.
type ExternalEvents interface {
	ListFutureEvents(ctx context.Context, mentorID string) ([]calendar.Event, error)
}

// Report summarizes one reconciliation pass.
type Report struct {
	MentorID    string
	ExternalIDs int
	DeletedIDs  []string
}

// Worker repairs drift between locally stored slot templates and a mentor's
// external calendar. It runs strictly on demand, triggered by an external
// change notification; it never polls.
type Worker struct {
	slots    persistence.SlotTemplateRepository
	external ExternalEvents
	logger   *slog.Logger
}

// NewWorker wires dependencies for reconciliation runs.
func NewWorker(slots persistence.SlotTemplateRepository, external ExternalEvents, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{slots: slots, external: external, logger: logger}
}

// Run diffs the mentor's stored slot templates against the live external
// event list and deletes templates whose id no longer has an external
// counterpart. An empty external list wipes every local template for the
// mentor. Deletions only begin after the full diff is computed, so a list
// failure leaves no partial state, and re-running with an unchanged external
// list is a no-op.
func (w *Worker) Run(ctx context.Context, mentorID string) (Report, error) {
	if w == nil {
		return Report{}, fmt.Errorf("reconcile Worker is nil")
	}
	report := Report{MentorID: mentorID}

	events, err := w.external.ListFutureEvents(ctx, mentorID)
	if err != nil {
		return report, fmt.Errorf("list external events: %w", err)
	}
	report.ExternalIDs = len(events)

	templates, err := w.slots.ListSlotTemplatesForMentor(ctx, mentorID)
	if err != nil {
		return report, fmt.Errorf("list slot templates: %w", err)
	}

	live := make(map[string]struct{}, len(events))
	for _, event := range events {
		live[event.ID] = struct{}{}
	}

	stale := make([]string, 0)
	for _, template := range templates {
		if _, ok := live[template.ID]; !ok {
			stale = append(stale, template.ID)
		}
	}

	for _, id := range stale {
		if err := w.slots.DeleteSlotTemplate(ctx, id); err != nil {
			return report, fmt.Errorf("delete stale template %s: %w", id, err)
		}
		report.DeletedIDs = append(report.DeletedIDs, id)
	}

	w.logger.InfoContext(ctx, "reconciliation pass completed",
		"mentor_id", mentorID, "external_events", len(events), "deleted", len(report.DeletedIDs))
	return report, nil
}
