package recurrence

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"
)

// Kind represents supported slot template repetition kinds.
type Kind string

const (
	// KindDaily repeats the template every day.
	KindDaily Kind = "daily"
	// KindWeekly repeats the template every seven days.
	KindWeekly Kind = "weekly"
	// KindMonthly repeats the template on the same day each month.
	KindMonthly Kind = "monthly"
	// KindUnique yields the template itself exactly once.
	KindUnique Kind = "unique"
)

// Template describes one availability rule to expand.
type Template struct {
	ID    string
	Start time.Time
	End   time.Time
	Kind  Kind
}

// Window bounds occurrence generation. The range is half-open: an occurrence
// starting exactly at End is excluded. A zero End falls back to the end of the
// current month; the same fallback applies when End has already passed.
type Window struct {
	Start time.Time
	End   time.Time
}

// Occurrence represents one concrete bookable instance of a template.
type Occurrence struct {
	TemplateID string
	Start      time.Time
	End        time.Time
}

// Expander turns slot templates into concrete occurrences. All generated
// timestamps are normalized to the expander's reference location.
type Expander struct {
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewExpander constructs an Expander. A nil location defaults to UTC, a nil
// now func to time.Now and a nil logger to slog.Default.
func NewExpander(loc *time.Location, now func() time.Time, logger *slog.Logger) *Expander {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{location: loc, now: now, logger: logger}
}

// Expand generates the ordered occurrences of template inside window.
//
// Semantics:
//   - occurrences preserve the template's (End - Start) duration;
//   - occurrences starting before Window.Start or at/after the effective
//     window end are discarded;
//   - KindUnique yields exactly the template, ignoring the window;
//   - an unrecognized kind yields an empty sequence.
func (e *Expander) Expand(template Template, window Window) []Occurrence {
	if template.Kind == KindUnique {
		return []Occurrence{{
			TemplateID: template.ID,
			Start:      template.Start.In(e.location),
			End:        template.End.In(e.location),
		}}
	}

	freq, ok := frequencyFor(template.Kind)
	if !ok {
		e.logger.Warn("skipping template with unrecognized recurrence kind",
			"template_id", template.ID, "kind", string(template.Kind))
		return nil
	}

	start := template.Start.In(e.location)
	duration := template.End.Sub(template.Start)
	windowEnd := e.effectiveWindowEnd(window)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: start,
		Until:   windowEnd.In(e.location),
	})
	if err != nil {
		e.logger.Warn("failed to build recurrence rule",
			"template_id", template.ID, "kind", string(template.Kind), "error", err)
		return nil
	}

	occurrences := make([]Occurrence, 0)
	for _, candidate := range rule.All() {
		if candidate.Before(window.Start) {
			continue
		}
		if !candidate.Before(windowEnd) {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			TemplateID: template.ID,
			Start:      candidate,
			End:        candidate.Add(duration),
		})
	}

	return occurrences
}

func (e *Expander) effectiveWindowEnd(window Window) time.Time {
	end := window.End
	if end.IsZero() || end.Before(e.now()) {
		return endOfCurrentMonth(e.now().In(e.location))
	}
	return end
}

// endOfCurrentMonth returns the first instant of the following month, i.e. the
// exclusive bound that still admits the whole last day of the current month.
func endOfCurrentMonth(reference time.Time) time.Time {
	firstOfMonth := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, reference.Location())
	return firstOfMonth.AddDate(0, 1, 0)
}

func frequencyFor(kind Kind) (rrule.Frequency, bool) {
	switch kind {
	case KindDaily:
		return rrule.DAILY, true
	case KindWeekly:
		return rrule.WEEKLY, true
	case KindMonthly:
		return rrule.MONTHLY, true
	default:
		return 0, false
	}
}
