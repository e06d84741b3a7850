package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller's identity could not be established.
	ErrUnauthorized = errors.New("booking: unauthorized")
	// ErrForbidden is returned when the acting identity lacks ownership of the resource.
	ErrForbidden = errors.New("booking: forbidden")
	// ErrNotFound is returned when the referenced template or meetup does not exist.
	ErrNotFound = errors.New("booking: not found")
	// ErrNoSuchOccurrence is returned when the requested start matches no
	// expanded occurrence of the template.
	ErrNoSuchOccurrence = fmt.Errorf("booking: no such occurrence: %w", ErrNotFound)
)

// ConflictReason labels the exclusivity or validity rule a request violated.
type ConflictReason string

const (
	// ConflictSelfBooking marks a mentor attempting to book their own slot.
	ConflictSelfBooking ConflictReason = "self-booking"
	// ConflictLocationInvalid marks a location outside the mentor's declared set.
	ConflictLocationInvalid ConflictReason = "location-invalid"
	// ConflictAlreadyBooked marks an occurrence already held by a confirmed meetup.
	ConflictAlreadyBooked ConflictReason = "already-booked"
	// ConflictDuplicateRequest marks a mentee re-requesting an occurrence they
	// already have a pending meetup for.
	ConflictDuplicateRequest ConflictReason = "duplicate-request"
)

// ConflictError reports a booking invariant violation with a machine readable reason.
type ConflictError struct {
	Reason ConflictReason
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking: conflict (%s)", e.Reason)
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps service errors to a stable label for logging and transport.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}

	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return "conflict"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
