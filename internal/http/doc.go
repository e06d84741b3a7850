// Package http provides HTTP handlers and middleware for the booking API.
//
// All routes sit behind bearer token authentication. The router exposes:
//   - GET /mentors/{id}/availability: the mentor's bookable occurrences.
//     Optional `from`/`to` query parameters (RFC 3339) bound the expansion
//     window; without `to` the window runs to the end of the current month.
//   - POST /mentors/{id}/slots: applies a batch of availability changes
//     ({"added":[{"start","end","recurrence"}],"removed_ids":[...]}). Mentors
//     with linked calendar credentials are synced externally; responses list
//     the persisted templates, which for synced mentors are the mirrored
//     2h/1h/30m blocks rather than the submitted recurring rules.
//   - POST /mentors/{id}/reconcile: runs one reconciliation pass against the
//     mentor's external calendar and reports the deleted slot template ids.
//   - POST /meetups: requests a booking as the authenticated mentee. Body:
//     {"slot_template_id","start","location","message"}.
//   - GET /meetups: the authenticated mentee's booking history, any status.
//   - POST /meetups/{id}/confirm, POST /meetups/{id}/refuse: resolve a pending
//     request as the owning mentor. Responses carry non-fatal warnings
//     ("notify-failed", "calendar-sync-failed") beside the persisted meetup.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
