package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/mentorship-backend/internal/reconcile"
)

type reconcileRunner interface {
	Run(ctx context.Context, mentorID string) (reconcile.Report, error)
}

type ReconcileHandler struct {
	runner    reconcileRunner
	responder responder
}

func NewReconcileHandler(runner reconcileRunner, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{runner: runner, responder: newResponder(logger)}
}

// Trigger runs one reconciliation pass for the mentor in the path. The
// endpoint backs external change notifications; only the mentor themselves
// may trigger it.
func (h *ReconcileHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.runner == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	mentorID, ok := MentorIDFromContext(r.Context())
	if !ok || strings.TrimSpace(mentorID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMentorID)
		return
	}

	principal, _ := IdentityFromContext(r.Context())
	if principal.UserID != mentorID {
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
		return
	}

	report, err := h.runner.Run(r.Context(), mentorID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reconcileResponse{
		MentorID:       report.MentorID,
		ExternalEvents: report.ExternalIDs,
		DeletedIDs:     report.DeletedIDs,
	})
}

type reconcileResponse struct {
	MentorID       string   `json:"mentor_id"`
	ExternalEvents int      `json:"external_events"`
	DeletedIDs     []string `json:"deleted_ids,omitempty"`
}
