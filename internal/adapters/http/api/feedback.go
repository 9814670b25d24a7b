package api

import (
	"context"
	"net/http"

	"github.com/okian/slopguard/internal/domain/feedback"
	"github.com/okian/slopguard/internal/domain/types"
)

// FeedbackDependencies defines the interface for recording votes.
type FeedbackDependencies interface {
	RecordFeedback(ctx context.Context, result types.ScanResult, vote types.Vote) feedback.Outcome
}

// FeedbackHandler handles feedback requests.
type FeedbackHandler struct {
	deps FeedbackDependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps FeedbackDependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

type feedbackRequest struct {
	Result types.ScanResult `json:"result"`
	Vote   types.Vote       `json:"vote" validate:"required,oneof=ai not_ai unsure"`
}

// HandlePostFeedback handles POST /v1/feedback requests.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.RecordFeedback(r.Context(), req.Result, req.Vote))
}
