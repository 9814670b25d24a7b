package api

import (
	"net/http"

	"github.com/okian/slopguard/internal/domain/types"
)

// PersonalizeDependencies defines the interface for recomputing scores.
type PersonalizeDependencies interface {
	ApplyPersonalization(result types.ScanResult, conservativeMode *bool) types.ScanResult
}

// PersonalizeHandler handles personalize requests.
type PersonalizeHandler struct {
	deps PersonalizeDependencies
}

// NewPersonalizeHandler creates a new personalize handler.
func NewPersonalizeHandler(deps PersonalizeDependencies) *PersonalizeHandler {
	return &PersonalizeHandler{deps: deps}
}

type personalizeRequest struct {
	Result           types.ScanResult `json:"result"`
	ConservativeMode *bool            `json:"conservativeMode,omitempty"`
}

type personalizeResponse struct {
	Result          types.ScanResult `json:"result"`
	VerdictLabel    string           `json:"verdictLabel"`
	ConfidenceLabel string           `json:"confidenceLabel"`
}

// HandlePersonalize handles POST /v1/personalize requests.
func (h *PersonalizeHandler) HandlePersonalize(w http.ResponseWriter, r *http.Request) {
	var req personalizeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	out := h.deps.ApplyPersonalization(req.Result, req.ConservativeMode)
	writeJSON(w, http.StatusOK, personalizeResponse{
		Result:          out,
		VerdictLabel:    out.Verdict.Label(),
		ConfidenceLabel: out.ConfidenceBand.Label(),
	})
}
