package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/slopguard/internal/domain/ledger"
)

// LedgerDependencies defines the ledger reads and maintenance operations.
type LedgerDependencies interface {
	Snapshot() *ledger.State
	CreatorBiases() []ledger.CreatorEntry
	ClearGlobalBias(ctx context.Context)
	RemoveCreatorBias(ctx context.Context, creatorID string)
	ResetPersonalization(ctx context.Context)
}

// LedgerHandler handles ledger requests.
type LedgerHandler struct {
	deps LedgerDependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

type ledgerResponse struct {
	Version         int                   `json:"version"`
	GlobalBias      float64               `json:"globalBias"`
	Creators        []ledger.CreatorEntry `json:"creators"`
	ContentFeedback int                   `json:"contentFeedback"`
	ScanFeedback    int                   `json:"scanFeedback"`
	ScanContexts    int                   `json:"scanContexts"`
}

type creatorsResponse struct {
	Creators []ledger.CreatorEntry `json:"creators"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandleGetLedger handles GET /v1/ledger requests.
func (h *LedgerHandler) HandleGetLedger(w http.ResponseWriter, _ *http.Request) {
	st := h.deps.Snapshot()
	writeJSON(w, http.StatusOK, ledgerResponse{
		Version:         st.Version,
		GlobalBias:      st.GlobalBias,
		Creators:        nonNil(st.CreatorBiases()),
		ContentFeedback: len(st.ContentFeedback),
		ScanFeedback:    len(st.ScanFeedback),
		ScanContexts:    len(st.ModelScores),
	})
}

// HandleListCreators handles GET /v1/creators requests.
func (h *LedgerHandler) HandleListCreators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, creatorsResponse{Creators: nonNil(h.deps.CreatorBiases())})
}

// HandleRemoveCreator handles DELETE /v1/creators/{creatorId} requests.
func (h *LedgerHandler) HandleRemoveCreator(w http.ResponseWriter, r *http.Request) {
	creatorID := strings.TrimSpace(chi.URLParam(r, "creatorId"))
	if creatorID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	h.deps.RemoveCreatorBias(r.Context(), creatorID)
	writeJSON(w, http.StatusOK, statusResponse{Status: "removed"})
}

// HandleClearGlobal handles DELETE /v1/bias/global requests.
func (h *LedgerHandler) HandleClearGlobal(w http.ResponseWriter, r *http.Request) {
	h.deps.ClearGlobalBias(r.Context())
	writeJSON(w, http.StatusOK, statusResponse{Status: "cleared"})
}

// HandleReset handles POST /v1/reset requests.
func (h *LedgerHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.deps.ResetPersonalization(r.Context())
	writeJSON(w, http.StatusOK, statusResponse{Status: "reset"})
}

func nonNil(entries []ledger.CreatorEntry) []ledger.CreatorEntry {
	if entries == nil {
		return []ledger.CreatorEntry{}
	}
	return entries
}
