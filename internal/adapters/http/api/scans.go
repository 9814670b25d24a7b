package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/types"
)

// ScansDependencies defines the interface for scan context capture and lookup.
type ScansDependencies interface {
	CaptureScanContext(ctx context.Context, result types.ScanResult, contentURL string)
	ScanContext(contentID, scannedAt string) (ledger.ScanContext, bool)
}

// ScansHandler handles scan context requests.
type ScansHandler struct {
	deps ScansDependencies
}

// NewScansHandler creates a new scans handler.
func NewScansHandler(deps ScansDependencies) *ScansHandler {
	return &ScansHandler{deps: deps}
}

type captureRequest struct {
	Result     types.ScanResult `json:"result"`
	ContentURL string           `json:"contentUrl,omitempty" validate:"omitempty,url"`
}

// HandleCapture handles POST /v1/scans/context requests.
func (h *ScansHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.deps.CaptureScanContext(r.Context(), req.Result, req.ContentURL)
	sc, _ := h.deps.ScanContext(req.Result.ContentID, req.Result.ScannedAt)
	writeJSON(w, http.StatusOK, sc)
}

// HandleGetContext handles GET /v1/scans/context?contentId=&scannedAt= requests.
func (h *ScansHandler) HandleGetContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contentID := strings.TrimSpace(q.Get("contentId"))
	scannedAt := strings.TrimSpace(q.Get("scannedAt"))
	if contentID == "" || scannedAt == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	sc, ok := h.deps.ScanContext(contentID, scannedAt)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
