// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/okian/slopguard/internal/adapters/http/swagger"
	"github.com/okian/slopguard/internal/domain/feedback"
	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/types"
)

// maxBodyBytes caps request bodies; a scan result with evidence is small.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	RecordFeedback(ctx context.Context, result types.ScanResult, vote types.Vote) feedback.Outcome
	ApplyPersonalization(result types.ScanResult, conservativeMode *bool) types.ScanResult
	CaptureScanContext(ctx context.Context, result types.ScanResult, contentURL string)

	ClearGlobalBias(ctx context.Context)
	RemoveCreatorBias(ctx context.Context, creatorID string)
	ResetPersonalization(ctx context.Context)

	ScanContext(contentID, scannedAt string) (ledger.ScanContext, bool)
	CreatorBiases() []ledger.CreatorEntry
	Snapshot() *ledger.State
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	ledgerHandler      *LedgerHandler
	feedbackHandler    *FeedbackHandler
	personalizeHandler *PersonalizeHandler
	scansHandler       *ScansHandler

	corsOrigins []string
	writeLimit  int
	writeWindow time.Duration
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		ledgerHandler:      NewLedgerHandler(deps),
		feedbackHandler:    NewFeedbackHandler(deps),
		personalizeHandler: NewPersonalizeHandler(deps),
		scansHandler:       NewScansHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the chi router for every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(s.corsMiddleware())

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)
	swagger.Register(r)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ledger", s.ledgerHandler.HandleGetLedger)
		r.Get("/creators", s.ledgerHandler.HandleListCreators)
		r.Get("/scans/context", s.scansHandler.HandleGetContext)
		r.Post("/personalize", s.personalizeHandler.HandlePersonalize)

		r.Group(func(r chi.Router) {
			r.Use(s.writeLimiter())
			r.Delete("/creators/{creatorId}", s.ledgerHandler.HandleRemoveCreator)
			r.Delete("/bias/global", s.ledgerHandler.HandleClearGlobal)
			r.Post("/reset", s.ledgerHandler.HandleReset)
			r.Post("/feedback", s.feedbackHandler.HandlePostFeedback)
			r.Post("/scans/context", s.scansHandler.HandleCapture)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	return r
}

var validate = validator.New()

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeRequest reads a JSON body into dst and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return errors.Join(ErrValidation, err)
	}
	return nil
}

// writeDecodeError maps decodeRequest failures to 400 responses.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrValidation) {
		writeError(w, http.StatusBadRequest, "validation_failed", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}
