package testvotes

import (
	"time"

	"github.com/okian/slopguard/internal/domain/feedback"
	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/types"
)

// Config holds configuration for the vote traffic test
type Config struct {
	BaseURL           string        // Base URL of the service
	NumVotes          int           // Number of votes to generate
	NumCreators       int           // Number of distinct creators
	ContentPerCreator int           // Content items per creator
	Workers           int           // Number of concurrent workers
	Timeout           time.Duration // HTTP request timeout
	Seed              uint64        // Seed for the vote plan, 0 picks one
	OutputFile        string        // Output file for the vote plan
	LogFile           string        // Log file for test output
	Verbose           bool          // Enable verbose logging
}

// PlannedVote is one render of a scan followed by a user vote on it.
type PlannedVote struct {
	Result       types.ScanResult `json:"result"`
	ContentURL   string           `json:"contentUrl"`
	Vote         types.Vote       `json:"vote"`
	Conservative *bool            `json:"conservativeMode,omitempty"`
}

// VoteOutcome is what the service answered for one planned vote.
type VoteOutcome struct {
	CreatorID string
	ContentID string
	// Recorded is set when the feedback response was read.
	Recorded bool
	// Unknown is set when feedback may have been applied but no answer was read.
	Unknown bool
	Outcome feedback.Outcome
}

// LedgerView is the part of GET /v1/ledger the verifier reads.
type LedgerView struct {
	GlobalBias float64               `json:"globalBias"`
	Creators   []ledger.CreatorEntry `json:"creators"`
}

type personalizeRequest struct {
	Result           types.ScanResult `json:"result"`
	ConservativeMode *bool            `json:"conservativeMode,omitempty"`
}

type personalizeResponse struct {
	Result       types.ScanResult `json:"result"`
	VerdictLabel string           `json:"verdictLabel"`
}

type captureRequest struct {
	Result     types.ScanResult `json:"result"`
	ContentURL string           `json:"contentUrl,omitempty"`
}

type feedbackRequest struct {
	Result types.ScanResult `json:"result"`
	Vote   types.Vote       `json:"vote"`
}

type creatorsResponse struct {
	Creators []ledger.CreatorEntry `json:"creators"`
}

// Stats holds test statistics
type Stats struct {
	VotesGenerated   int
	VotesSubmitted   int
	VotesSuccessful  int
	VotesRateLimited int
	VotesFailed      int
	CreatorNudges    int
	GlobalNudges     int
	CreatorsListed   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
