package testvotes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/slopguard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete vote traffic test.
func Run(ctx context.Context, config *Config) error {
	_, err := run(ctx, config)
	return err
}

func run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting slopguard vote test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("votes", config.NumVotes),
		logger.Int("creators", config.NumCreators),
		logger.Int("contentPerCreator", config.ContentPerCreator),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	if config.NumVotes <= 0 || config.NumCreators <= 0 || config.ContentPerCreator <= 0 {
		return stats, ErrNoVotes
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Read the ledger the run starts from
	before, err := fetchLedger(ctx, client, config.BaseURL)
	if err != nil {
		return stats, err
	}

	// Step 3: Generate the vote plan
	votes, err := generateVotes(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("vote generation failed: %w", err)
	}

	// Step 4: Play it concurrently
	outcomes := submitVotes(ctx, config, votes, stats)

	// Step 5: Read the resulting ledger and creator listing
	after, err := fetchLedger(ctx, client, config.BaseURL)
	if err != nil {
		return stats, err
	}
	creators, err := fetchCreators(ctx, client, config.BaseURL, stats)
	if err != nil {
		return stats, err
	}

	// Step 6: Verify ledger invariants
	if err := verifyResults(ctx, config, outcomes, before, after, creators); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save the vote plan
	if err := saveVotesToFile(ctx, config, votes); err != nil {
		logger.Get().Warn(ctx, "failed to save votes to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: status %d", ErrServiceUnhealthy, resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveVotesToFile writes the vote plan as a JSON array.
func saveVotesToFile(ctx context.Context, config *Config, votes []PlannedVote) error {
	if len(votes) == 0 {
		return ErrNoVotes
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_votes_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(votes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write votes: %w", err)
	}

	logger.Get().Info(ctx, "votes saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, votesPerSecond float64

	if stats.VotesSubmitted > 0 {
		successRate = float64(stats.VotesSuccessful) / float64(stats.VotesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		votesPerSecond = float64(stats.VotesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("votesGenerated", stats.VotesGenerated),
		logger.Int("votesSubmitted", stats.VotesSubmitted),
		logger.Int("votesSuccessful", stats.VotesSuccessful),
		logger.Int("votesRateLimited", stats.VotesRateLimited),
		logger.Int("votesFailed", stats.VotesFailed),
		logger.Int("creatorNudges", stats.CreatorNudges),
		logger.Int("globalNudges", stats.GlobalNudges),
		logger.Int("creatorsListed", stats.CreatorsListed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("votesPerSecond", votesPerSecond))
}
