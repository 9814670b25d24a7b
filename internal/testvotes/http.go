package testvotes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/slopguard/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// postJSON posts body and decodes a 200 answer into out when out is not nil.
// The status is 0 when no response was received.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body, out any) (int, error) {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return 0, err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode != StatusOK || out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// getJSON fetches url and decodes a 200 answer into out.
func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitVotes plays the vote plan concurrently using a worker pool. The
// returned outcomes are indexed like votes.
func submitVotes(ctx context.Context, config *Config, votes []PlannedVote, stats *Stats) []VoteOutcome {
	log := logger.Get()
	log.Info(ctx, "submitting votes", logger.Int("votes", len(votes)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	outcomes := make([]VoteOutcome, len(votes))

	var (
		successful  atomic.Int64
		rateLimited atomic.Int64
		failed      atomic.Int64
		submitted   atomic.Int64
		lastReport  atomic.Int64
	)
	reportInterval := time.Second

	voteChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range voteChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				outcome, result := submitSingleVote(ctx, client, config.BaseURL, votes[index])
				outcomes[index] = outcome

				total := submitted.Add(1)
				switch result {
				case resultSuccess:
					successful.Add(1)
				case resultRateLimited:
					rateLimited.Add(1)
				default:
					failed.Add(1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
					if config.Verbose {
						log.Info(ctx, "progress",
							logger.Int("submitted", int(total)),
							logger.Int("total", len(votes)),
							logger.Int("successful", int(successful.Load())),
							logger.Int("rateLimited", int(rateLimited.Load())),
							logger.Int("failed", int(failed.Load())))
					} else {
						fmt.Printf("\rSubmitted: %d/%d (success: %d, rate limited: %d, failed: %d)",
							total, len(votes), successful.Load(), rateLimited.Load(), failed.Load())
					}
				}
			}
		}()
	}

	go func() {
		defer close(voteChan)
		for i := range votes {
			select {
			case <-ctx.Done():
				return
			case voteChan <- i:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.VotesSubmitted = int(submitted.Load())
	stats.VotesSuccessful = int(successful.Load())
	stats.VotesRateLimited = int(rateLimited.Load())
	stats.VotesFailed = int(failed.Load())
	for _, o := range outcomes {
		if o.Outcome.CreatorNudged {
			stats.CreatorNudges++
		}
		if o.Outcome.GlobalNudged {
			stats.GlobalNudges++
		}
	}

	log.Info(ctx, "vote submission completed",
		logger.Int("successful", stats.VotesSuccessful),
		logger.Int("rateLimited", stats.VotesRateLimited),
		logger.Int("failed", stats.VotesFailed))
	return outcomes
}

// submitSingleVote renders a scan through /v1/personalize, captures its
// context and records the vote on the personalized result.
func submitSingleVote(ctx context.Context, client *HTTPClient, baseURL string, vote PlannedVote) (VoteOutcome, string) {
	out := VoteOutcome{CreatorID: vote.Result.CreatorID, ContentID: vote.Result.ContentID}

	var rendered personalizeResponse
	status, err := client.postJSON(ctx, baseURL+"/v1/personalize",
		personalizeRequest{Result: vote.Result, ConservativeMode: vote.Conservative}, &rendered)
	if err != nil || status != StatusOK {
		return out, resultFailed
	}

	status, err = client.postJSON(ctx, baseURL+"/v1/scans/context",
		captureRequest{Result: rendered.Result, ContentURL: vote.ContentURL}, nil)
	switch {
	case err != nil:
		return out, resultFailed
	case status == StatusTooManyRequests:
		return out, resultRateLimited
	case status != StatusOK:
		return out, resultFailed
	}

	status, err = client.postJSON(ctx, baseURL+"/v1/feedback",
		feedbackRequest{Result: rendered.Result, Vote: vote.Vote}, &out.Outcome)
	switch {
	case status == 0 || (status == StatusOK && err != nil):
		out.Unknown = true
		return out, resultFailed
	case status == StatusTooManyRequests:
		return out, resultRateLimited
	case status != StatusOK || err != nil:
		return out, resultFailed
	}
	out.Recorded = true
	return out, resultSuccess
}
