package testvotes

import (
	"context"
	"fmt"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/pkg/logger"
)

// fetchLedger reads the global bias and creator list from /v1/ledger.
func fetchLedger(ctx context.Context, client *HTTPClient, baseURL string) (LedgerView, error) {
	var view LedgerView
	if err := client.getJSON(ctx, baseURL+"/v1/ledger", &view); err != nil {
		return LedgerView{}, fmt.Errorf("failed to fetch ledger: %w", err)
	}
	return view, nil
}

// fetchCreators reads the creator listing in the order the service returns it.
func fetchCreators(ctx context.Context, client *HTTPClient, baseURL string, stats *Stats) ([]ledger.CreatorEntry, error) {
	var resp creatorsResponse
	if err := client.getJSON(ctx, baseURL+"/v1/creators", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch creators: %w", err)
	}
	stats.CreatorsListed = len(resp.Creators)
	logger.Get().Info(ctx, "creators retrieved", logger.Int("count", len(resp.Creators)))
	return resp.Creators, nil
}
