package testvotes

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/slopguard/internal/domain/personalize"
	"github.com/okian/slopguard/internal/domain/scancontext"
	"github.com/okian/slopguard/internal/domain/types"
	"github.com/okian/slopguard/pkg/logger"
)

// Constants for vote plan generation.
const (
	maxRescans        = 3
	conservativeRatio = 4 // one vote in four asks for conservative mode
	seedMix           = 0x9e3779b97f4a7c15
)

// Vote mix, out of 10.
const (
	aiVotes    = 4
	notAIVotes = 4
)

var platforms = []string{
	scancontext.PlatformTikTok,
	scancontext.PlatformInstagram,
	scancontext.PlatformYouTube,
}

type creator struct {
	id       string
	handle   string
	platform string
	contents []string
}

// generateVotes builds the vote plan. Creator ids carry a per-run prefix so
// a run never meets gates left by an earlier one.
func generateVotes(ctx context.Context, config *Config, stats *Stats) ([]PlannedVote, error) {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logger.Get().Info(ctx, "generating votes",
		logger.Int("numVotes", config.NumVotes),
		logger.Int("creators", config.NumCreators),
		logger.Any("seed", seed))

	rng := rand.New(rand.NewPCG(seed, seed^seedMix))
	runID := uuid.NewString()[:8]
	creators := makeCreators(rng, runID, config.NumCreators, config.ContentPerCreator)
	scanBase := time.Now().UTC().Truncate(time.Minute)

	votes := make([]PlannedVote, config.NumVotes)
	for i := range votes {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during vote generation: %w", ctx.Err())
		default:
		}
		c := creators[rng.IntN(len(creators))]
		contentID := c.contents[rng.IntN(len(c.contents))]
		scannedAt := scanBase.Add(time.Duration(rng.IntN(maxRescans)) * time.Minute).Format(time.RFC3339)
		votes[i] = generateSingleVote(rng, c, contentID, scannedAt)
	}

	stats.VotesGenerated = len(votes)
	logger.Get().Info(ctx, "generated votes successfully", logger.Int("count", len(votes)))
	return votes, nil
}

func makeCreators(rng *rand.Rand, runID string, numCreators, contentPerCreator int) []creator {
	creators := make([]creator, numCreators)
	for i := range creators {
		platform := platforms[i%len(platforms)]
		c := creator{
			id:       runID + "-creator-" + strconv.Itoa(i),
			handle:   "maker" + strconv.Itoa(i),
			platform: platform,
			contents: make([]string, contentPerCreator),
		}
		for j := range c.contents {
			c.contents[j] = platform + ":" + runID + "-" + strconv.FormatUint(rng.Uint64()%1e9, 36)
		}
		creators[i] = c
	}
	return creators
}

// generateSingleVote renders one scan the way the detector would and picks a
// vote for it.
func generateSingleVote(rng *rand.Rand, c creator, contentID, scannedAt string) PlannedVote {
	platformScore := 0.5
	platformStrength := types.ConfidenceLow
	platformMessage := "Platform lookup inconclusive."
	if rng.IntN(2) == 0 {
		platformScore = round2(rng.Float64())
		platformStrength = types.ConfidenceMedium
		platformMessage = "Platform label checked."
	}
	communityScore := 0.5
	communityMessage := "No community votes yet."
	if rng.IntN(2) == 0 {
		communityScore = round2(rng.Float64())
		communityMessage = strconv.Itoa(1+rng.IntN(40)) + " community votes."
	}
	modelScore := round2(rng.Float64())
	finalScore := round2(0.5*platformScore + 0.3*communityScore + 0.2*modelScore)

	result := types.ScanResult{
		ContentID:      contentID,
		Platform:       c.platform,
		CanonicalID:    contentID,
		CreatorID:      c.id,
		FinalScore:     finalScore,
		PlatformScore:  platformScore,
		CommunityScore: communityScore,
		ModelScore:     modelScore,
		Evidence: []types.Evidence{
			{Source: types.SourcePlatform, Message: platformMessage, Strength: platformStrength},
			{Source: types.SourceCommunity, Message: communityMessage, Strength: types.ConfidenceLow},
			{Source: types.SourceModel, Message: fmt.Sprintf("Model score %.2f.", modelScore), Strength: types.ConfidenceMedium},
		},
		ScannedAt: scannedAt,
	}
	lowSignal := personalize.IsLowSignalMode(&result)
	result.Verdict, result.ConfidenceBand = personalize.DecideVerdict(finalScore, false, lowSignal)

	vote := PlannedVote{
		Result:     result,
		ContentURL: contentURL(c, contentID),
		Vote:       pickVote(rng),
	}
	if rng.IntN(conservativeRatio) == 0 {
		conservative := true
		vote.Conservative = &conservative
	}
	return vote
}

// contentURL builds a URL the service can derive the creator handle from.
func contentURL(c creator, contentID string) string {
	id := contentID[len(c.platform)+1:]
	switch c.platform {
	case scancontext.PlatformTikTok:
		return "https://www.tiktok.com/@" + c.handle + "/video/" + id
	case scancontext.PlatformInstagram:
		return "https://www.instagram.com/" + c.handle + "/p/" + id + "/"
	default:
		return "https://www.youtube.com/@" + c.handle + "/shorts/" + id
	}
}

func pickVote(rng *rand.Rand) types.Vote {
	switch n := rng.IntN(10); {
	case n < aiVotes:
		return types.VoteAI
	case n < aiVotes+notAIVotes:
		return types.VoteNotAI
	default:
		return types.VoteUnsure
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
