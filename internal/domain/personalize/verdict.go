package personalize

import (
	"strings"

	"github.com/okian/slopguard/internal/domain/types"
)

// Verdict thresholds.
const (
	likelyAIThreshold             = 0.80
	likelyAIThresholdConservative = 0.85
	unclearThreshold              = 0.55
	unclearThresholdConservative  = 0.60
	unclearThresholdLowSignal     = 0.45

	// inconclusivePlatformScore is what the platform lookup reports when it
	// could not find anything.
	inconclusivePlatformScore = 0.5
	noCommunityVotesPhrase    = "no community votes yet"
)

// DecideVerdict maps a final score to a verdict and confidence band.
// Low-signal mode lowers the unclear threshold regardless of conservativeMode
// so thin evidence does not produce a confident human call.
func DecideVerdict(finalScore float64, conservativeMode, lowSignalMode bool) (types.Verdict, types.ConfidenceBand) {
	likelyAI := likelyAIThreshold
	if conservativeMode {
		likelyAI = likelyAIThresholdConservative
	}
	unclear := unclearThreshold
	switch {
	case lowSignalMode:
		unclear = unclearThresholdLowSignal
	case conservativeMode:
		unclear = unclearThresholdConservative
	}

	switch {
	case finalScore >= likelyAI:
		return types.VerdictLikelyAI, types.ConfidenceHigh
	case finalScore >= unclear:
		return types.VerdictUnclear, types.ConfidenceMedium
	default:
		return types.VerdictLikelyHuman, types.ConfidenceLow
	}
}

// IsLowSignalMode reports whether neither platform metadata nor community
// votes contributed to result.
func IsLowSignalMode(result *types.ScanResult) bool {
	platformUnavailable := false
	noVotes := false
	for _, e := range result.Evidence {
		switch e.Source {
		case types.SourcePlatform:
			if e.Strength == types.ConfidenceLow {
				platformUnavailable = true
			}
		case types.SourceCommunity:
			if strings.Contains(strings.ToLower(e.Message), noCommunityVotesPhrase) {
				noVotes = true
			}
		}
	}
	return platformUnavailable && result.PlatformScore == inconclusivePlatformScore && noVotes
}
