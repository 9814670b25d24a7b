// Package personalize recomputes a scan's displayed score and verdict from
// the learned bias without asking the server again.
package personalize

import (
	"fmt"
	"math"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/stamp"
	"github.com/okian/slopguard/internal/domain/types"
)

// Final score weights: platform metadata is trusted most, community votes
// next, the detector least.
const (
	platformWeight  = 0.5
	communityWeight = 0.3
	modelWeight     = 0.2

	zeroBiasEpsilon = 1e-9
)

// Path names which branch Apply took.
type Path string

// Apply paths.
const (
	PathUserList Path = "user_list"
	PathZeroBias Path = "zero_bias"
	PathAdjusted Path = "adjusted"
)

const modelLineTail = " Higher the model score, higher the likelihood that the model thinks the content is AI Slop." +
	" Model Score is just one factor of the final score calculated above." +
	" Vote down below if you think the model score seems wrong."

// Apply returns result personalized with the bias held in state. Neither
// argument is modified.
func Apply(state *ledger.State, result types.ScanResult, conservativeMode bool) types.ScanResult {
	out, _ := ApplyWithPath(state, result, conservativeMode)
	return out
}

// ApplyWithPath is Apply that also reports which branch was taken.
func ApplyWithPath(state *ledger.State, result types.ScanResult, conservativeMode bool) (types.ScanResult, Path) {
	out := result.Clone()
	creatorBias := state.CreatorBias[result.CreatorID]
	totalBias := state.TotalBias(result.CreatorID)
	base := result.BaseModelScore()
	out.RawModelScore = types.Float64(base)

	// An explicit allow/block decision outranks any statistical correction.
	if result.HasEvidence(types.SourceUserList) {
		out.ModelScore = base
		return out, PathUserList
	}

	evidence := stamp.Strip(result.Evidence)

	if math.Abs(totalBias) < zeroBiasEpsilon {
		out.ModelScore = base
		out.Evidence = append(
			rewriteModelLine(evidence, fmt.Sprintf("Model score %.2f (raw; no personalization delta).", base)),
			stamp.Evidence(state.GlobalBias, creatorBias),
		)
		return out, PathZeroBias
	}

	adjustedModel := ledger.Clamp(base+totalBias, 0, 1)
	adjustedFinal := ledger.Clamp(
		platformWeight*result.PlatformScore+communityWeight*result.CommunityScore+modelWeight*adjustedModel,
		0, 1,
	)
	verdict, band := DecideVerdict(adjustedFinal, conservativeMode, IsLowSignalMode(&result))

	out.ModelScore = adjustedModel
	out.FinalScore = adjustedFinal
	out.Verdict = verdict
	out.ConfidenceBand = band
	out.Evidence = append(
		rewriteModelLine(evidence, fmt.Sprintf("Model score %.2f (personalized; raw %.2f).", adjustedModel, base)),
		stamp.Evidence(state.GlobalBias, creatorBias),
	)
	return out, PathAdjusted
}

func rewriteModelLine(evidence []types.Evidence, head string) []types.Evidence {
	out := make([]types.Evidence, len(evidence), len(evidence)+1)
	for i, e := range evidence {
		if e.Source == types.SourceModel {
			e.Message = head + modelLineTail
		}
		out[i] = e
	}
	return out
}
