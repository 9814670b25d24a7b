// Package feedback turns explicit user votes into bias corrections.
package feedback

import (
	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/scancontext"
	"github.com/okian/slopguard/internal/domain/session"
	"github.com/okian/slopguard/internal/domain/types"
)

// aiThreshold splits the detector's raw score into a naive binary guess.
const aiThreshold = 0.5

// Outcome describes what one vote did to the ledger.
type Outcome struct {
	Predicted     types.Vote          `json:"predicted"`
	Direction     int                 `json:"direction"`
	GlobalNudged  bool                `json:"globalNudged"`
	CreatorNudged bool                `json:"creatorNudged"`
	Snapshot      ledger.BiasSnapshot `json:"snapshot"`
}

// Predicted is the label the detector would have given on its own.
func Predicted(rawModelScore float64) types.Vote {
	if rawModelScore >= aiThreshold {
		return types.VoteAI
	}
	return types.VoteNotAI
}

// Direction compares a vote to the prediction: +1 when the user says AI and
// the detector did not, -1 for the opposite disagreement, 0 otherwise.
func Direction(predicted, vote types.Vote) int {
	if vote == predicted {
		return 0
	}
	switch vote {
	case types.VoteAI:
		return 1
	case types.VoteNotAI:
		return -1
	default:
		return 0
	}
}

// Record applies vote on result to a copy of prev and returns the new state.
// prev is not modified.
//
// The vote is always stored, and the scan's bias snapshot is always ensured.
// A correcting vote nudges the global bias, and nudges the creator bias at most
// once per (creator, content) within scope unless the creator has no entry.
func Record(prev *ledger.State, scope *session.Scope, result types.ScanResult, vote types.Vote) (*ledger.State, Outcome) {
	next := prev.Clone()

	predicted := Predicted(result.BaseModelScore())
	direction := Direction(predicted, vote)

	next.ContentFeedback[result.ContentID] = vote
	next.ScanFeedback[result.ScanKey()] = vote
	next.SetCreatorName(result.CreatorID, scancontext.CreatorName(result, ""))
	snap := next.EnsureBiasSnapshot(&result)

	out := Outcome{Predicted: predicted, Direction: direction, Snapshot: snap}
	if direction == 0 {
		return next, out
	}

	gate := scope.GateKey(result.CreatorID, result.ContentID)
	_, hasEntry := next.CreatorBiasOf(result.CreatorID)
	if !next.AppliedGates[gate] || !hasEntry {
		next.NudgeCreator(result.CreatorID, direction)
		next.AppliedGates[gate] = true
		out.CreatorNudged = true
	}

	next.NudgeGlobal(direction)
	out.GlobalNudged = true
	return next, out
}
