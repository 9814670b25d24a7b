package testvotes

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/pkg/logger"
)

// verifyResults checks the ledger after the run against what the service
// answered during it. The run must be the only writer.
func verifyResults(ctx context.Context, config *Config, outcomes []VoteOutcome, before, after LedgerView, creators []ledger.CreatorEntry) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	err := errors.Join(
		verifyBounds(after.GlobalBias, creators),
		verifySingleNudge(outcomes),
		verifyCreatorOrder(creators),
		verifyCreatorBiases(outcomes, creators),
		verifyGlobalDrift(outcomes, before.GlobalBias, after.GlobalBias),
	)
	if err != nil {
		return err
	}

	displayTopCreators(ctx, creators, config.Verbose)
	log.Info(ctx, "result verification completed")
	return nil
}

// verifyBounds checks every bias lies within [MinBias, MaxBias].
func verifyBounds(global float64, creators []ledger.CreatorEntry) error {
	var errs []error
	if global < ledger.MinBias || global > ledger.MaxBias {
		errs = append(errs, fmt.Errorf("%w: global bias %.4f", ErrBiasOutOfRange, global))
	}
	for _, c := range creators {
		if c.Bias < ledger.MinBias || c.Bias > ledger.MaxBias {
			errs = append(errs, fmt.Errorf("%w: creator %s bias %.4f", ErrBiasOutOfRange, c.CreatorID, c.Bias))
		}
	}
	return errors.Join(errs...)
}

type pairKey struct {
	creatorID string
	contentID string
}

// verifySingleNudge checks no (creator, content) pair was nudged twice.
func verifySingleNudge(outcomes []VoteOutcome) error {
	counts := make(map[pairKey]int)
	var errs []error
	for _, o := range outcomes {
		if !o.Recorded || !o.Outcome.CreatorNudged {
			continue
		}
		key := pairKey{creatorID: o.CreatorID, contentID: o.ContentID}
		counts[key]++
		if counts[key] == 2 {
			errs = append(errs, fmt.Errorf("%w: creator %s content %s", ErrNudgedTwice, o.CreatorID, o.ContentID))
		}
	}
	return errors.Join(errs...)
}

// verifyCreatorOrder checks the listing is sorted by absolute bias, descending.
func verifyCreatorOrder(creators []ledger.CreatorEntry) error {
	for i := 1; i < len(creators); i++ {
		if math.Abs(creators[i].Bias) > math.Abs(creators[i-1].Bias)+biasTolerance {
			return fmt.Errorf("%w: entry %d (%s, %.4f) outranks entry %d (%s, %.4f)",
				ErrCreatorOrder, i, creators[i].CreatorID, creators[i].Bias,
				i-1, creators[i-1].CreatorID, creators[i-1].Bias)
		}
	}
	return nil
}

type creatorTally struct {
	nudges  int
	sum     int
	unknown bool
}

// verifyCreatorBiases checks each creator of the run ends at CreatorStep
// times the sum of its nudge directions. Creators whose bias could have been
// clamped, or that had a vote with no readable answer, are skipped.
func verifyCreatorBiases(outcomes []VoteOutcome, creators []ledger.CreatorEntry) error {
	tallies := make(map[string]*creatorTally)
	for _, o := range outcomes {
		if o.CreatorID == "" {
			continue
		}
		t, ok := tallies[o.CreatorID]
		if !ok {
			t = &creatorTally{}
			tallies[o.CreatorID] = t
		}
		if o.Unknown {
			t.unknown = true
			continue
		}
		if o.Recorded && o.Outcome.CreatorNudged {
			t.nudges++
			t.sum += o.Outcome.Direction
		}
	}

	listed := make(map[string]float64, len(creators))
	for _, c := range creators {
		listed[c.CreatorID] = c.Bias
	}

	var errs []error
	for id, t := range tallies {
		if t.unknown || t.nudges > maxUnclampedNudges {
			continue
		}
		bias, ok := listed[id]
		switch {
		case t.nudges == 0 && ok:
			errs = append(errs, fmt.Errorf("%w: creator %s listed without a nudge", ErrCreatorBias, id))
		case t.nudges > 0 && !ok:
			errs = append(errs, fmt.Errorf("%w: creator %s nudged %d times but not listed", ErrCreatorBias, id, t.nudges))
		case t.nudges > 0:
			want := float64(t.sum) * ledger.CreatorStep
			if math.Abs(bias-want) > biasTolerance {
				errs = append(errs, fmt.Errorf("%w: creator %s has %.4f, want %.4f", ErrCreatorBias, id, bias, want))
			}
		}
	}
	return errors.Join(errs...)
}

// verifyGlobalDrift checks the global bias moved by at most GlobalStep per
// global nudge the run may have caused.
func verifyGlobalDrift(outcomes []VoteOutcome, before, after float64) error {
	steps := 0
	for _, o := range outcomes {
		if o.Unknown || (o.Recorded && o.Outcome.GlobalNudged) {
			steps++
		}
	}
	limit := float64(steps) * ledger.GlobalStep
	if drift := math.Abs(after - before); drift > limit+biasTolerance {
		return fmt.Errorf("%w: moved %.4f with %d nudges", ErrGlobalDrift, drift, steps)
	}
	return nil
}

// displayTopCreators logs the strongest creator corrections.
func displayTopCreators(ctx context.Context, creators []ledger.CreatorEntry, verbose bool) {
	topN := 10
	if len(creators) < topN {
		topN = len(creators)
	}
	log := logger.Get()
	for i := 0; i < topN; i++ {
		c := creators[i]
		log.Info(ctx, "creator bias",
			logger.Int("position", i+1),
			logger.String("creatorId", c.CreatorID),
			logger.String("name", c.Name),
			logger.Float64("bias", c.Bias))
	}

	if verbose && len(creators) > 0 {
		var positive, negative int
		for _, c := range creators {
			if c.Bias > 0 {
				positive++
			} else if c.Bias < 0 {
				negative++
			}
		}
		log.Info(ctx, "creator bias statistics",
			logger.Int("towardsAI", positive),
			logger.Int("towardsHuman", negative),
			logger.Int("neutral", len(creators)-positive-negative))
	}
}
