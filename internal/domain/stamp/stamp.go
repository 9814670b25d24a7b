// Package stamp formats and recovers the personalization line appended to
// scan evidence. The line is human readable and is also the only record a
// re-delivered scan result carries of the bias that produced it.
package stamp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/slopguard/internal/domain/types"
)

// Prefix starts every personalization stamp line.
const Prefix = "Personalization bias applied"

var valuesPattern = regexp.MustCompile(`(?i)global:\s*(-?\d+(?:\.\d+)?),\s*creator:\s*(-?\d+(?:\.\d+)?)`)

// Format renders the stamp message for the given bias values.
func Format(global, creator float64) string {
	return fmt.Sprintf("%s (global: %.2f, creator: %.2f).", Prefix, global, creator)
}

// Evidence returns the settings evidence line carrying the stamp.
func Evidence(global, creator float64) types.Evidence {
	return types.Evidence{
		Source:   types.SourceSettings,
		Strength: types.ConfidenceLow,
		Message:  Format(global, creator),
	}
}

// IsStamp reports whether e is a previously appended stamp line.
func IsStamp(e types.Evidence) bool {
	return e.Source == types.SourceSettings && strings.HasPrefix(e.Message, Prefix)
}

// Parse extracts (global, creator) from the first stamp line in evidence.
// ok is false when no stamp exists or its numbers cannot be read.
func Parse(evidence []types.Evidence) (global, creator float64, ok bool) {
	for _, e := range evidence {
		if !IsStamp(e) {
			continue
		}
		m := valuesPattern.FindStringSubmatch(e.Message)
		if m == nil {
			return 0, 0, false
		}
		g, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, 0, false
		}
		c, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, 0, false
		}
		return g, c, true
	}
	return 0, 0, false
}

// Strip returns evidence without any stamp lines. The input is not modified.
func Strip(evidence []types.Evidence) []types.Evidence {
	out := make([]types.Evidence, 0, len(evidence))
	for _, e := range evidence {
		if IsStamp(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}
