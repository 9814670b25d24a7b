// Package ledger holds the learned personalization state: global and
// per-creator bias, creator display names, recorded votes and the per-scan
// context that keeps history reproducible.
//
// A State is a plain value. Methods mutate the receiver; owners that publish
// states to concurrent readers must Clone before mutating.
package ledger

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/slopguard/internal/domain/session"
	"github.com/okian/slopguard/internal/domain/stamp"
	"github.com/okian/slopguard/internal/domain/types"
)

// Bias bounds and nudge sizes.
const (
	MinBias = -1.0
	MaxBias = 1.0

	// GlobalStep is applied on every correcting vote.
	GlobalStep = 0.01
	// CreatorStep is applied to the scanned creator, at most once per
	// (creator, content) in a session.
	CreatorStep = 0.1

	// Version of the persisted layout.
	Version = 1
)

// BiasSnapshot is the bias that was in effect when a scan was rendered.
type BiasSnapshot struct {
	Global  float64 `json:"global"`
	Creator float64 `json:"creator"`
}

// ModelScoreSnapshot is the most recently rendered model score of a scan.
type ModelScoreSnapshot struct {
	Raw          float64 `json:"raw"`
	Personalized float64 `json:"personalized"`
}

// State is the whole personalization ledger. It is persisted as one value.
type State struct {
	Version         int                           `json:"version"`
	GlobalBias      float64                       `json:"globalBias"`
	CreatorBias     map[string]float64            `json:"creatorBias"`
	CreatorNames    map[string]string             `json:"creatorNames"`
	ContentFeedback map[string]types.Vote         `json:"contentFeedback"`
	ScanFeedback    map[string]types.Vote         `json:"scanFeedback"`
	BiasSnapshots   map[string]BiasSnapshot       `json:"contentBiasSnapshot"`
	AppliedGates    map[string]bool               `json:"creatorBiasContentApplied"`
	ModelScores     map[string]ModelScoreSnapshot `json:"scanModelScores"`
	ContentURLs     map[string]string             `json:"scanContentUrls"`
}

// New returns the initial state: zero bias and empty maps.
func New() *State {
	s := &State{Version: Version}
	s.Normalize()
	return s
}

// Normalize allocates any nil map, e.g. after decoding an older layout.
func (s *State) Normalize() {
	if s.Version == 0 {
		s.Version = Version
	}
	if s.CreatorBias == nil {
		s.CreatorBias = map[string]float64{}
	}
	if s.CreatorNames == nil {
		s.CreatorNames = map[string]string{}
	}
	if s.ContentFeedback == nil {
		s.ContentFeedback = map[string]types.Vote{}
	}
	if s.ScanFeedback == nil {
		s.ScanFeedback = map[string]types.Vote{}
	}
	if s.BiasSnapshots == nil {
		s.BiasSnapshots = map[string]BiasSnapshot{}
	}
	if s.AppliedGates == nil {
		s.AppliedGates = map[string]bool{}
	}
	if s.ModelScores == nil {
		s.ModelScores = map[string]ModelScoreSnapshot{}
	}
	if s.ContentURLs == nil {
		s.ContentURLs = map[string]string{}
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	return &State{
		Version:         s.Version,
		GlobalBias:      s.GlobalBias,
		CreatorBias:     copyMap(s.CreatorBias),
		CreatorNames:    copyMap(s.CreatorNames),
		ContentFeedback: copyMap(s.ContentFeedback),
		ScanFeedback:    copyMap(s.ScanFeedback),
		BiasSnapshots:   copyMap(s.BiasSnapshots),
		AppliedGates:    copyMap(s.AppliedGates),
		ModelScores:     copyMap(s.ModelScores),
		ContentURLs:     copyMap(s.ContentURLs),
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Clamp bounds v to [lo, hi]. NaN becomes 0 when 0 is in range, else lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		if lo <= 0 && 0 <= hi {
			return 0
		}
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// CreatorBiasOf returns the creator's bias and whether an entry exists.
func (s *State) CreatorBiasOf(creatorID string) (float64, bool) {
	v, ok := s.CreatorBias[creatorID]
	return v, ok
}

// TotalBias is the correction applied to one creator's scans.
func (s *State) TotalBias(creatorID string) float64 {
	return s.GlobalBias + s.CreatorBias[creatorID]
}

// NudgeGlobal moves the global bias by direction steps.
func (s *State) NudgeGlobal(direction int) {
	s.GlobalBias = Clamp(s.GlobalBias+float64(direction)*GlobalStep, MinBias, MaxBias)
}

// NudgeCreator moves one creator's bias by direction steps, creating the
// entry when missing.
func (s *State) NudgeCreator(creatorID string, direction int) {
	s.CreatorBias[creatorID] = Clamp(s.CreatorBias[creatorID]+float64(direction)*CreatorStep, MinBias, MaxBias)
}

// SetCreatorName records a display name. Empty names are ignored; the last
// non-empty name wins.
func (s *State) SetCreatorName(creatorID, name string) {
	if name == "" {
		return
	}
	s.CreatorNames[creatorID] = name
}

// EnsureBiasSnapshot makes sure the scan instance of r has a bias snapshot and
// returns it. An existing snapshot for the scan key is never replaced. A
// missing one is taken, in order, from the stamp line in r's evidence, from
// the content-level snapshot, or from the current ledger values. The
// content-level snapshot is filled the same way, first write wins.
func (s *State) EnsureBiasSnapshot(r *types.ScanResult) BiasSnapshot {
	key := r.ScanKey()
	if snap, ok := s.BiasSnapshots[key]; ok {
		if _, ok := s.BiasSnapshots[r.ContentID]; !ok {
			s.BiasSnapshots[r.ContentID] = snap
		}
		return snap
	}

	var snap BiasSnapshot
	if g, c, ok := stamp.Parse(r.Evidence); ok {
		snap = BiasSnapshot{Global: g, Creator: c}
	} else if prior, ok := s.BiasSnapshots[r.ContentID]; ok {
		snap = prior
	} else {
		snap = BiasSnapshot{Global: s.GlobalBias, Creator: s.CreatorBias[r.CreatorID]}
	}

	s.BiasSnapshots[key] = snap
	if _, ok := s.BiasSnapshots[r.ContentID]; !ok {
		s.BiasSnapshots[r.ContentID] = snap
	}
	return snap
}

// ClearGlobalBias resets the global bias only.
func (s *State) ClearGlobalBias() {
	s.GlobalBias = 0
}

// RemoveCreatorBias forgets a creator's bias, name and every gate recorded for
// them, so the next correcting vote nudges again.
func (s *State) RemoveCreatorBias(creatorID string) {
	delete(s.CreatorBias, creatorID)
	delete(s.CreatorNames, creatorID)
	prefix := session.CreatorPrefix(creatorID)
	for key := range s.AppliedGates {
		if strings.HasPrefix(key, prefix) {
			delete(s.AppliedGates, key)
		}
	}
}

// Reset wipes everything back to the initial state.
func (s *State) Reset() {
	*s = *New()
}

// PruneGates drops gate keys for which keep returns false and reports how
// many were removed.
func (s *State) PruneGates(keep func(key string) bool) int {
	removed := 0
	for key := range s.AppliedGates {
		if !keep(key) {
			delete(s.AppliedGates, key)
			removed++
		}
	}
	return removed
}

// CreatorEntry is one row of the creator bias listing.
type CreatorEntry struct {
	CreatorID string  `json:"creatorId"`
	Name      string  `json:"name,omitempty"`
	Bias      float64 `json:"bias"`
}

// CreatorBiases lists creators with a bias entry, strongest correction first.
func (s *State) CreatorBiases() []CreatorEntry {
	out := make([]CreatorEntry, 0, len(s.CreatorBias))
	for id, bias := range s.CreatorBias {
		out = append(out, CreatorEntry{CreatorID: id, Name: s.CreatorNames[id], Bias: bias})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Bias), math.Abs(out[j].Bias)
		if ai != aj {
			return ai > aj
		}
		return out[i].CreatorID < out[j].CreatorID
	})
	return out
}

// ScanContext is what the ledger remembers about one scan instance.
type ScanContext struct {
	ScanKey    string              `json:"scanKey"`
	Bias       *BiasSnapshot       `json:"bias,omitempty"`
	ModelScore *ModelScoreSnapshot `json:"modelScore,omitempty"`
	ContentURL string              `json:"contentUrl,omitempty"`
	Vote       types.Vote          `json:"vote,omitempty"`
}

// ScanContext returns the stored context of a scan instance and whether
// anything is known about it.
func (s *State) ScanContext(contentID, scannedAt string) (ScanContext, bool) {
	key := types.ScanKey(contentID, scannedAt)
	out := ScanContext{ScanKey: key}
	found := false
	if b, ok := s.BiasSnapshots[key]; ok {
		out.Bias = &b
		found = true
	}
	if m, ok := s.ModelScores[key]; ok {
		out.ModelScore = &m
		found = true
	}
	if u, ok := s.ContentURLs[key]; ok {
		out.ContentURL = u
		found = true
	}
	if v, ok := s.ScanFeedback[key]; ok {
		out.Vote = v
		found = true
	}
	return out, found
}
