// Package types contains the scan-result shape shared across the application.
package types

// Verdict is the displayed classification of a scanned item.
type Verdict string

// Verdict values.
const (
	VerdictLikelyAI    Verdict = "likely_ai"
	VerdictUnclear     Verdict = "unclear"
	VerdictLikelyHuman Verdict = "likely_human"
)

// Label returns the human readable verdict.
func (v Verdict) Label() string {
	switch v {
	case VerdictLikelyAI:
		return "Likely AI-Generated"
	case VerdictLikelyHuman:
		return "Likely Human-Made"
	default:
		return "Unclear"
	}
}

// ConfidenceBand is the coarse confidence attached to a verdict and to evidence.
type ConfidenceBand string

// ConfidenceBand values.
const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// Label returns the human readable confidence band.
func (c ConfidenceBand) Label() string {
	switch c {
	case ConfidenceHigh:
		return "High"
	case ConfidenceLow:
		return "Low"
	default:
		return "Medium"
	}
}

// Source identifies which signal produced an evidence line.
type Source string

// Evidence sources.
const (
	SourcePlatform  Source = "platform"
	SourceCommunity Source = "community"
	SourceModel     Source = "model"
	SourceUserList  Source = "user_list"
	SourceSettings  Source = "settings"
)

// Vote is an explicit user judgement on a scanned item.
type Vote string

// Vote values.
const (
	VoteAI     Vote = "ai"
	VoteNotAI  Vote = "not_ai"
	VoteUnsure Vote = "unsure"
)

// Valid reports whether v is one of the known votes.
func (v Vote) Valid() bool {
	return v == VoteAI || v == VoteNotAI || v == VoteUnsure
}

// Evidence is one explanatory line attached to a scan result.
type Evidence struct {
	Source   Source         `json:"source" validate:"required,oneof=platform community model user_list settings"`
	Message  string         `json:"message"`
	Strength ConfidenceBand `json:"strength" validate:"omitempty,oneof=high medium low"`
}

// ScanResult mirrors the response produced by the scanning backend.
type ScanResult struct {
	ContentID      string         `json:"contentId" validate:"required"`
	Platform       string         `json:"platform"`
	CanonicalID    string         `json:"canonicalId"`
	CreatorID      string         `json:"creatorId" validate:"required"`
	CreatorName    string         `json:"creatorName,omitempty"`
	Verdict        Verdict        `json:"verdict"`
	FinalScore     float64        `json:"finalScore"`
	ConfidenceBand ConfidenceBand `json:"confidenceBand"`
	PlatformScore  float64        `json:"platformScore"`
	CommunityScore float64        `json:"communityScore"`
	ModelScore     float64        `json:"modelScore"`
	RawModelScore  *float64       `json:"rawModelScore,omitempty"`
	ContentURL     string         `json:"contentUrl,omitempty"`
	Evidence       []Evidence     `json:"evidence" validate:"dive"`
	ScannedAt      string         `json:"scannedAt" validate:"required"`
}

// BaseModelScore is the unadjusted detector score: the raw score when present,
// otherwise the (possibly already personalized) model score.
func (r *ScanResult) BaseModelScore() float64 {
	if r.RawModelScore != nil {
		return *r.RawModelScore
	}
	return r.ModelScore
}

// ScanKey identifies one scan instance of a content item.
func (r *ScanResult) ScanKey() string {
	return ScanKey(r.ContentID, r.ScannedAt)
}

// HasEvidence reports whether any evidence line comes from src.
func (r *ScanResult) HasEvidence(src Source) bool {
	for _, e := range r.Evidence {
		if e.Source == src {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can rewrite evidence without aliasing.
func (r *ScanResult) Clone() ScanResult {
	out := *r
	if r.RawModelScore != nil {
		raw := *r.RawModelScore
		out.RawModelScore = &raw
	}
	if r.Evidence != nil {
		out.Evidence = make([]Evidence, len(r.Evidence))
		copy(out.Evidence, r.Evidence)
	}
	return out
}

// ScanKey joins a content id and scan timestamp.
func ScanKey(contentID, scannedAt string) string {
	return contentID + "::" + scannedAt
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
