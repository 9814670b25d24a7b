// Package scancontext records, per scan instance, what was on screen: the
// bias in effect, the model scores and the source URL.
package scancontext

import (
	"net/url"
	"strings"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/types"
)

// Platforms with a known URL convention for creator handles.
const (
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
)

// Instagram path roots that are not account handles.
var instagramReserved = map[string]struct{}{
	"p":       {},
	"reel":    {},
	"reels":   {},
	"tv":      {},
	"stories": {},
	"explore": {},
}

// Capture records the render of result on a copy of prev and returns it.
// contentURL may be empty; a stored URL is never cleared.
func Capture(prev *ledger.State, result types.ScanResult, contentURL string) *ledger.State {
	next := prev.Clone()
	key := result.ScanKey()

	next.SetCreatorName(result.CreatorID, CreatorName(result, contentURL))
	next.ModelScores[key] = ledger.ModelScoreSnapshot{
		Raw:          result.BaseModelScore(),
		Personalized: result.ModelScore,
	}
	if contentURL != "" {
		next.ContentURLs[key] = contentURL
	}
	next.EnsureBiasSnapshot(&result)
	return next
}

// CreatorName prefers the server supplied name and otherwise parses one from
// contentURL, falling back to the result's own URL. It returns "" when no
// name can be derived.
func CreatorName(result types.ScanResult, contentURL string) string {
	if name := strings.TrimSpace(result.CreatorName); name != "" {
		return name
	}
	src := contentURL
	if src == "" {
		src = result.ContentURL
	}
	if src == "" {
		return ""
	}
	return NameFromURL(src, result.Platform)
}

// NameFromURL extracts a creator handle from a content URL using the
// platform's path convention. Only absolute URLs are considered.
func NameFromURL(raw, platform string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return ""
	}

	switch strings.ToLower(platform) {
	case PlatformTikTok:
		for _, seg := range segments {
			if strings.HasPrefix(seg, "@") {
				return strings.TrimPrefix(seg, "@")
			}
		}
	case PlatformInstagram:
		first := segments[0]
		if _, reserved := instagramReserved[strings.ToLower(first)]; reserved {
			return ""
		}
		return strings.TrimPrefix(first, "@")
	case PlatformYouTube:
		if first := segments[0]; strings.HasPrefix(first, "@") {
			return strings.TrimPrefix(first, "@")
		}
	}
	return ""
}
