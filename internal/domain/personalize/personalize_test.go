package personalize_test

import (
	"strings"
	"testing"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/personalize"
	"github.com/okian/slopguard/internal/domain/stamp"
	"github.com/okian/slopguard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func scanResult() types.ScanResult {
	return types.ScanResult{
		ContentID:      "youtube:abc",
		Platform:       "youtube",
		CreatorID:      "c1",
		Verdict:        types.VerdictLikelyHuman,
		FinalScore:     0.42,
		ConfidenceBand: types.ConfidenceLow,
		PlatformScore:  0.6,
		CommunityScore: 0.5,
		ModelScore:     0.6,
		ScannedAt:      "2026-03-01T10:00:00Z",
		Evidence: []types.Evidence{
			{Source: types.SourcePlatform, Message: "Platform label found", Strength: types.ConfidenceMedium},
			{Source: types.SourceCommunity, Message: "3 community votes", Strength: types.ConfidenceMedium},
			{Source: types.SourceModel, Message: "Model score 0.60", Strength: types.ConfidenceMedium},
		},
	}
}

func modelLine(r types.ScanResult) string {
	for _, e := range r.Evidence {
		if e.Source == types.SourceModel {
			return e.Message
		}
	}
	return ""
}

func countStamps(r types.ScanResult) int {
	n := 0
	for _, e := range r.Evidence {
		if stamp.IsStamp(e) {
			n++
		}
	}
	return n
}

func TestDecideVerdict(t *testing.T) {
	Convey("Given conservative mode without low signal", t, func() {
		Convey("Then 0.86 is likely AI with high confidence", func() {
			v, c := personalize.DecideVerdict(0.86, true, false)
			So(v, ShouldEqual, types.VerdictLikelyAI)
			So(c, ShouldEqual, types.ConfidenceHigh)
		})

		Convey("Then 0.62 is unclear with medium confidence", func() {
			v, c := personalize.DecideVerdict(0.62, true, false)
			So(v, ShouldEqual, types.VerdictUnclear)
			So(c, ShouldEqual, types.ConfidenceMedium)
		})

		Convey("Then 0.40 is likely human with low confidence", func() {
			v, c := personalize.DecideVerdict(0.40, true, false)
			So(v, ShouldEqual, types.VerdictLikelyHuman)
			So(c, ShouldEqual, types.ConfidenceLow)
		})

		Convey("Then 0.82 is not yet likely AI", func() {
			v, _ := personalize.DecideVerdict(0.82, true, false)
			So(v, ShouldEqual, types.VerdictUnclear)
		})
	})

	Convey("Given standard mode", t, func() {
		v, _ := personalize.DecideVerdict(0.80, false, false)
		So(v, ShouldEqual, types.VerdictLikelyAI)
		v, _ = personalize.DecideVerdict(0.55, false, false)
		So(v, ShouldEqual, types.VerdictUnclear)
		v, _ = personalize.DecideVerdict(0.50, false, false)
		So(v, ShouldEqual, types.VerdictLikelyHuman)
	})

	Convey("Given low-signal mode", t, func() {
		Convey("Then 0.50 is unclear in both modes", func() {
			v, c := personalize.DecideVerdict(0.50, false, true)
			So(v, ShouldEqual, types.VerdictUnclear)
			So(c, ShouldEqual, types.ConfidenceMedium)
			v, _ = personalize.DecideVerdict(0.50, true, true)
			So(v, ShouldEqual, types.VerdictUnclear)
		})

		Convey("Then the AI threshold is unchanged", func() {
			v, _ := personalize.DecideVerdict(0.84, true, true)
			So(v, ShouldEqual, types.VerdictUnclear)
		})
	})
}

func TestIsLowSignalMode(t *testing.T) {
	Convey("Given a result with an inconclusive platform lookup and no votes", t, func() {
		r := scanResult()
		r.PlatformScore = 0.5
		r.Evidence = []types.Evidence{
			{Source: types.SourcePlatform, Message: "Platform lookup unavailable", Strength: types.ConfidenceLow},
			{Source: types.SourceCommunity, Message: "No community votes yet.", Strength: types.ConfidenceLow},
		}

		Convey("Then it is low signal", func() {
			So(personalize.IsLowSignalMode(&r), ShouldBeTrue)
		})

		Convey("When the platform score is not exactly 0.5", func() {
			r.PlatformScore = 0.51
			So(personalize.IsLowSignalMode(&r), ShouldBeFalse)
		})

		Convey("When community votes exist", func() {
			r.Evidence[1].Message = "4 community votes"
			So(personalize.IsLowSignalMode(&r), ShouldBeFalse)
		})

		Convey("When the platform evidence is strong", func() {
			r.Evidence[0].Strength = types.ConfidenceHigh
			So(personalize.IsLowSignalMode(&r), ShouldBeFalse)
		})
	})
}

func TestApply_UserList(t *testing.T) {
	Convey("Given a creator on the user's block list and a biased ledger", t, func() {
		state := ledger.New()
		state.GlobalBias = 0.3
		state.CreatorBias["c1"] = -0.4
		r := scanResult()
		r.Verdict = types.VerdictLikelyAI
		r.RawModelScore = types.Float64(0.9)
		r.ModelScore = 0.7
		r.Evidence = append(r.Evidence, types.Evidence{Source: types.SourceUserList, Message: "Creator is on your block list.", Strength: types.ConfidenceHigh})

		Convey("When personalizing", func() {
			out, path := personalize.ApplyWithPath(state, r, true)

			Convey("Then model and raw scores collapse to the raw value", func() {
				So(path, ShouldEqual, personalize.PathUserList)
				So(out.ModelScore, ShouldEqual, 0.9)
				So(*out.RawModelScore, ShouldEqual, 0.9)
			})

			Convey("And verdict and evidence are untouched", func() {
				So(out.Verdict, ShouldEqual, types.VerdictLikelyAI)
				So(out.FinalScore, ShouldEqual, r.FinalScore)
				So(out.Evidence, ShouldResemble, r.Evidence)
			})
		})
	})
}

func TestApply_ZeroBias(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		state := ledger.New()
		r := scanResult()

		Convey("When personalizing", func() {
			out, path := personalize.ApplyWithPath(state, r, false)

			Convey("Then final score and verdict are exactly as supplied", func() {
				So(path, ShouldEqual, personalize.PathZeroBias)
				So(out.FinalScore, ShouldEqual, 0.42)
				So(out.Verdict, ShouldEqual, types.VerdictLikelyHuman)
				So(out.ConfidenceBand, ShouldEqual, types.ConfidenceLow)
			})

			Convey("And the model line says the score is raw", func() {
				So(out.ModelScore, ShouldEqual, 0.6)
				So(*out.RawModelScore, ShouldEqual, 0.6)
				So(modelLine(out), ShouldStartWith, "Model score 0.60 (raw; no personalization delta).")
			})

			Convey("And a zero stamp is appended", func() {
				last := out.Evidence[len(out.Evidence)-1]
				So(last.Message, ShouldEqual, "Personalization bias applied (global: 0.00, creator: 0.00).")
			})

			Convey("And the input is not modified", func() {
				So(r.Evidence, ShouldHaveLength, 3)
				So(r.RawModelScore, ShouldBeNil)
				So(modelLine(r), ShouldEqual, "Model score 0.60")
			})
		})

		Convey("When biases cancel out", func() {
			state.GlobalBias = 0.1
			state.CreatorBias["c1"] = -0.1
			_, path := personalize.ApplyWithPath(state, r, false)
			So(path, ShouldEqual, personalize.PathZeroBias)
		})
	})
}

func TestApply_Adjusted(t *testing.T) {
	Convey("Given a creator bias of +0.1", t, func() {
		state := ledger.New()
		state.CreatorBias["c1"] = 0.1
		r := scanResult()

		Convey("When personalizing in standard mode", func() {
			out, path := personalize.ApplyWithPath(state, r, false)

			Convey("Then model and final score are recomputed", func() {
				So(path, ShouldEqual, personalize.PathAdjusted)
				So(out.ModelScore, ShouldAlmostEqual, 0.7)
				So(*out.RawModelScore, ShouldEqual, 0.6)
				// 0.5*0.6 + 0.3*0.5 + 0.2*0.7
				So(out.FinalScore, ShouldAlmostEqual, 0.59)
			})

			Convey("And the verdict follows the recomputed score", func() {
				So(out.Verdict, ShouldEqual, types.VerdictUnclear)
				So(out.ConfidenceBand, ShouldEqual, types.ConfidenceMedium)
			})

			Convey("And the model line carries both scores", func() {
				So(modelLine(out), ShouldStartWith, "Model score 0.70 (personalized; raw 0.60).")
				So(modelLine(out), ShouldEndWith, "Vote down below if you think the model score seems wrong.")
				So(modelLine(out), ShouldContainSubstring, "higher the likelihood that the model thinks the content is AI Slop.")
			})

			Convey("And re-applying keeps a single stamp", func() {
				again := personalize.Apply(state, out, false)
				So(countStamps(again), ShouldEqual, 1)
				So(again.ModelScore, ShouldAlmostEqual, 0.7)
				So(again.FinalScore, ShouldAlmostEqual, 0.59)
			})
		})

		Convey("When the adjusted model score would exceed 1", func() {
			state.GlobalBias = 0.5
			r.RawModelScore = types.Float64(0.95)
			out := personalize.Apply(state, r, false)

			Convey("Then it is clamped", func() {
				So(out.ModelScore, ShouldEqual, 1.0)
				So(out.FinalScore, ShouldAlmostEqual, 0.65)
			})
		})

		Convey("When the evidence is low signal", func() {
			state.CreatorBias["c1"] = -0.3
			r.PlatformScore = 0.5
			r.CommunityScore = 0.5
			r.RawModelScore = types.Float64(0.8)
			r.Evidence[0].Strength = types.ConfidenceLow
			r.Evidence[1].Message = "No community votes yet"
			out := personalize.Apply(state, r, false)

			Convey("Then the lowered unclear threshold applies", func() {
				// 0.25 + 0.15 + 0.2*0.5
				So(out.FinalScore, ShouldAlmostEqual, 0.5)
				So(out.Verdict, ShouldEqual, types.VerdictUnclear)
			})
		})
	})

	Convey("Given a stamp left by an older render", t, func() {
		state := ledger.New()
		state.GlobalBias = -0.05
		r := scanResult()
		r.Evidence = append(r.Evidence, stamp.Evidence(0.2, 0.2))

		Convey("Then it is replaced by the current values", func() {
			out := personalize.Apply(state, r, true)
			So(countStamps(out), ShouldEqual, 1)
			So(out.Evidence[len(out.Evidence)-1].Message, ShouldContainSubstring, "global: -0.05, creator: 0.00")
			So(strings.Count(modelLine(out), "personalized"), ShouldEqual, 1)
		})
	})
}
