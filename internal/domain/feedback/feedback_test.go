package feedback_test

import (
	"math/rand"
	"testing"

	"github.com/okian/slopguard/internal/domain/feedback"
	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/session"
	"github.com/okian/slopguard/internal/domain/stamp"
	"github.com/okian/slopguard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func result(contentID, creatorID string, raw float64) types.ScanResult {
	return types.ScanResult{
		ContentID:     contentID,
		CreatorID:     creatorID,
		Platform:      "youtube",
		ScannedAt:     "2026-03-01T10:00:00Z",
		ModelScore:    raw,
		RawModelScore: types.Float64(raw),
	}
}

func TestDirection(t *testing.T) {
	Convey("Given the detector's naive guess", t, func() {
		So(feedback.Predicted(0.5), ShouldEqual, types.VoteAI)
		So(feedback.Predicted(0.49), ShouldEqual, types.VoteNotAI)

		Convey("Then only disagreeing votes carry a direction", func() {
			So(feedback.Direction(types.VoteAI, types.VoteAI), ShouldEqual, 0)
			So(feedback.Direction(types.VoteAI, types.VoteUnsure), ShouldEqual, 0)
			So(feedback.Direction(types.VoteAI, types.VoteNotAI), ShouldEqual, -1)
			So(feedback.Direction(types.VoteNotAI, types.VoteAI), ShouldEqual, 1)
			So(feedback.Direction(types.VoteNotAI, types.Vote("bogus")), ShouldEqual, 0)
		})
	})
}

func TestRecord_NoOp(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		scope := session.New(session.WithToken("s1"))
		prev := ledger.New()
		r := result("v1", "c1", 0.8)

		Convey("When voting unsure", func() {
			next, out := feedback.Record(prev, scope, r, types.VoteUnsure)

			Convey("Then bias is unchanged but the vote is stored", func() {
				So(out.Direction, ShouldEqual, 0)
				So(out.GlobalNudged, ShouldBeFalse)
				So(next.GlobalBias, ShouldEqual, 0.0)
				So(next.CreatorBias, ShouldBeEmpty)
				So(next.ContentFeedback["v1"], ShouldEqual, types.VoteUnsure)
				So(next.ScanFeedback[r.ScanKey()], ShouldEqual, types.VoteUnsure)
				So(next.BiasSnapshots, ShouldContainKey, r.ScanKey())
			})
		})

		Convey("When voting the predicted label", func() {
			next, out := feedback.Record(prev, scope, r, types.VoteAI)

			Convey("Then bias is unchanged", func() {
				So(out.Direction, ShouldEqual, 0)
				So(next.GlobalBias, ShouldEqual, 0.0)
				So(next.CreatorBias, ShouldBeEmpty)
				So(next.AppliedGates, ShouldBeEmpty)
				So(next.ContentFeedback["v1"], ShouldEqual, types.VoteAI)
			})
		})

		Convey("Then the previous state is never modified", func() {
			_, _ = feedback.Record(prev, scope, r, types.VoteNotAI)
			So(prev, ShouldResemble, ledger.New())
		})
	})
}

func TestRecord_Nudges(t *testing.T) {
	Convey("Given an empty ledger and a confident AI prediction", t, func() {
		scope := session.New(session.WithToken("s1"))
		prev := ledger.New()
		r := result("v1", "c1", 0.9)

		Convey("When the user says it is not AI", func() {
			next, out := feedback.Record(prev, scope, r, types.VoteNotAI)

			Convey("Then creator and global bias both move down", func() {
				So(out.Direction, ShouldEqual, -1)
				So(out.CreatorNudged, ShouldBeTrue)
				So(out.GlobalNudged, ShouldBeTrue)
				So(next.CreatorBias["c1"], ShouldAlmostEqual, -0.1)
				So(next.GlobalBias, ShouldAlmostEqual, -0.01)
				So(next.AppliedGates[scope.GateKey("c1", "v1")], ShouldBeTrue)
			})

			Convey("And the snapshot holds the bias before the vote", func() {
				So(out.Snapshot, ShouldResemble, ledger.BiasSnapshot{})
			})

			Convey("And a second correcting vote on the same content only moves global bias", func() {
				again, out2 := feedback.Record(next, scope, r, types.VoteNotAI)
				So(out2.CreatorNudged, ShouldBeFalse)
				So(again.CreatorBias["c1"], ShouldAlmostEqual, -0.1)
				So(again.GlobalBias, ShouldAlmostEqual, -0.02)
			})

			Convey("And a vote on other content from the same creator nudges again", func() {
				other := result("v2", "c1", 0.9)
				again, out2 := feedback.Record(next, scope, other, types.VoteNotAI)
				So(out2.CreatorNudged, ShouldBeTrue)
				So(again.CreatorBias["c1"], ShouldAlmostEqual, -0.2)
			})

			Convey("And after removing the creator the gated content nudges again", func() {
				cleared := next.Clone()
				cleared.RemoveCreatorBias("c1")
				again, out2 := feedback.Record(cleared, scope, r, types.VoteNotAI)
				So(out2.CreatorNudged, ShouldBeTrue)
				So(again.CreatorBias["c1"], ShouldAlmostEqual, -0.1)
			})

			Convey("And a new process scope re-enables the nudge", func() {
				again, out2 := feedback.Record(next, session.New(), r, types.VoteNotAI)
				So(out2.CreatorNudged, ShouldBeTrue)
				So(again.CreatorBias["c1"], ShouldAlmostEqual, -0.2)
			})
		})

		Convey("When the gate is set but the creator entry is missing", func() {
			prev.AppliedGates[scope.GateKey("c1", "v1")] = true
			next, out := feedback.Record(prev, scope, r, types.VoteNotAI)

			Convey("Then the creator is nudged anyway", func() {
				So(out.CreatorNudged, ShouldBeTrue)
				So(next.CreatorBias["c1"], ShouldAlmostEqual, -0.1)
			})
		})
	})

	Convey("Given a low raw score with a personalized model score", t, func() {
		scope := session.New(session.WithToken("s1"))
		r := result("v1", "c1", 0.3)
		r.ModelScore = 0.7

		Convey("When the user says it is AI", func() {
			next, out := feedback.Record(ledger.New(), scope, r, types.VoteAI)

			Convey("Then the prediction uses the raw score", func() {
				So(out.Predicted, ShouldEqual, types.VoteNotAI)
				So(out.Direction, ShouldEqual, 1)
				So(next.CreatorBias["c1"], ShouldAlmostEqual, 0.1)
				So(next.GlobalBias, ShouldAlmostEqual, 0.01)
			})
		})
	})
}

func TestRecord_Snapshot(t *testing.T) {
	Convey("Given a result stamped by an earlier render", t, func() {
		scope := session.New(session.WithToken("s1"))
		prev := ledger.New()
		prev.GlobalBias = 0.4
		r := result("v1", "c1", 0.9)
		r.Evidence = []types.Evidence{stamp.Evidence(0.02, -0.1)}

		Convey("When a vote is recorded", func() {
			next, out := feedback.Record(prev, scope, r, types.VoteUnsure)

			Convey("Then the stamped bias is the snapshot", func() {
				So(out.Snapshot.Global, ShouldAlmostEqual, 0.02)
				So(out.Snapshot.Creator, ShouldAlmostEqual, -0.1)
				So(next.BiasSnapshots[r.ScanKey()], ShouldResemble, out.Snapshot)
			})
		})
	})
}

func TestRecord_CreatorName(t *testing.T) {
	Convey("Given a result with a derivable creator name", t, func() {
		r := result("v1", "c1", 0.9)
		r.ContentURL = "https://www.youtube.com/@someone/shorts/abc"

		Convey("Then the vote records the name", func() {
			next, _ := feedback.Record(ledger.New(), session.New(), r, types.VoteUnsure)
			So(next.CreatorNames["c1"], ShouldEqual, "someone")
		})
	})
}

func TestRecord_Bounds(t *testing.T) {
	Convey("Given a long random sequence of votes", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic sequence
		scope := session.New()
		state := ledger.New()
		votes := []types.Vote{types.VoteAI, types.VoteNotAI, types.VoteUnsure}
		creators := []string{"c1", "c2", "c3"}

		for i := 0; i < 2000; i++ {
			r := result("v"+string(rune('a'+rng.Intn(26))), creators[rng.Intn(len(creators))], rng.Float64())
			state, _ = feedback.Record(state, scope, r, votes[rng.Intn(len(votes))])
			if i%97 == 0 {
				state.RemoveCreatorBias(creators[rng.Intn(len(creators))])
			}
		}

		Convey("Then every bias stays within [-1, 1]", func() {
			So(state.GlobalBias, ShouldBeBetweenOrEqual, -1.0, 1.0)
			for _, b := range state.CreatorBias {
				So(b, ShouldBeBetweenOrEqual, -1.0, 1.0)
			}
		})
	})

	Convey("Given repeated one-sided corrections across fresh scopes", t, func() {
		state := ledger.New()
		r := result("v1", "c1", 0.9)
		for i := 0; i < 50; i++ {
			state, _ = feedback.Record(state, session.New(), r, types.VoteNotAI)
		}

		Convey("Then the creator bias saturates at the lower bound", func() {
			So(state.CreatorBias["c1"], ShouldEqual, -1.0)
			So(state.GlobalBias, ShouldAlmostEqual, -0.5, 1e-9)
		})
	})
}
