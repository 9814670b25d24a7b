package stamp_test

import (
	"testing"

	"github.com/okian/slopguard/internal/domain/stamp"
	"github.com/okian/slopguard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStamp(t *testing.T) {
	Convey("Given a formatted stamp", t, func() {
		line := stamp.Evidence(-0.03, 0.2)

		Convey("Then it is a low strength settings line", func() {
			So(line.Source, ShouldEqual, types.SourceSettings)
			So(line.Strength, ShouldEqual, types.ConfidenceLow)
			So(line.Message, ShouldEqual, "Personalization bias applied (global: -0.03, creator: 0.20).")
		})

		Convey("When parsed back", func() {
			g, c, ok := stamp.Parse([]types.Evidence{{Source: types.SourceModel, Message: "x"}, line})

			Convey("Then the values round trip", func() {
				So(ok, ShouldBeTrue)
				So(g, ShouldAlmostEqual, -0.03)
				So(c, ShouldAlmostEqual, 0.2)
			})
		})

		Convey("When stripped", func() {
			ev := []types.Evidence{{Source: types.SourceModel, Message: "x"}, line}
			out := stamp.Strip(ev)

			Convey("Then only the stamp is removed", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].Source, ShouldEqual, types.SourceModel)
				So(ev, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given evidence without a readable stamp", t, func() {
		Convey("When no settings line exists", func() {
			_, _, ok := stamp.Parse([]types.Evidence{{Source: types.SourceModel, Message: "Personalization bias applied (global: 0.1, creator: 0.1)."}})
			So(ok, ShouldBeFalse)
		})

		Convey("When the numbers are garbled", func() {
			_, _, ok := stamp.Parse([]types.Evidence{{Source: types.SourceSettings, Message: "Personalization bias applied (global: n/a)."}})
			So(ok, ShouldBeFalse)
		})

		Convey("When the settings line is unrelated", func() {
			_, _, ok := stamp.Parse([]types.Evidence{{Source: types.SourceSettings, Message: "Conservative mode on (global: 0.1, creator: 0.1)."}})
			So(ok, ShouldBeFalse)
		})
	})
}
