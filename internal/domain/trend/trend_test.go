package trend_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/ladder/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given ratings before and after an event", t, func() {
		Convey("When the ratio sits exactly on a threshold", func() {
			Convey("Then it lands on the documented side", func() {
				So(trend.Classify(1000, 1100), ShouldEqual, trend.Up)     // 1.10
				So(trend.Classify(1000, 1010), ShouldEqual, trend.Up)     // 1.01
				So(trend.Classify(1000, 990), ShouldEqual, trend.Neutral) // 0.99
				So(trend.Classify(1000, 900), ShouldEqual, trend.BigDown) // 0.90
			})
		})

		Convey("When the ratio is just inside each bucket", func() {
			Convey("Then each level is reachable", func() {
				So(trend.Classify(1000, 1101), ShouldEqual, trend.BigUp)
				So(trend.Classify(1000, 1050), ShouldEqual, trend.Up)
				So(trend.Classify(1000, 1009), ShouldEqual, trend.Neutral)
				So(trend.Classify(1000, 1000), ShouldEqual, trend.Neutral)
				So(trend.Classify(1000, 989), ShouldEqual, trend.Down)
				So(trend.Classify(1000, 901), ShouldEqual, trend.Down)
				So(trend.Classify(1000, 899), ShouldEqual, trend.BigDown)
			})
		})

		Convey("When the rating before is zero", func() {
			Convey("Then the ratio is treated as unchanged", func() {
				So(trend.Classify(0, 1500), ShouldEqual, trend.Neutral)
			})
		})
	})
}

func TestLevelRendering(t *testing.T) {
	Convey("Given every level", t, func() {
		levels := []trend.Level{trend.BigUp, trend.Up, trend.Neutral, trend.Down, trend.BigDown}

		Convey("Then levels are ordered", func() {
			for i := 1; i < len(levels); i++ {
				So(levels[i], ShouldBeLessThan, levels[i-1])
			}
		})

		Convey("Then names parse back", func() {
			for _, l := range levels {
				got, err := trend.Parse(l.String())
				So(err, ShouldBeNil)
				So(got, ShouldEqual, l)
			}
		})

		Convey("Then arrows match the standings table", func() {
			So(trend.BigUp.Arrow(), ShouldEqual, "↑")
			So(trend.Neutral.Arrow(), ShouldEqual, "→")
			So(trend.BigDown.Arrow(), ShouldEqual, "↓")
		})

		Convey("Then JSON uses the names", func() {
			b, err := json.Marshal(trend.Down)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"DOWN"`)

			var l trend.Level
			So(json.Unmarshal([]byte(`"BIG_UP"`), &l), ShouldBeNil)
			So(l, ShouldEqual, trend.BigUp)
		})

		Convey("When the name is unknown", func() {
			_, err := trend.Parse("SIDEWAYS")
			So(err, ShouldNotBeNil)
		})
	})
}
