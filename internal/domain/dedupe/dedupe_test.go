package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/ladder/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new tracker", t, func() {
		tr := dedupe.NewTracker()

		Convey("Then it starts empty", func() {
			So(tr.Len(), ShouldEqual, 0)
		})

		Convey("When an event is claimed twice", func() {
			first := tr.Claim(ctx, "2025-03-01")
			second := tr.Claim(ctx, "2025-03-01")

			Convey("Then only the first claim wins", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(tr.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a claimed event is released", func() {
			tr.Claim(ctx, "evt")
			tr.Release(ctx, "evt")

			Convey("Then it can be claimed again", func() {
				So(tr.Len(), ShouldEqual, 0)
				So(tr.Claim(ctx, "evt"), ShouldBeTrue)
			})
		})

		Convey("When an unknown event is released", func() {
			tr.Claim(ctx, "a")
			tr.Release(ctx, "b")

			Convey("Then nothing changes", func() {
				So(tr.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a tracker with capacity three", t, func() {
		tr := dedupe.NewTracker(dedupe.WithCapacity(3))
		for i := 1; i <= 4; i++ {
			tr.Claim(ctx, fmt.Sprintf("evt-%d", i))
		}

		Convey("Then the oldest claim was evicted", func() {
			So(tr.Len(), ShouldEqual, 3)
			So(tr.Claim(ctx, "evt-1"), ShouldBeTrue)
			So(tr.Claim(ctx, "evt-4"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded tracker", t, func() {
		tr := dedupe.NewTracker(dedupe.WithCapacity(0))
		for i := 0; i < 500; i++ {
			tr.Claim(ctx, fmt.Sprintf("evt-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(tr.Len(), ShouldEqual, 500)
		})
	})

	Convey("Given concurrent claims for the same event", t, func() {
		tr := dedupe.NewTracker()
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if tr.Claim(ctx, "shared") {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one goroutine wins", func() {
			So(wins, ShouldEqual, 1)
		})
	})
}
