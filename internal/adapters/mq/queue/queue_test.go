package queue_test

import (
	"context"
	"testing"

	"github.com/okian/ladder/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with room for two events", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When three events are offered", func() {
			first := q.Enqueue(ctx, queue.Event{EventID: "a"})
			second := q.Enqueue(ctx, queue.Event{EventID: "b"})
			third := q.Enqueue(ctx, queue.Event{EventID: "c"})

			Convey("Then the overflow is refused", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
				So(third, ShouldBeFalse)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then events come out in submission order", func() {
				So(q.Close(), ShouldBeNil)
				var ids []string
				for e := range q.Dequeue() {
					ids = append(ids, e.EventID)
				}
				So(ids, ShouldResemble, []string{"a", "b"})
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then nothing more is accepted", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Event{EventID: "late"}), ShouldBeFalse)
			})
		})

		Convey("When the caller's context is already done", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the event is refused", func() {
				So(q.Enqueue(cctx, queue.Event{EventID: "x"}), ShouldBeFalse)
				So(q.Len(), ShouldEqual, 0)
			})
		})
	})
}
