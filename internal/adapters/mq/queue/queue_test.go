package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/adrata/crmops/internal/adapters/mq/queue"
	"github.com/adrata/crmops/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) model.RescoreJob {
	return model.RescoreJob{
		RequestID: id,
		Person:    model.Person{ID: "p-" + id},
		TS:        time.Now(),
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory rescore queue", t, func() {
		Convey("When enqueuing within capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(10))
			defer func() { _ = q.Close() }()

			So(q.Enqueue(context.Background(), job("1")), ShouldBeTrue)
			So(q.Enqueue(context.Background(), job("2")), ShouldBeTrue)
			So(q.Len(context.Background()), ShouldEqual, 2)
		})

		Convey("When the queue is full", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			defer func() { _ = q.Close() }()

			So(q.Enqueue(context.Background(), job("1")), ShouldBeTrue)

			Convey("Then further enqueues are rejected, not blocked", func() {
				So(q.Enqueue(context.Background(), job("2")), ShouldBeFalse)
				So(q.Len(context.Background()), ShouldEqual, 1)
			})
		})

		Convey("When dequeuing", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(10))

			want := []string{"a", "b", "c"}
			for _, id := range want {
				So(q.Enqueue(context.Background(), job(id)), ShouldBeTrue)
			}
			So(q.Close(), ShouldBeNil)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			var got []string
			for j := range q.Dequeue(ctx) {
				got = append(got, j.RequestID)
			}

			Convey("Then jobs arrive in FIFO order and the channel closes", func() {
				So(got, ShouldResemble, want)
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(10))
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected and close is idempotent", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(context.Background(), job("1")), ShouldBeFalse)
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When many producers enqueue concurrently", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
			done := make(chan struct{})
			for g := 0; g < 10; g++ {
				go func(g int) {
					for i := 0; i < 50; i++ {
						q.Enqueue(context.Background(), job(fmt.Sprintf("%d-%d", g, i)))
					}
					done <- struct{}{}
				}(g)
			}
			for g := 0; g < 10; g++ {
				<-done
			}

			Convey("Then every job is queued", func() {
				So(q.Len(context.Background()), ShouldEqual, 500)
			})
		})
	})
}
