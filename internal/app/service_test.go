package service

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/model"
)

func strptr(s string) *string { return &s }

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService(t *testing.T) {
	Convey("Given a started service on the in-memory store", t, func() {
		ctx := context.Background()

		svc := New(WithWorkerCount(2), WithQueueSize(64), WithDedupeSize(128))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		people := []model.Person{
			{ID: "p1", FirstName: "Ada", LastName: "Lovelace", JobTitle: strptr("CEO")},
			{ID: "p2", FirstName: "Grace", LastName: "Hopper", JobTitle: strptr("Principal Engineer")},
		}
		for _, p := range people {
			So(svc.UpsertPerson(ctx, p), ShouldBeNil)
		}

		Convey("When rescore jobs run through the workers", func() {
			So(svc.EnqueueRescore(ctx, "req-1", "p1"), ShouldBeNil)
			So(svc.EnqueueRescore(ctx, "req-2", "p2"), ShouldBeNil)

			processed := func() bool {
				p1, err1 := svc.Store().GetPerson(ctx, "p1")
				p2, err2 := svc.Store().GetPerson(ctx, "p2")
				return err1 == nil && err2 == nil &&
					p1.GlobalRank != nil && p2.GlobalRank != nil
			}
			So(waitFor(processed), ShouldBeTrue)

			Convey("Then the queue orders by global rank ascending", func() {
				entries, err := svc.Queue(ctx, 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				// champion outranks decision maker
				So(entries[0].PersonID, ShouldEqual, "p2")
				So(entries[0].Role, ShouldEqual, "champion")
				So(entries[0].Position, ShouldEqual, 1)
				So(entries[1].PersonID, ShouldEqual, "p1")
				So(entries[1].Role, ShouldEqual, "decision")
			})

			Convey("Then Rank resolves a single person", func() {
				entry, err := svc.Rank(ctx, "p1")
				So(err, ShouldBeNil)
				So(entry.PersonID, ShouldEqual, "p1")
				So(entry.GlobalRank, ShouldEqual, 700)
			})
		})

		Convey("When a rescore targets an unknown person", func() {
			err := svc.EnqueueRescore(ctx, "req-3", "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the same request id arrives twice", func() {
			So(svc.SeenAndRecord(ctx, "req-9"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "req-9"), ShouldBeTrue)

			Convey("Then Unrecord allows a retry", func() {
				svc.Unrecord(ctx, "req-9")
				So(svc.SeenAndRecord(ctx, "req-9"), ShouldBeFalse)
			})
		})

		Convey("When stats are requested", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["totalPeople"], ShouldEqual, 2)
			So(stats["publishing"], ShouldBeFalse)
		})

		Convey("When an unknown person's rank is requested", func() {
			_, err := svc.Rank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given an unstarted service", t, func() {
		svc := New()

		Convey("Then Size is zero before start", func() {
			So(svc.Size(), ShouldEqual, 0)
		})

		Convey("When started twice", func() {
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()
		})
	})
}
