package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/adrata/crmops/internal/adapters/http/api"
	"github.com/adrata/crmops/internal/adapters/repository"
	service "github.com/adrata/crmops/internal/app"
	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/internal/domain/types"
)

// fakeService implements api.Dependencies and api.StatsProvider.
type fakeService struct {
	seen      map[string]bool
	people    map[string]model.Person
	companies map[string]model.Company
	entries   []types.QueueEntry
	full      bool
}

func newFakeService() *fakeService {
	return &fakeService{
		seen:      make(map[string]bool),
		people:    make(map[string]model.Person),
		companies: make(map[string]model.Company),
		entries: []types.QueueEntry{
			{Position: 1, PersonID: "p2", Name: "Grace Hopper", Role: "champion", GlobalRank: 1, Influence: 80},
			{Position: 2, PersonID: "p1", Name: "Ada Lovelace", Role: "decision", GlobalRank: 700},
		},
	}
}

func (f *fakeService) SeenAndRecord(_ context.Context, id string) bool {
	if f.seen[id] {
		return true
	}
	f.seen[id] = true
	return false
}

func (f *fakeService) Unrecord(_ context.Context, id string) { delete(f.seen, id) }

func (f *fakeService) Size() int64 { return int64(len(f.seen)) }

func (f *fakeService) EnqueueRescore(_ context.Context, _, personID string) error {
	if _, ok := f.people[personID]; !ok {
		return repository.ErrNotFound
	}
	if f.full {
		return service.ErrBackpressure
	}
	return nil
}

func (f *fakeService) UpsertPerson(_ context.Context, p model.Person) error {
	f.people[p.ID] = p
	return nil
}

func (f *fakeService) UpsertCompany(_ context.Context, c model.Company) error {
	f.companies[c.ID] = c
	return nil
}

func (f *fakeService) Queue(_ context.Context, n int) ([]types.QueueEntry, error) {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n], nil
}

func (f *fakeService) Rank(_ context.Context, personID string) (types.QueueEntry, error) {
	for _, e := range f.entries {
		if e.PersonID == personID {
			return e, nil
		}
	}
	return types.QueueEntry{}, repository.ErrNotFound
}

func (f *fakeService) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "totalPeople": len(f.people)}
}

func newTestServer(f *fakeService) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(f, f, 50).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestRescoreEndpoint(t *testing.T) {
	Convey("Given the rescore endpoint", t, func() {
		f := newFakeService()
		f.people["p1"] = model.Person{ID: "p1"}
		srv := newTestServer(f)
		Reset(srv.Close)

		post := func(body string) *http.Response {
			resp, err := http.Post(srv.URL+"/rescore", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When a valid request arrives", func() {
			resp := post(`{"request_id":"r1","person_id":"p1"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
		})

		Convey("When the same request id arrives twice", func() {
			first := post(`{"request_id":"r1","person_id":"p1"}`)
			first.Body.Close()
			second := post(`{"request_id":"r1","person_id":"p1"}`)
			defer second.Body.Close()

			So(second.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When the person is unknown", func() {
			resp := post(`{"request_id":"r2","person_id":"ghost"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)

			Convey("Then the request id can be retried", func() {
				So(f.seen["r2"], ShouldBeFalse)
			})
		})

		Convey("When the queue is full", func() {
			f.full = true
			resp := post(`{"request_id":"r3","person_id":"p1"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			So(f.seen["r3"], ShouldBeFalse)
		})

		Convey("When the body is invalid", func() {
			resp := post(`{not json`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When required fields are missing", func() {
			resp := post(`{"request_id":"r4"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the timestamp is not RFC3339", func() {
			resp := post(`{"request_id":"r5","person_id":"p1","ts":"yesterday"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is GET", func() {
			resp, err := http.Get(srv.URL + "/rescore")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestQueueEndpoint(t *testing.T) {
	Convey("Given the queue endpoint", t, func() {
		srv := newTestServer(newFakeService())
		Reset(srv.Close)

		Convey("When a valid limit is given", func() {
			resp, err := http.Get(srv.URL + "/queue?limit=10")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "application/json")
		})

		Convey("When the limit is missing", func() {
			resp, err := http.Get(srv.URL + "/queue")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the cap", func() {
			resp, err := http.Get(srv.URL + "/queue?limit=500")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRankEndpoint(t *testing.T) {
	Convey("Given the rank endpoint", t, func() {
		srv := newTestServer(newFakeService())
		Reset(srv.Close)

		Convey("When the person exists", func() {
			resp, err := http.Get(srv.URL + "/rank/p2")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When the person is unknown", func() {
			resp, err := http.Get(srv.URL + "/rank/ghost")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path has extra segments", func() {
			resp, err := http.Get(srv.URL + "/rank/a/b")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRecordEndpoints(t *testing.T) {
	Convey("Given the record endpoints", t, func() {
		f := newFakeService()
		srv := newTestServer(f)
		Reset(srv.Close)

		Convey("When a person is posted", func() {
			body := `{"id":"p9","first_name":"Alan","last_name":"Turing","job_title":"CTO"}`
			resp, err := http.Post(srv.URL+"/people", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(f.people["p9"].FirstName, ShouldEqual, "Alan")
		})

		Convey("When a person has no name", func() {
			resp, err := http.Post(srv.URL+"/people", "application/json", strings.NewReader(`{"id":"p9"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a company is posted", func() {
			body := `{"id":"c9","name":"Acme","website":"acme.com"}`
			resp, err := http.Post(srv.URL+"/companies", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(f.companies["c9"].Name, ShouldEqual, "Acme")
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		srv := newTestServer(newFakeService())
		Reset(srv.Close)

		resp, err := http.Get(srv.URL + "/stats")
		So(err, ShouldBeNil)
		defer resp.Body.Close()

		So(resp.StatusCode, ShouldEqual, http.StatusOK)
	})
}
