package seed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a seed configuration", t, func() {
		config := &Config{NumCompanies: 4, NumPeople: 40, Workers: 4}
		stats := &Stats{}

		convey.Convey("When companies are generated", func() {
			companies, err := generateCompanies(ctx, config, stats)

			convey.So(err, convey.ShouldBeNil)
			convey.So(companies, convey.ShouldHaveLength, 4)
			convey.So(stats.CompaniesGenerated, convey.ShouldEqual, 4)

			convey.Convey("Then every company has a website derived from its name", func() {
				for _, c := range companies {
					convey.So(c.ID, convey.ShouldNotBeEmpty)
					convey.So(c.Website, convey.ShouldNotBeNil)
					convey.So(*c.Website, convey.ShouldNotBeEmpty)
				}
			})

			convey.Convey("And when people are generated against them", func() {
				people, err := generatePeople(ctx, config, companies, stats)

				convey.So(err, convey.ShouldBeNil)
				convey.So(people, convey.ShouldHaveLength, 40)

				companyIDs := make(map[string]bool, len(companies))
				for _, c := range companies {
					companyIDs[c.ID] = true
				}

				convey.Convey("Then every person references a generated company", func() {
					for _, p := range people {
						convey.So(p.CompanyID, convey.ShouldNotBeNil)
						convey.So(companyIDs[*p.CompanyID], convey.ShouldBeTrue)
						convey.So(p.Email, convey.ShouldNotBeNil)
						convey.So(p.InBuyerGroup, convey.ShouldBeTrue)
					}
				})

				convey.Convey("Then rescore requests line up with the people", func() {
					requests := rescoreRequests(people)
					convey.So(requests, convey.ShouldHaveLength, 40)
					for i, req := range requests {
						convey.So(req.PersonID, convey.ShouldEqual, people[i].ID)
						convey.So(req.RequestID, convey.ShouldNotBeEmpty)
					}
				})
			})
		})

		convey.Convey("When people are generated with no companies", func() {
			_, err := generatePeople(ctx, config, nil, stats)

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestVerifyQueueConsistency(t *testing.T) {
	convey.Convey("Given ranks sorted by ascending global rank", t, func() {
		sorted := []RankEntry{
			{Position: 1, PersonID: "p1", GlobalRank: 500},
			{Position: 2, PersonID: "p2", GlobalRank: 700},
			{Position: 3, PersonID: "p3", GlobalRank: 1100},
		}

		convey.Convey("When the queue matches", func() {
			err := verifyQueueConsistency(sorted, sorted)

			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When the queue head disagrees", func() {
			queue := []RankEntry{
				{Position: 1, PersonID: "p2", GlobalRank: 700},
			}
			err := verifyQueueConsistency(sorted, queue)

			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the queue ordering is broken", func() {
			queue := []RankEntry{
				{Position: 1, PersonID: "p1", GlobalRank: 500},
				{Position: 2, PersonID: "p3", GlobalRank: 1100},
				{Position: 3, PersonID: "p2", GlobalRank: 700},
			}
			err := verifyQueueConsistency(sorted, queue)

			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When queue positions are not contiguous", func() {
			queue := []RankEntry{
				{Position: 1, PersonID: "p1", GlobalRank: 500},
				{Position: 3, PersonID: "p2", GlobalRank: 700},
			}
			err := verifyQueueConsistency(sorted, queue)

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

// fakeAPI is an in-memory stand-in for the service HTTP surface.
type fakeAPI struct {
	mu     sync.Mutex
	people map[string]PersonRecord
	ranks  map[string]RankEntry
	seen   map[string]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		people: make(map[string]PersonRecord),
		ranks:  make(map[string]RankEntry),
		seen:   make(map[string]bool),
	}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/companies", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(AckResponse{Status: "stored"})
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		var p PersonRecord
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.mu.Lock()
		f.people[p.ID] = p
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(AckResponse{Status: "stored"})
	})
	mux.HandleFunc("/rescore", func(w http.ResponseWriter, r *http.Request) {
		var req RescoreRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		dup := f.seen[req.RequestID]
		f.seen[req.RequestID] = true
		p, ok := f.people[req.PersonID]
		if ok && !dup {
			f.ranks[p.ID] = RankEntry{
				PersonID:   p.ID,
				Name:       p.FirstName + " " + p.LastName,
				Role:       "stakeholder",
				GlobalRank: 800 + len(f.ranks),
			}
		}
		f.mu.Unlock()
		if dup {
			_ = json.NewEncoder(w).Encode(AckResponse{Status: "duplicate", Duplicate: true})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(AckResponse{Status: "accepted"})
	})
	mux.HandleFunc("/rank/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/rank/"):]
		f.mu.Lock()
		entry, ok := f.ranks[id]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(entry)
	})
	mux.HandleFunc("/queue", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		entries := make([]RankEntry, 0, len(f.ranks))
		for _, entry := range f.ranks {
			entries = append(entries, entry)
		}
		f.mu.Unlock()
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].GlobalRank < entries[j].GlobalRank
		})
		for i := range entries {
			entries[i].Position = i + 1
		}
		_ = json.NewEncoder(w).Encode(entries)
	})
	return mux
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service and a seed configuration", t, func() {
		api := newFakeAPI()
		server := httptest.NewServer(api.handler())
		defer server.Close()

		config := &Config{
			BaseURL:      server.URL,
			NumCompanies: 3,
			NumPeople:    15,
			TopN:         10,
			Workers:      4,
			Timeout:      5 * time.Second,
			Wait:         10 * time.Millisecond,
			OutputFile:   filepath.Join(t.TempDir(), "records.json"),
		}

		convey.Convey("When the run completes", func() {
			err := Run(context.Background(), config)

			convey.So(err, convey.ShouldBeNil)
			convey.So(api.people, convey.ShouldHaveLength, 15)
			convey.So(api.ranks, convey.ShouldHaveLength, 15)
		})

		convey.Convey("When the service is unreachable", func() {
			config.BaseURL = "http://127.0.0.1:0"
			err := Run(context.Background(), config)

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
