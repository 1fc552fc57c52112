package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/adrata/crmops/internal/domain/model"
)

func person() model.Person {
	return model.Person{ID: "p1", FirstName: "Ada", LastName: "Lovelace"}
}

func TestCoresignalClient(t *testing.T) {
	Convey("Given a coresignal-shaped API", t, func() {
		ctx := context.Background()

		Convey("When the search returns a member", func(cv C) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				cv.So(r.Method, ShouldEqual, http.MethodPost)
				cv.So(r.Header.Get("Authorization"), ShouldEqual, "Bearer key-1")
				w.Write([]byte(`[{"title":"CTO","connection_count":1200,"follower_count":4000}]`))
			}))
			Reset(srv.Close)

			c := NewCoresignalClient("key-1", srv.URL)
			profile, err := c.Lookup(ctx, person(), "Acme")

			So(err, ShouldBeNil)
			So(*profile.JobTitle, ShouldEqual, "CTO")
			So(*profile.LinkedinConnections, ShouldEqual, 1200)
			So(*profile.LinkedinFollowers, ShouldEqual, 4000)
			So(profile.Provider, ShouldEqual, "coresignal")
		})

		Convey("When the search returns no members", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`[]`))
			}))
			Reset(srv.Close)

			_, err := NewCoresignalClient("key-1", srv.URL).Lookup(ctx, person(), "Acme")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When the API rate limits", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			Reset(srv.Close)

			_, err := NewCoresignalClient("key-1", srv.URL).Lookup(ctx, person(), "Acme")
			So(err, ShouldEqual, ErrRateLimited)
		})

		Convey("When no API key is configured", func() {
			_, err := NewCoresignalClient("", "http://unused").Lookup(ctx, person(), "Acme")
			So(err, ShouldEqual, ErrMissingAPIKey)
		})
	})
}

func TestLushaClient(t *testing.T) {
	Convey("Given a lusha-shaped API", t, func() {
		ctx := context.Background()

		Convey("When contact details exist", func(c C) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.So(r.Header.Get("api_key"), ShouldEqual, "key-2")
				c.So(r.URL.Query().Get("firstName"), ShouldEqual, "Ada")
				w.Write([]byte(`{"data":{"emailAddresses":[{"email":"ada@acme.com"}],"phoneNumbers":[{"internationalNumber":"+15550100"}]}}`))
			}))
			Reset(srv.Close)

			profile, err := NewLushaClient("key-2", srv.URL).Lookup(ctx, person(), "Acme")

			So(err, ShouldBeNil)
			So(*profile.Email, ShouldEqual, "ada@acme.com")
			So(*profile.Phone, ShouldEqual, "+15550100")
		})

		Convey("When the response is empty", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"data":{}}`))
			}))
			Reset(srv.Close)

			_, err := NewLushaClient("key-2", srv.URL).Lookup(ctx, person(), "Acme")
			So(err, ShouldEqual, ErrNotFound)
		})
	})
}

func TestProspeoClient(t *testing.T) {
	Convey("Given a prospeo-shaped API", t, func() {
		ctx := context.Background()

		Convey("When an email is found", func(c C) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.So(r.Header.Get("X-KEY"), ShouldEqual, "key-3")
				w.Write([]byte(`{"error":false,"response":{"email":{"email":"ada@acme.com"}}}`))
			}))
			Reset(srv.Close)

			profile, err := NewProspeoClient("key-3", srv.URL).Lookup(ctx, person(), "acme.com")

			So(err, ShouldBeNil)
			So(*profile.Email, ShouldEqual, "ada@acme.com")
		})

		Convey("When the finder reports an error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"error":true,"response":{}}`))
			}))
			Reset(srv.Close)

			_, err := NewProspeoClient("key-3", srv.URL).Lookup(ctx, person(), "acme.com")
			So(err, ShouldEqual, ErrNotFound)
		})
	})
}

type fakeProvider struct {
	name    string
	profile *Profile
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(_ context.Context, _ model.Person, _ string) (*Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func TestEnricher(t *testing.T) {
	Convey("Given an enricher over a provider chain", t, func() {
		ctx := context.Background()

		Convey("When providers return complementary data", func() {
			a := &fakeProvider{name: "a", profile: &Profile{Email: strptr("ada@acme.com"), Provider: "a"}}
			b := &fakeProvider{name: "b", profile: &Profile{LinkedinConnections: intptr(900), Provider: "b"}}

			e := NewEnricher([]Provider{a, b}, WithRequestDelay(0))
			merged, err := e.EnrichPerson(ctx, person(), "Acme")

			Convey("Then results are merged", func() {
				So(err, ShouldBeNil)
				So(*merged.Email, ShouldEqual, "ada@acme.com")
				So(*merged.LinkedinConnections, ShouldEqual, 900)
			})
		})

		Convey("When earlier providers already filled a field", func() {
			a := &fakeProvider{name: "a", profile: &Profile{Email: strptr("first@acme.com")}}
			b := &fakeProvider{name: "b", profile: &Profile{Email: strptr("second@acme.com")}}

			merged, err := NewEnricher([]Provider{a, b}, WithRequestDelay(0)).EnrichPerson(ctx, person(), "Acme")

			Convey("Then the first value wins", func() {
				So(err, ShouldBeNil)
				So(*merged.Email, ShouldEqual, "first@acme.com")
			})
		})

		Convey("When some providers miss or are unconfigured", func() {
			a := &fakeProvider{name: "a", err: ErrMissingAPIKey}
			b := &fakeProvider{name: "b", err: ErrNotFound}
			c := &fakeProvider{name: "c", profile: &Profile{Email: strptr("ada@acme.com")}}

			merged, err := NewEnricher([]Provider{a, b, c}, WithRequestDelay(0)).EnrichPerson(ctx, person(), "Acme")

			Convey("Then the chain continues to the next provider", func() {
				So(err, ShouldBeNil)
				So(*merged.Email, ShouldEqual, "ada@acme.com")
			})
		})

		Convey("When every provider misses", func() {
			a := &fakeProvider{name: "a", err: ErrNotFound}
			b := &fakeProvider{name: "b", err: ErrNotFound}

			_, err := NewEnricher([]Provider{a, b}, WithRequestDelay(0)).EnrichPerson(ctx, person(), "Acme")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When a delay is configured", func() {
			a := &fakeProvider{name: "a", profile: &Profile{Email: strptr("x@acme.com")}}
			b := &fakeProvider{name: "b", profile: &Profile{Phone: strptr("+1")}}

			start := time.Now()
			_, err := NewEnricher([]Provider{a, b}, WithRequestDelay(30*time.Millisecond)).EnrichPerson(ctx, person(), "Acme")

			So(err, ShouldBeNil)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 30*time.Millisecond)
		})
	})
}

func TestSiteProbe(t *testing.T) {
	Convey("Given a site probe", t, func() {
		ctx := context.Background()

		Convey("When the page declares a canonical URL", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html><head><link rel="canonical" href="https://www.acme.io/home"/></head></html>`))
			}))
			Reset(srv.Close)

			domain, err := NewSiteProbe().Probe(ctx, srv.URL)

			So(err, ShouldBeNil)
			So(domain, ShouldEqual, "acme.io")
		})

		Convey("When the page declares og:url only", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html><head><meta property="og:url" content="https://acme.dev/"/></head></html>`))
			}))
			Reset(srv.Close)

			domain, err := NewSiteProbe().Probe(ctx, srv.URL)

			So(err, ShouldBeNil)
			So(domain, ShouldEqual, "acme.dev")
		})

		Convey("When the page has no hints", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html><body>hello</body></html>`))
			}))
			Reset(srv.Close)

			domain, err := NewSiteProbe().Probe(ctx, srv.URL)

			Convey("Then the final request host is used", func() {
				So(err, ShouldBeNil)
				So(domain, ShouldNotBeEmpty)
			})
		})

		Convey("When the website is empty", func() {
			_, err := NewSiteProbe().Probe(ctx, " ")
			So(err, ShouldEqual, ErrNoWebsite)
		})
	})
}
