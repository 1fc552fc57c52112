package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/domainmatch"
	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/internal/enrich"
	"github.com/adrata/crmops/internal/events"
)

func strptr(s string) *string   { return &s }
func intptr(n int) *int         { return &n }
func f64ptr(f float64) *float64 { return &f }

func seedStore(ctx context.Context, t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore(ctx)

	companies := []model.Company{
		{ID: "c1", Name: "Acme", Website: strptr("https://www.acme.com")},
		{ID: "c2", Name: "Globex", Website: strptr("globex.io")},
	}
	for _, c := range companies {
		if err := store.UpsertCompany(ctx, c); err != nil {
			t.Fatalf("seed company: %v", err)
		}
	}

	people := []model.Person{
		{
			ID: "p1", FirstName: "Ada", LastName: "Lovelace",
			JobTitle: strptr("CEO"),
			Email:    strptr("ada@acme.com"), CompanyID: strptr("c1"),
			InBuyerGroup: true,
		},
		{
			ID: "p2", FirstName: "Grace", LastName: "Hopper",
			JobTitle:       strptr("Staff Software Engineer"),
			Email:          strptr("grace@acme.cz"), CompanyID: strptr("c1"),
			InfluenceScore: f64ptr(80), EngagementScore: f64ptr(50),
			InBuyerGroup:   true,
		},
		{
			ID: "p3", FirstName: "Alan", LastName: "Turing",
			JobTitle: strptr("Legal Counsel"),
			Email:    strptr("alan@other.com"), CompanyID: strptr("c2"),
		},
		{
			ID: "p4", FirstName: "Edsger", LastName: "Dijkstra",
			CompanyID: strptr("c2"),
		},
	}
	for _, p := range people {
		if err := store.UpsertPerson(ctx, p); err != nil {
			t.Fatalf("seed person: %v", err)
		}
	}
	return store
}

type capturingRankPublisher struct {
	events []string
}

func (c *capturingRankPublisher) PublishRankUpdate(_ context.Context, personID, _ string, _ int) error {
	c.events = append(c.events, personID)
	return nil
}

func TestRescorer(t *testing.T) {
	Convey("Given a store with unscored people", t, func() {
		ctx := context.Background()
		store := seedStore(ctx, t)

		Convey("When a full rescore runs", func() {
			r := NewRescorer(store, NewScorer(nil))
			report, err := r.Run(ctx, repository.PersonFilter{})

			So(err, ShouldBeNil)

			Convey("Then every person gets a role and a rank", func() {
				So(report.Processed, ShouldEqual, 4)
				So(report.Updated, ShouldEqual, 4)
				So(report.ByRole["decision"], ShouldEqual, 1)
				So(report.ByRole["champion"], ShouldEqual, 1)
				So(report.ByRole["blocker"], ShouldEqual, 1)
				So(report.ByRole["stakeholder"], ShouldEqual, 1)
			})

			Convey("Then the queue orders by rank ascending", func() {
				entries, err := store.Queue(ctx, 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 4)
				for i := 1; i < len(entries); i++ {
					So(entries[i].GlobalRank, ShouldBeGreaterThanOrEqualTo, entries[i-1].GlobalRank)
				}
				// p2: champion with strong influence and engagement
				So(entries[0].PersonID, ShouldEqual, "p2")
			})
		})

		Convey("When a rescore runs twice", func() {
			r := NewRescorer(store, NewScorer(nil))
			_, err := r.Run(ctx, repository.PersonFilter{})
			So(err, ShouldBeNil)

			report, err := r.Run(ctx, repository.PersonFilter{})

			Convey("Then the second run changes nothing", func() {
				So(err, ShouldBeNil)
				So(report.Processed, ShouldEqual, 4)
				So(report.Updated, ShouldEqual, 0)
			})
		})

		Convey("When a publisher is attached", func() {
			pub := &capturingRankPublisher{}
			r := NewRescorer(store, NewScorer(nil), WithRescorePublisher(pub))
			_, err := r.Run(ctx, repository.PersonFilter{})

			Convey("Then one event per person is emitted", func() {
				So(err, ShouldBeNil)
				So(len(pub.events), ShouldEqual, 4)
			})
		})

		Convey("When the filter narrows to one company", func() {
			r := NewRescorer(store, NewScorer(nil))
			report, err := r.Run(ctx, repository.PersonFilter{CompanyID: "c1"})

			So(err, ShouldBeNil)
			So(report.Processed, ShouldEqual, 2)
		})
	})
}

type capturingAuditPublisher struct {
	events []events.AuditFindingEvent
}

func (c *capturingAuditPublisher) PublishAuditFinding(_ context.Context, e events.AuditFindingEvent) error {
	c.events = append(c.events, e)
	return nil
}

func TestAuditor(t *testing.T) {
	Convey("Given people with mismatched email domains", t, func() {
		ctx := context.Background()
		store := seedStore(ctx, t)

		Convey("When an audit runs without fixing", func() {
			a := NewAuditor(store)
			report, err := a.Run(ctx, repository.PersonFilter{})

			So(err, ShouldBeNil)

			Convey("Then categories are tallied", func() {
				So(report.Checked, ShouldEqual, 4)
				So(report.Matched, ShouldEqual, 1) // p1: acme.com vs acme.com
				So(report.ByCategory[domainmatch.CategorySameNameDifferentTLD], ShouldEqual, 1)
				So(report.ByCategory[domainmatch.CategoryDifferentDomains], ShouldEqual, 1)
				So(report.ByCategory[domainmatch.CategoryNoData], ShouldEqual, 1)
				So(report.AutoFixed, ShouldEqual, 0)
			})

			Convey("Then buyer-group membership is untouched", func() {
				p, err := store.GetPerson(ctx, "p2")
				So(err, ShouldBeNil)
				So(p.InBuyerGroup, ShouldBeTrue)
			})
		})

		Convey("When auto-fix is requested", func() {
			a := NewAuditor(store, WithAutoFix(true))
			report, err := a.Run(ctx, repository.PersonFilter{})

			So(err, ShouldBeNil)

			Convey("Then only the high-severity finding is fixed", func() {
				So(report.AutoFixed, ShouldEqual, 1)

				p2, err := store.GetPerson(ctx, "p2")
				So(err, ShouldBeNil)
				So(p2.InBuyerGroup, ShouldBeFalse)
				So(p2.BuyerGroupRole, ShouldBeNil)

				notes := store.AuditNotes("p2")
				So(len(notes), ShouldEqual, 1)
				So(notes[0].Reason, ShouldContainSubstring, "acme.cz")
			})

			Convey("Then medium and low findings are left alone", func() {
				p3, err := store.GetPerson(ctx, "p3")
				So(err, ShouldBeNil)
				So(store.AuditNotes("p3"), ShouldBeEmpty)
				_ = p3
			})
		})

		Convey("When a publisher is attached", func() {
			pub := &capturingAuditPublisher{}
			a := NewAuditor(store, WithAuditPublisher(pub))
			_, err := a.Run(ctx, repository.PersonFilter{})

			Convey("Then one event per finding is emitted", func() {
				So(err, ShouldBeNil)
				So(len(pub.events), ShouldEqual, 3)
			})
		})
	})
}

type fixedEnricher struct {
	profiles map[string]*enrich.Profile
	names    []string
}

func (f *fixedEnricher) EnrichPerson(_ context.Context, p model.Person, companyName string) (*enrich.Profile, error) {
	f.names = append(f.names, companyName)
	profile, ok := f.profiles[p.ID]
	if !ok {
		return nil, enrich.ErrNotFound
	}
	return profile, nil
}

func TestEnrichRunner(t *testing.T) {
	Convey("Given people with missing fields", t, func() {
		ctx := context.Background()
		store := seedStore(ctx, t)

		enricher := &fixedEnricher{profiles: map[string]*enrich.Profile{
			"p4": {JobTitle: strptr("VP of Engineering"), LinkedinConnections: intptr(1500)},
		}}

		Convey("When an enrichment run targets people without titles", func() {
			r := NewEnrichRunner(store, enricher)
			report, err := r.Run(ctx, repository.PersonFilter{MissingTitle: true})

			So(err, ShouldBeNil)

			Convey("Then only found people are updated", func() {
				So(report.Processed, ShouldEqual, 1)
				So(report.Enriched, ShouldEqual, 1)
				So(report.Missed, ShouldEqual, 0)

				p4, err := store.GetPerson(ctx, "p4")
				So(err, ShouldBeNil)
				So(*p4.JobTitle, ShouldEqual, "VP of Engineering")
				So(*p4.LinkedinConnections, ShouldEqual, 1500)
			})

			Convey("Then the company name was passed for context", func() {
				So(enricher.names, ShouldResemble, []string{"Globex"})
			})
		})

		Convey("When providers know nobody", func() {
			r := NewEnrichRunner(store, &fixedEnricher{})
			report, err := r.Run(ctx, repository.PersonFilter{MissingTitle: true})

			So(err, ShouldBeNil)
			So(report.Missed, ShouldEqual, 1)
			So(report.Enriched, ShouldEqual, 0)
		})

		Convey("When a profile adds nothing new", func() {
			full := &fixedEnricher{profiles: map[string]*enrich.Profile{
				"p1": {Email: strptr("other@acme.com")},
			}}
			r := NewEnrichRunner(store, full)
			report, err := r.Run(ctx, repository.PersonFilter{CompanyID: "c1", InBuyerGroup: true})

			Convey("Then existing fields are not overwritten", func() {
				So(err, ShouldBeNil)
				p1, err := store.GetPerson(ctx, "p1")
				So(err, ShouldBeNil)
				So(*p1.Email, ShouldEqual, "ada@acme.com")
				So(report.Enriched, ShouldEqual, 0)
			})
		})
	})
}

func TestReports(t *testing.T) {
	Convey("Given run reports", t, func() {
		Convey("When a rescore report is written", func() {
			var buf bytes.Buffer
			err := WriteRescoreReport(&buf, RescoreReport{
				Processed: 4, Updated: 3,
				ByRole: map[string]int{"decision": 2, "champion": 1},
			})

			So(err, ShouldBeNil)
			out := buf.String()
			So(out, ShouldContainSubstring, "processed")
			So(out, ShouldContainSubstring, "role champion")
			So(strings.Count(out, "\n"), ShouldBeGreaterThanOrEqualTo, 5)
		})

		Convey("When an audit report is written", func() {
			var buf bytes.Buffer
			err := WriteAuditReport(&buf, AuditReport{
				Checked: 2, Matched: 1,
				Findings: []Finding{{
					PersonID: "p2", Category: domainmatch.CategorySameNameDifferentTLD,
					EmailRoot: "acme.cz", CompanyRoot: "acme.com", AutoFixed: true,
				}},
				ByCategory: map[domainmatch.Category]int{domainmatch.CategorySameNameDifferentTLD: 1},
				AutoFixed:  1,
			})

			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "SAME_NAME_DIFFERENT_TLD")
			So(buf.String(), ShouldContainSubstring, "[fixed]")
		})
	})
}
