package domainmatch_test

import (
	"testing"

	"github.com/adrata/crmops/internal/domain/domainmatch"
	. "github.com/smartystreets/goconvey/convey"
)

func sp(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	Convey("Given raw website values", t, func() {
		So(domainmatch.Normalize("https://www.Acme.com"), ShouldEqual, "acme.com")
		So(domainmatch.Normalize("http://acme.com/about?x=1"), ShouldEqual, "acme.com")
		So(domainmatch.Normalize("  WWW.ACME.COM  "), ShouldEqual, "acme.com")
		So(domainmatch.Normalize("acme.com."), ShouldEqual, "acme.com")
		So(domainmatch.Normalize(""), ShouldEqual, "")
	})
}

func TestRootDomain(t *testing.T) {
	Convey("Given domains of varying depth", t, func() {
		So(domainmatch.RootDomain("acme.com"), ShouldEqual, "acme.com")
		So(domainmatch.RootDomain("mail.acme.com"), ShouldEqual, "acme.com")
		So(domainmatch.RootDomain("https://portal.eu.acme.com"), ShouldEqual, "acme.com")
		So(domainmatch.RootDomain("localhost"), ShouldEqual, "localhost")

		Convey("Multi-part TLDs keep the documented naive behavior", func() {
			// last-two-labels on purpose; co.uk is NOT special-cased
			So(domainmatch.RootDomain("mail.example.co.uk"), ShouldEqual, "co.uk")
		})
	})
}

func TestValidateStrings(t *testing.T) {
	Convey("Given email/company domain pairs", t, func() {
		Convey("When the roots match", func() {
			res := domainmatch.ValidateStrings("jane@acme.com", "https://www.acme.com")

			So(res.Match, ShouldBeTrue)
			So(res.Category, ShouldBeEmpty)
			So(res.EmailRoot, ShouldEqual, "acme.com")
			So(res.CompanyRoot, ShouldEqual, "acme.com")
		})

		Convey("When matching is reflexive over normalized domains", func() {
			for _, d := range []string{"acme.com", "sub.acme.io", "x.co"} {
				res := domainmatch.ValidateStrings("u@"+d, d)
				So(res.Match, ShouldBeTrue)
			}
		})

		Convey("When only the TLD differs", func() {
			res := domainmatch.ValidateStrings("jane@acme.com", "acme.cz")

			So(res.Match, ShouldBeFalse)
			So(res.Category, ShouldEqual, domainmatch.CategorySameNameDifferentTLD)
			So(res.Severity, ShouldEqual, domainmatch.SeverityHigh)
			So(res.AutoFixable, ShouldBeTrue)
		})

		Convey("When the domains are unrelated", func() {
			res := domainmatch.ValidateStrings("jane@acme.com", "other.com")

			So(res.Match, ShouldBeFalse)
			So(res.Category, ShouldEqual, domainmatch.CategoryDifferentDomains)
			So(res.Severity, ShouldEqual, domainmatch.SeverityMedium)
			So(res.AutoFixable, ShouldBeFalse)
		})

		Convey("When one name embeds the other", func() {
			res := domainmatch.ValidateStrings("jane@acme.com", "acmecorp.com")

			So(res.Match, ShouldBeFalse)
			So(res.Category, ShouldEqual, domainmatch.CategorySubdomainVariation)
			So(res.Severity, ShouldEqual, domainmatch.SeverityLow)
			So(res.AutoFixable, ShouldBeFalse)
		})

		Convey("When either side has no data", func() {
			cases := [][2]string{
				{"", "acme.com"},
				{"jane@acme.com", ""},
				{"not-an-email", "acme.com"},
				{"jane@", "acme.com"},
			}
			for _, c := range cases {
				res := domainmatch.ValidateStrings(c[0], c[1])
				So(res.Match, ShouldBeFalse)
				So(res.Category, ShouldEqual, domainmatch.CategoryNoData)
				So(res.Severity, ShouldEqual, domainmatch.SeverityNone)
			}
		})
	})
}

func TestValidatePointers(t *testing.T) {
	Convey("Given nullable inputs", t, func() {
		Convey("Nil behaves as missing data", func() {
			res := domainmatch.Validate(nil, sp("acme.com"))
			So(res.Category, ShouldEqual, domainmatch.CategoryNoData)

			res = domainmatch.Validate(sp("jane@acme.com"), nil)
			So(res.Category, ShouldEqual, domainmatch.CategoryNoData)
		})

		Convey("Set pointers validate normally", func() {
			res := domainmatch.Validate(sp("jane@acme.com"), sp("acme.com"))
			So(res.Match, ShouldBeTrue)
		})
	})
}
