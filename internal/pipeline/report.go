package pipeline

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/adrata/crmops/internal/domain/domainmatch"
)

// WriteRescoreReport renders a rescore summary as aligned text.
func WriteRescoreReport(w io.Writer, r RescoreReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "processed\t%d\n", r.Processed)
	fmt.Fprintf(tw, "updated\t%d\n", r.Updated)
	fmt.Fprintf(tw, "duration\t%s\n", r.Duration.Round(roundTo(r.Duration)))

	roles := make([]string, 0, len(r.ByRole))
	for role := range r.ByRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Fprintf(tw, "role %s\t%d\n", role, r.ByRole[role])
	}
	return tw.Flush()
}

// WriteAuditReport renders an audit summary as aligned text.
func WriteAuditReport(w io.Writer, r AuditReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "checked\t%d\n", r.Checked)
	fmt.Fprintf(tw, "matched\t%d\n", r.Matched)
	fmt.Fprintf(tw, "findings\t%d\n", len(r.Findings))
	fmt.Fprintf(tw, "auto-fixed\t%d\n", r.AutoFixed)

	categories := make([]string, 0, len(r.ByCategory))
	for c := range r.ByCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(tw, "category %s\t%d\n", c, r.ByCategory[domainmatch.Category(c)])
	}

	for _, f := range r.Findings {
		line := fmt.Sprintf("  %s\t%s\t%s -> %s", f.PersonID, f.Category, f.EmailRoot, f.CompanyRoot)
		if f.ProbedDomain != "" {
			line += fmt.Sprintf("\t(site serves %s)", f.ProbedDomain)
		}
		if f.AutoFixed {
			line += "\t[fixed]"
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// WriteEnrichReport renders an enrichment summary as aligned text.
func WriteEnrichReport(w io.Writer, r EnrichReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "processed\t%d\n", r.Processed)
	fmt.Fprintf(tw, "enriched\t%d\n", r.Enriched)
	fmt.Fprintf(tw, "missed\t%d\n", r.Missed)
	fmt.Fprintf(tw, "duration\t%s\n", r.Duration.Round(roundTo(r.Duration)))
	return tw.Flush()
}

// roundTo keeps durations readable without losing short runs entirely.
func roundTo(d time.Duration) time.Duration {
	if d >= time.Second {
		return 10 * time.Millisecond
	}
	return time.Millisecond
}
