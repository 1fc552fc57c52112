// Package domainmatch decides whether a person's email domain plausibly
// belongs to their company, flagging stale or wrong company links.
//
// Normalization takes the last two dot-separated labels as the root
// domain. That is knowingly naive for multi-part TLDs (mail.example.co.uk
// normalizes to "co.uk"); existing audit data was produced with this rule,
// so it is preserved rather than fixed with a public suffix list.
package domainmatch

import "strings"

// Category labels a mismatch between email and company domains.
type Category string

// Mismatch categories, from most to least actionable.
const (
	// CategorySameNameDifferentTLD covers e.g. acme.com vs acme.cz: the
	// company is almost certainly the same, only the TLD drifted.
	CategorySameNameDifferentTLD Category = "SAME_NAME_DIFFERENT_TLD"
	// CategoryDifferentDomains covers entirely unrelated domains.
	CategoryDifferentDomains Category = "DIFFERENT_DOMAINS"
	// CategorySubdomainVariation covers everything else.
	CategorySubdomainVariation Category = "SUBDOMAIN_VARIATION"
	// CategoryNoData is reported when either side is missing.
	CategoryNoData Category = "NO_DATA"
)

// Severity grades how urgently a mismatch needs attention.
type Severity string

// Mismatch severities.
const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
	SeverityNone   Severity = ""
)

// Result is the outcome of validating one person/company pair.
type Result struct {
	Match       bool
	Category    Category // empty when Match
	Severity    Severity
	AutoFixable bool
	EmailRoot   string
	CompanyRoot string
}

// Validate compares an email address against a company website or domain.
// Nil inputs behave as empty strings and yield a NO_DATA non-match.
func Validate(email, companyDomain *string) Result {
	return ValidateStrings(strOrEmpty(email), strOrEmpty(companyDomain))
}

// ValidateStrings is the non-pointer variant of Validate.
func ValidateStrings(email, companyDomain string) Result {
	emailRoot := RootDomain(emailDomain(email))
	companyRoot := RootDomain(companyDomain)

	if emailRoot == "" || companyRoot == "" {
		return Result{
			Category:    CategoryNoData,
			Severity:    SeverityNone,
			EmailRoot:   emailRoot,
			CompanyRoot: companyRoot,
		}
	}

	if emailRoot == companyRoot {
		return Result{Match: true, EmailRoot: emailRoot, CompanyRoot: companyRoot}
	}

	res := Result{EmailRoot: emailRoot, CompanyRoot: companyRoot}
	el, cl := firstLabel(emailRoot), firstLabel(companyRoot)
	switch {
	case el == cl:
		res.Category = CategorySameNameDifferentTLD
		res.Severity = SeverityHigh
		res.AutoFixable = true
	case !strings.Contains(el, cl) && !strings.Contains(cl, el):
		res.Category = CategoryDifferentDomains
		res.Severity = SeverityMedium
	default:
		// one name embeds the other, e.g. acme.com vs acmecorp.com; likely
		// a subdomain or branding variation rather than a wrong company
		res.Category = CategorySubdomainVariation
		res.Severity = SeverityLow
	}
	return res
}

// Normalize lowercases a domain or URL and strips scheme and leading www.
func Normalize(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	// drop any path or query that came along with a pasted URL
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}

// RootDomain normalizes and reduces a domain to its last two labels.
func RootDomain(domain string) string {
	d := Normalize(domain)
	if d == "" {
		return ""
	}
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return d
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// emailDomain extracts the part after the last @, or "" when absent.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

func firstLabel(root string) string {
	if i := strings.Index(root, "."); i >= 0 {
		return root[:i]
	}
	return root
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
