// Package role maps free-text job titles to buyer-group roles.
//
// Classification is an ordered keyword scan: the first rule whose keyword
// appears in the title wins. The rule order is part of the contract,
// since previously classified records depend on it, so rules must never be
// reordered even where a later rule would be a tighter fit ("VP of
// Engineering" is a decision maker, not a champion).
package role

import "strings"

// Role is one of the five fixed buyer-group labels.
type Role string

// The fixed set of buyer-group roles.
const (
	Decision    Role = "decision"
	Champion    Role = "champion"
	Stakeholder Role = "stakeholder"
	Blocker     Role = "blocker"
	Introducer  Role = "introducer"
)

// DefaultRole is assigned when no rule matches or the title is empty.
const DefaultRole = Stakeholder

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case Decision, Champion, Stakeholder, Blocker, Introducer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// rule pairs a target role with the title keywords that select it.
type rule struct {
	role     Role
	keywords []string
}

// rules is evaluated top to bottom, first match wins.
var rules = []rule{
	{Decision, []string{
		"ceo", "president", "founder", "owner", "vp", "vice president",
		"director", "head of", "cfo", "cto", "cmo", "coo",
	}},
	{Champion, []string{
		"engineer", "developer", "architect", "consultant", "advisor", "expert",
	}},
	{Blocker, []string{
		"legal", "compliance", "security", "procurement", "purchasing",
	}},
	{Introducer, []string{
		"sales", "marketing", "business development",
	}},
}

// Classify maps a job title to a buyer-group role. A nil title behaves the
// same as an empty one.
func Classify(jobTitle *string) Role {
	if jobTitle == nil {
		return DefaultRole
	}
	return ClassifyTitle(*jobTitle)
}

// ClassifyTitle is the non-pointer variant of Classify.
func ClassifyTitle(jobTitle string) Role {
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	if title == "" {
		return DefaultRole
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(title, kw) {
				return r.role
			}
		}
	}
	return DefaultRole
}

// Parse converts a stored role string to a Role, falling back to the
// default for unknown or empty values.
func Parse(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return DefaultRole
	}
	return r
}
