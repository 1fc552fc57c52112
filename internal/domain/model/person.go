// Package model contains domain models passed between layers.
package model

import "time"

// Person is a CRM contact as loaded from the people table. Nullable columns
// map to pointers so that missing enrichment data survives a round trip.
type Person struct {
	ID          string
	WorkspaceID string
	FirstName   string
	LastName    string
	JobTitle    *string
	Email       *string
	Phone       *string
	CompanyID   *string

	// Buyer-group classification state.
	BuyerGroupRole   *string
	InBuyerGroup     bool
	GlobalRank       *int
	InfluenceScore   *float64
	EngagementScore  *float64
	DataQualityScore *float64

	// Externally supplied social signals.
	LinkedinConnections *int
	LinkedinFollowers   *int

	UpdatedAt time.Time
}

// FullName joins the name parts, tolerating either being empty.
func (p Person) FullName() string {
	switch {
	case p.FirstName == "" && p.LastName == "":
		return ""
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Company is the account a person belongs to.
type Company struct {
	ID       string
	Name     string
	Website  *string
	Industry *string
	Size     *string
}

// AuditNote records a data-quality action taken against a person. Notes are
// append-only; fixes never delete the underlying record.
type AuditNote struct {
	ID        string
	PersonID  string
	Reason    string
	CreatedAt time.Time
}

// RescoreJob is the payload flowing through the rescore queue. It carries a
// snapshot of the scoring inputs so workers never read back from storage.
type RescoreJob struct {
	RequestID string // unique id for idempotency
	Person    Person
	TS        time.Time
}
