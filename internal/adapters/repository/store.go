// Package repository defines the people store interface and errors.
package repository

import (
	"context"

	"github.com/adrata/crmops/internal/domain/model"
)

// Entry represents one outreach-queue row.
type Entry struct {
	Position   int
	PersonID   string
	Name       string
	Role       string
	GlobalRank int
	Influence  float64
}

// ScoreUpdate carries the recomputed classification for one person.
type ScoreUpdate struct {
	PersonID   string
	Role       string
	GlobalRank int
}

// PersonFilter narrows ListPeople. Zero values mean "no constraint".
type PersonFilter struct {
	WorkspaceID  string
	CompanyID    string
	MissingTitle bool // only people without a job title
	InBuyerGroup bool // only current buyer-group members
	Limit        int
	Offset       int
}

// Store provides read/write access to people and the derived queue state.
type Store interface {
	// ListPeople returns people matching the filter.
	ListPeople(ctx context.Context, f PersonFilter) ([]model.Person, error)

	// ListDomainPairs returns each matching person's email alongside the
	// associated company's website, for domain-match auditing.
	ListDomainPairs(ctx context.Context, f PersonFilter) ([]CompanyDomain, error)

	// GetPerson returns one person. Returns ErrNotFound if unknown.
	GetPerson(ctx context.Context, personID string) (model.Person, error)

	// UpsertPerson creates or replaces a person record.
	UpsertPerson(ctx context.Context, p model.Person) error

	// UpsertCompany creates or replaces a company record.
	UpsertCompany(ctx context.Context, c model.Company) error

	// GetCompany returns one company. Returns ErrNotFound if unknown.
	GetCompany(ctx context.Context, companyID string) (model.Company, error)

	// UpdateScore persists a recomputed role and global rank. Returns true
	// when the stored values changed.
	UpdateScore(ctx context.Context, u ScoreUpdate) (bool, error)

	// BulkUpdateScores persists a batch of recomputed scores and returns
	// how many rows changed.
	BulkUpdateScores(ctx context.Context, updates []ScoreUpdate) (int, error)

	// ClearBuyerGroup removes a person's buyer-group membership and role
	// and appends a timestamped audit note. The person row itself is
	// never deleted.
	ClearBuyerGroup(ctx context.Context, personID, reason string) error

	// Queue returns the top-N people ordered by global rank ascending.
	// Unranked people sort last.
	Queue(ctx context.Context, n int) ([]Entry, error)

	// Rank returns the queue entry for one person.
	// Returns ErrNotFound if the person is unknown or unranked.
	Rank(ctx context.Context, personID string) (Entry, error)

	// Count returns the number of people tracked.
	Count(ctx context.Context) int
}

// CompanyDomain is returned by audit loaders: a person id paired with the
// email and company website needed for domain validation.
type CompanyDomain struct {
	PersonID      string
	Email         *string
	CompanyID     *string
	CompanyName   string
	CompanyDomain *string
}
