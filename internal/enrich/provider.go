// Package enrich pulls contact and professional-network data for people
// from external data providers, with an optional cache in front.
package enrich

import (
	"context"
	"encoding/json"

	"github.com/adrata/crmops/internal/domain/model"
)

// Profile is the normalized result of a provider lookup. Nil fields
// were not returned by the provider.
type Profile struct {
	Email               *string         `json:"email,omitempty"`
	Phone               *string         `json:"phone,omitempty"`
	JobTitle            *string         `json:"job_title,omitempty"`
	LinkedinConnections *int            `json:"linkedin_connections,omitempty"`
	LinkedinFollowers   *int            `json:"linkedin_followers,omitempty"`
	Provider            string          `json:"provider"`
	Raw                 json.RawMessage `json:"raw,omitempty"`
}

// Merge copies fields from other into p where p has none.
func (p *Profile) Merge(other *Profile) {
	if other == nil {
		return
	}
	if p.Email == nil {
		p.Email = other.Email
	}
	if p.Phone == nil {
		p.Phone = other.Phone
	}
	if p.JobTitle == nil {
		p.JobTitle = other.JobTitle
	}
	if p.LinkedinConnections == nil {
		p.LinkedinConnections = other.LinkedinConnections
	}
	if p.LinkedinFollowers == nil {
		p.LinkedinFollowers = other.LinkedinFollowers
	}
}

// Empty reports whether the profile carries no usable data.
func (p *Profile) Empty() bool {
	return p.Email == nil && p.Phone == nil && p.JobTitle == nil &&
		p.LinkedinConnections == nil && p.LinkedinFollowers == nil
}

// Provider looks up one person against an external data source.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, p model.Person, companyName string) (*Profile, error)
}
