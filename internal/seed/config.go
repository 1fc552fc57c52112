// Package seed generates synthetic CRM data, loads it through the HTTP
// API, and verifies the resulting buyer-group queue ordering.
package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumCompanies int           // Number of companies to generate
	NumPeople    int           // Number of people to generate
	TopN         int           // Number of queue entries to fetch
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	Wait         time.Duration // Settle time between submit and verify
	OutputFile   string        // Output file for generated records
	Verbose      bool          // Enable verbose logging
}

// CompanyRecord is the payload for POST /companies.
type CompanyRecord struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Website  *string `json:"website"`
	Industry *string `json:"industry"`
	Size     *string `json:"size"`
}

// PersonRecord is the payload for POST /people.
type PersonRecord struct {
	ID                  string   `json:"id"`
	WorkspaceID         string   `json:"workspace_id"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	JobTitle            *string  `json:"job_title"`
	Email               *string  `json:"email"`
	CompanyID           *string  `json:"company_id"`
	InBuyerGroup        bool     `json:"in_buyer_group"`
	InfluenceScore      *float64 `json:"influence_score"`
	EngagementScore     *float64 `json:"engagement_score"`
	DataQualityScore    *float64 `json:"data_quality_score"`
	LinkedinConnections *int     `json:"linkedin_connections"`
	LinkedinFollowers   *int     `json:"linkedin_followers"`
}

// RescoreRequest is the payload for POST /rescore.
type RescoreRequest struct {
	RequestID string `json:"request_id"`
	PersonID  string `json:"person_id"`
	TS        string `json:"ts"`
}

// AckResponse is the response from record and rescore submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// RankEntry is a single person's position in the buyer-group queue.
type RankEntry struct {
	Position   int     `json:"position"`
	PersonID   string  `json:"person_id"`
	Name       string  `json:"name"`
	Role       string  `json:"buyer_group_role"`
	GlobalRank int     `json:"global_rank"`
	Influence  float64 `json:"influence_score"`
}

// Stats holds seed run statistics.
type Stats struct {
	CompaniesGenerated int
	PeopleGenerated    int
	RecordsSubmitted   int
	RescoresSubmitted  int
	RescoresSuccessful int
	RescoresDuplicate  int
	RescoresFailed     int
	RanksRetrieved     int
	QueueEntries       int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
