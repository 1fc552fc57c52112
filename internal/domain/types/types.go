// Package types contains common types used across the application
package types

// QueueEntry represents one row of the outreach queue as returned by the
// API. Lower GlobalRank means the person should be engaged first.
type QueueEntry struct {
	Position   int     `json:"position"`
	PersonID   string  `json:"person_id"`
	Name       string  `json:"name,omitempty"`
	Role       string  `json:"buyer_group_role,omitempty"`
	GlobalRank int     `json:"global_rank"`
	Influence  float64 `json:"influence_score"`
}
