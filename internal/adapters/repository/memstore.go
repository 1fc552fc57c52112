package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/pkg/metrics"
)

// unranked sorts people without a global rank to the back of the queue,
// matching the ORDER BY ... NULLS LAST the SQL store uses.
const unranked = 999999

// MemoryStore implements Store in process memory. It backs tests and
// serve-mode runs without a configured database. Queue reads are served
// from a sorted snapshot that is rebuilt lazily after writes.
type MemoryStore struct {
	mu        sync.RWMutex
	people    map[string]model.Person
	companies map[string]model.Company
	notes     []model.AuditNote

	// snapshot of queue entries ordered by rank asc; nil means stale
	snapshot []Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(_ context.Context) *MemoryStore {
	return &MemoryStore{
		people:    make(map[string]model.Person),
		companies: make(map[string]model.Company),
	}
}

// ListPeople returns people matching the filter in stable id order.
func (s *MemoryStore) ListPeople(_ context.Context, f PersonFilter) ([]model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.people))
	for id := range s.people {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []model.Person
	skipped := 0
	for _, id := range ids {
		p := s.people[id]
		if !matchesFilter(p, f) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// ListDomainPairs joins people to their companies for domain auditing.
func (s *MemoryStore) ListDomainPairs(ctx context.Context, f PersonFilter) ([]CompanyDomain, error) {
	people, err := s.ListPeople(ctx, f)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]CompanyDomain, 0, len(people))
	for _, p := range people {
		pair := CompanyDomain{PersonID: p.ID, Email: p.Email, CompanyID: p.CompanyID}
		if p.CompanyID != nil {
			if c, ok := s.companies[*p.CompanyID]; ok {
				pair.CompanyName = c.Name
				pair.CompanyDomain = c.Website
			}
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// GetPerson returns one person or ErrNotFound.
func (s *MemoryStore) GetPerson(_ context.Context, personID string) (model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[personID]
	if !ok {
		return model.Person{}, ErrNotFound
	}
	return p, nil
}

// UpsertPerson creates or replaces a person record.
func (s *MemoryStore) UpsertPerson(_ context.Context, p model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.UpdatedAt = time.Now()
	s.people[p.ID] = p
	s.snapshot = nil
	return nil
}

// UpsertCompany creates or replaces a company record.
func (s *MemoryStore) UpsertCompany(_ context.Context, c model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.companies[c.ID] = c
	return nil
}

// GetCompany returns one company or ErrNotFound.
func (s *MemoryStore) GetCompany(_ context.Context, companyID string) (model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[companyID]
	if !ok {
		return model.Company{}, ErrNotFound
	}
	return c, nil
}

// UpdateScore persists a recomputed role and rank for one person.
func (s *MemoryStore) UpdateScore(_ context.Context, u ScoreUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyScore(u)
}

// BulkUpdateScores applies a batch of score updates.
func (s *MemoryStore) BulkUpdateScores(_ context.Context, updates []ScoreUpdate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, u := range updates {
		ok, err := s.applyScore(u)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// applyScore writes one update. Caller holds mu.
func (s *MemoryStore) applyScore(u ScoreUpdate) (bool, error) {
	p, ok := s.people[u.PersonID]
	if !ok {
		return false, ErrNotFound
	}

	same := p.BuyerGroupRole != nil && *p.BuyerGroupRole == u.Role &&
		p.GlobalRank != nil && *p.GlobalRank == u.GlobalRank
	if same {
		return false, nil
	}

	roleCopy := u.Role
	rankCopy := u.GlobalRank
	p.BuyerGroupRole = &roleCopy
	p.GlobalRank = &rankCopy
	p.UpdatedAt = time.Now()
	s.people[u.PersonID] = p
	s.snapshot = nil
	return true, nil
}

// ClearBuyerGroup drops membership and role, appending an audit note.
func (s *MemoryStore) ClearBuyerGroup(_ context.Context, personID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[personID]
	if !ok {
		return ErrNotFound
	}

	p.BuyerGroupRole = nil
	p.InBuyerGroup = false
	p.UpdatedAt = time.Now()
	s.people[personID] = p
	s.notes = append(s.notes, model.AuditNote{
		ID:        uuid.New().String(),
		PersonID:  personID,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	s.snapshot = nil
	return nil
}

// AuditNotes returns the notes recorded for a person, oldest first.
func (s *MemoryStore) AuditNotes(personID string) []model.AuditNote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AuditNote
	for _, n := range s.notes {
		if n.PersonID == personID {
			out = append(out, n)
		}
	}
	return out
}

// Queue returns the top-N entries ordered by global rank ascending.
func (s *MemoryStore) Queue(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	snap := s.currentSnapshot()
	if n > len(snap) {
		n = len(snap)
	}
	out := make([]Entry, n)
	copy(out, snap[:n])
	return out, nil
}

// Rank returns the queue entry for one person.
func (s *MemoryStore) Rank(_ context.Context, personID string) (Entry, error) {
	for _, e := range s.currentSnapshot() {
		if e.PersonID == personID {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Count returns the number of people tracked.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people)
}

// currentSnapshot returns the sorted queue, rebuilding it if stale.
func (s *MemoryStore) currentSnapshot() []Entry {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return s.snapshot
	}

	start := time.Now()
	entries := make([]Entry, 0, len(s.people))
	for _, p := range s.people {
		e := Entry{PersonID: p.ID, Name: p.FullName(), GlobalRank: unranked}
		if p.BuyerGroupRole != nil {
			e.Role = *p.BuyerGroupRole
		}
		if p.GlobalRank != nil {
			e.GlobalRank = *p.GlobalRank
		}
		if p.InfluenceScore != nil {
			e.Influence = *p.InfluenceScore
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].GlobalRank != entries[j].GlobalRank {
			return entries[i].GlobalRank < entries[j].GlobalRank
		}
		return entries[i].PersonID < entries[j].PersonID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	s.snapshot = entries

	metrics.RecordSnapshotRebuild(float64(time.Since(start).Milliseconds()))
	return entries
}

func matchesFilter(p model.Person, f PersonFilter) bool {
	if f.WorkspaceID != "" && p.WorkspaceID != f.WorkspaceID {
		return false
	}
	if f.CompanyID != "" && (p.CompanyID == nil || *p.CompanyID != f.CompanyID) {
		return false
	}
	if f.MissingTitle && p.JobTitle != nil && strings.TrimSpace(*p.JobTitle) != "" {
		return false
	}
	if f.InBuyerGroup && !p.InBuyerGroup {
		return false
	}
	return true
}
