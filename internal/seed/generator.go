package seed

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adrata/crmops/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	archetypeDivisor   = 10
	mismatchDivisor    = 10
)

// Constants for score generation ranges.
const (
	influenceMin     = 5.0
	influenceRange   = 90.0
	engagementMin    = 0.0
	engagementRange  = 100.0
	dataQualityMin   = 20.0
	dataQualityRange = 80.0
	connectionsMax   = 3000
	followersMax     = 20000
)

// Archetype weights out of archetypeDivisor. Stakeholders dominate,
// untitled and mismatched records are sprinkled in to exercise the
// classification fallback and the domain audit.
const (
	caseDecisionMaker = 0
	caseChampion      = 1
	caseChampionAlt   = 2
	caseBlocker       = 3
	caseIntroducer    = 4
	caseUntitled      = 5
)

var (
	decisionTitles = []string{
		"CEO", "VP of Engineering", "Director of Operations",
		"CFO", "Head of Product", "Founder",
	}
	championTitles = []string{
		"Staff Software Engineer", "Principal Architect",
		"Senior Developer", "Technical Consultant", "Solutions Expert",
	}
	blockerTitles = []string{
		"Legal Counsel", "Compliance Officer",
		"Security Analyst", "Procurement Manager",
	}
	introducerTitles = []string{
		"Sales Manager", "Marketing Coordinator",
		"Business Development Representative",
	}
	stakeholderTitles = []string{
		"Product Manager", "Operations Analyst",
		"Finance Associate", "Customer Success Manager",
	}

	firstNames = []string{
		"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald",
		"Margaret", "Dennis", "Ken", "Radia", "Frances", "Tony",
	}
	lastNames = []string{
		"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth",
		"Hamilton", "Ritchie", "Thompson", "Perlman", "Allen", "Hoare",
	}

	companyWords = []string{
		"Acme", "Globex", "Initech", "Umbra", "Vertex", "Nimbus",
		"Quantum", "Cobalt", "Meridian", "Apex", "Lattice", "Orchid",
	}
	companyTLDs  = []string{"com", "io", "ai", "co"}
	industries   = []string{"Software", "Manufacturing", "Healthcare", "Finance", "Retail"}
	companySizes = []string{"1-10", "11-50", "51-200", "201-1000", "1000+"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, limit).
func getRandomInt(limit int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	return int(n.Int64())
}

func pick(options []string) string {
	return options[getRandomInt(len(options))]
}

// generateCompanies creates the specified number of companies with
// unique names and websites.
func generateCompanies(ctx context.Context, config *Config, stats *Stats) ([]CompanyRecord, error) {
	logger.Get().Info(ctx, "generating companies", logger.Int("numCompanies", config.NumCompanies))

	companies := make([]CompanyRecord, config.NumCompanies)
	for i := range companies {
		name := companyWords[i%len(companyWords)] + " " + strconv.Itoa(i/len(companyWords)+1)
		website := companyDomain(name, pick(companyTLDs))
		industry := pick(industries)
		size := pick(companySizes)
		companies[i] = CompanyRecord{
			ID:       uuid.New().String(),
			Name:     name,
			Website:  &website,
			Industry: &industry,
			Size:     &size,
		}
	}

	stats.CompaniesGenerated = len(companies)
	return companies, nil
}

// companyDomain derives a deterministic domain from a company name.
func companyDomain(name, tld string) string {
	slug := strings.ReplaceAll(strings.ToLower(name), " ", "")
	return slug + "." + tld
}

// generatePeople creates people spread across role archetypes, each
// assigned to one of the generated companies.
func generatePeople(ctx context.Context, config *Config, companies []CompanyRecord, stats *Stats) ([]PersonRecord, error) {
	logger.Get().Info(ctx, "generating people", logger.Int("numPeople", config.NumPeople))

	if len(companies) == 0 {
		return nil, fmt.Errorf("no companies to assign people to")
	}

	workspaceID := uuid.New().String()
	people := make([]PersonRecord, config.NumPeople)

	type personResult struct {
		index  int
		person PersonRecord
		err    error
	}

	resultChan := make(chan personResult, config.NumPeople)

	workerCount := minInt(config.Workers, config.NumPeople)
	perWorker := config.NumPeople / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumPeople
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- personResult{index: i, err: ctx.Err()}
					return
				default:
					company := companies[getRandomInt(len(companies))]
					resultChan <- personResult{index: i, person: generateSinglePerson(workspaceID, company)}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumPeople; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during person generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate person %d: %w", result.index, result.err)
			}
			people[result.index] = result.person
		}
	}

	stats.PeopleGenerated = len(people)
	logger.Get().Info(ctx, "generated people successfully", logger.Int("count", len(people)))

	return people, nil
}

// generateSinglePerson creates one person record for the given company.
func generateSinglePerson(workspaceID string, company CompanyRecord) PersonRecord {
	first := pick(firstNames)
	last := pick(lastNames)

	title := pickTitle()
	email := personEmail(first, last, company)

	influence := influenceMin + getRandomFloat()*influenceRange
	engagement := engagementMin + getRandomFloat()*engagementRange
	dataQuality := dataQualityMin + getRandomFloat()*dataQualityRange
	connections := getRandomInt(connectionsMax)
	followers := getRandomInt(followersMax)

	p := PersonRecord{
		ID:                  uuid.New().String(),
		WorkspaceID:         workspaceID,
		FirstName:           first,
		LastName:            last,
		Email:               &email,
		CompanyID:           &company.ID,
		InBuyerGroup:        true,
		InfluenceScore:      &influence,
		EngagementScore:     &engagement,
		DataQualityScore:    &dataQuality,
		LinkedinConnections: &connections,
		LinkedinFollowers:   &followers,
	}
	if title != "" {
		p.JobTitle = &title
	}
	return p
}

// pickTitle chooses a job title biased toward stakeholders, with an
// occasional missing title.
func pickTitle() string {
	switch getRandomInt(archetypeDivisor) {
	case caseDecisionMaker:
		return pick(decisionTitles)
	case caseChampion, caseChampionAlt:
		return pick(championTitles)
	case caseBlocker:
		return pick(blockerTitles)
	case caseIntroducer:
		return pick(introducerTitles)
	case caseUntitled:
		return ""
	default:
		return pick(stakeholderTitles)
	}
}

// personEmail builds an email address on the company's domain, with
// roughly one in ten addresses moved to a sibling TLD so a domain
// audit has findings to report.
func personEmail(first, last string, company CompanyRecord) string {
	domain := "example.com"
	if company.Website != nil {
		domain = *company.Website
	}
	if getRandomInt(mismatchDivisor) == 0 {
		if idx := strings.LastIndex(domain, "."); idx > 0 {
			domain = domain[:idx] + ".net"
		}
	}
	local := strings.ToLower(first) + "." + strings.ToLower(last)
	return local + "@" + domain
}

// rescoreRequests builds one rescore request per generated person.
func rescoreRequests(people []PersonRecord) []RescoreRequest {
	requests := make([]RescoreRequest, len(people))
	now := time.Now().UTC().Format(time.RFC3339)
	for i, p := range people {
		requests[i] = RescoreRequest{
			RequestID: "seed_" + strconv.Itoa(i) + "_" + uuid.New().String(),
			PersonID:  p.ID,
			TS:        now,
		}
	}
	return requests
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
