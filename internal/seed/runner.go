package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrata/crmops/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

const percentageMultiplier = 100

// Run executes the complete seed-and-verify flow.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting seed run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("companies", config.NumCompanies),
		logger.Int("people", config.NumPeople),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate companies and people
	companies, err := generateCompanies(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("company generation failed: %w", err)
	}
	people, err := generatePeople(ctx, config, companies, stats)
	if err != nil {
		return fmt.Errorf("person generation failed: %w", err)
	}

	// Step 3: Store records through the API
	if err := submitRecords(ctx, config, companies, people, stats); err != nil {
		return fmt.Errorf("record submission failed: %w", err)
	}

	// Step 4: Submit rescore requests concurrently
	if err := submitRescores(ctx, config, rescoreRequests(people), stats); err != nil {
		return fmt.Errorf("rescore submission failed: %w", err)
	}

	// Step 5: Wait for the workers to drain the queue
	logger.Get().Info(ctx, "waiting for rescore jobs to be processed")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(config.Wait):
	}

	// Step 6: Retrieve ranks concurrently
	ranks, err := retrieveRanks(ctx, config, people, stats)
	if err != nil {
		return fmt.Errorf("rank retrieval failed: %w", err)
	}

	// Step 7: Get the buyer-group queue
	queue, err := getQueue(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("queue retrieval failed: %w", err)
	}

	// Step 8: Verify results
	if err := verifyResults(ctx, config, ranks, queue, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 9: Save generated records to file
	if err := saveRecordsToFile(ctx, config, companies, people); err != nil {
		logger.Get().Warn(ctx, "failed to save records to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seed run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != statusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// seedDump is the JSON shape written by saveRecordsToFile.
type seedDump struct {
	Companies []CompanyRecord `json:"companies"`
	People    []PersonRecord  `json:"people"`
}

// saveRecordsToFile saves the generated records to a JSON file.
func saveRecordsToFile(ctx context.Context, config *Config, companies []CompanyRecord, people []PersonRecord) error {
	if len(people) == 0 {
		return fmt.Errorf("no records to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "seed_records_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(seedDump{Companies: companies, People: people}); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	logger.Get().Info(ctx, "records saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final seed run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, rescoresPerSecond float64

	if stats.RescoresSubmitted > 0 {
		successRate = float64(stats.RescoresSuccessful) / float64(stats.RescoresSubmitted) * percentageMultiplier
	}

	if stats.Duration > 0 {
		rescoresPerSecond = float64(stats.RescoresSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("companiesGenerated", stats.CompaniesGenerated),
		logger.Int("peopleGenerated", stats.PeopleGenerated),
		logger.Int("recordsSubmitted", stats.RecordsSubmitted),
		logger.Int("rescoresSubmitted", stats.RescoresSubmitted),
		logger.Int("rescoresSuccessful", stats.RescoresSuccessful),
		logger.Int("rescoresDuplicate", stats.RescoresDuplicate),
		logger.Int("rescoresFailed", stats.RescoresFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("queueEntries", stats.QueueEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("rescoresPerSecond", rescoresPerSecond))
}
