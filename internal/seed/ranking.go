package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
)

// retrieveRanks retrieves the computed rank for every person concurrently.
func retrieveRanks(ctx context.Context, config *Config, people []PersonRecord, stats *Stats) ([]RankEntry, error) {
	log.Printf("Retrieving ranks for %d people with %d workers...", len(people), config.Workers)

	client := newHTTPClient(config.Timeout)

	ranks := make([]RankEntry, len(people))
	var (
		retrieved int64
		failed    int64
	)

	if err := eachConcurrently(ctx, config.Workers, len(people), func(i int) {
		entry, err := retrieveSingleRank(ctx, client, config.BaseURL, people[i].ID)
		if err != nil {
			atomic.AddInt64(&failed, 1)
			if config.Verbose {
				log.Printf("failed to get rank for %s: %v", people[i].ID, err)
			}
			return
		}
		ranks[i] = entry
		atomic.AddInt64(&retrieved, 1)
	}); err != nil {
		return nil, err
	}

	// Filter out empty entries (failed retrievals)
	validRanks := make([]RankEntry, 0, len(ranks))
	for _, entry := range ranks {
		if entry.PersonID != "" {
			validRanks = append(validRanks, entry)
		}
	}

	stats.RanksRetrieved = len(validRanks)

	log.Printf(`Rank retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRanks), int(atomic.LoadInt64(&failed)))

	return validRanks, nil
}

// retrieveSingleRank retrieves the rank for a single person.
func retrieveSingleRank(ctx context.Context, client *HTTPClient, baseURL, personID string) (RankEntry, error) {
	url := fmt.Sprintf("%s/rank/%s", baseURL, personID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return RankEntry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return RankEntry{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != statusOK {
		return RankEntry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry RankEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return RankEntry{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return entry, nil
}

// getQueue retrieves the top N buyer-group queue entries.
func getQueue(ctx context.Context, config *Config, stats *Stats) ([]RankEntry, error) {
	log.Printf("Getting top %d queue entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/queue?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != statusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var queue []RankEntry
	if err := json.Unmarshal(body, &queue); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.QueueEntries = len(queue)
	log.Printf("Retrieved %d queue entries", len(queue))

	return queue, nil
}
