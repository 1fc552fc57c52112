package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTP status code constants.
const (
	statusOK       = 200
	statusCreated  = 201
	statusAccepted = 202
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	progressInterval        = 1 * time.Second
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitRecords pushes companies and people through the record endpoints.
// Companies go first so that people reference existing company IDs.
func submitRecords(ctx context.Context, config *Config, companies []CompanyRecord, people []PersonRecord, stats *Stats) error {
	log.Printf("Submitting %d companies and %d people...", len(companies), len(people))

	client := newHTTPClient(config.Timeout)

	for i, company := range companies {
		if err := postRecord(ctx, client, config.BaseURL+"/companies", company); err != nil {
			return fmt.Errorf("failed to store company %d: %w", i, err)
		}
	}

	var stored int64
	if err := eachConcurrently(ctx, config.Workers, len(people), func(i int) {
		if err := postRecord(ctx, client, config.BaseURL+"/people", people[i]); err != nil {
			if config.Verbose {
				log.Printf("failed to store person %s: %v", people[i].ID, err)
			}
			return
		}
		atomic.AddInt64(&stored, 1)
	}); err != nil {
		return err
	}

	stats.RecordsSubmitted = len(companies) + int(atomic.LoadInt64(&stored))
	log.Printf("Stored %d companies and %d people", len(companies), atomic.LoadInt64(&stored))
	return nil
}

// postRecord posts a single record and checks for a created status.
func postRecord(ctx context.Context, client *HTTPClient, url string, record interface{}) error {
	resp, err := client.Post(ctx, url, record)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != statusCreated {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// submitRescores submits rescore requests concurrently using worker pools
func submitRescores(ctx context.Context, config *Config, requests []RescoreRequest, stats *Stats) error {
	log.Printf("Submitting %d rescore requests with %d workers...", len(requests), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/rescore"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time

	if err := eachConcurrently(ctx, config.Workers, len(requests), func(i int) {
		result := submitSingleRescore(ctx, client, url, requests[i])

		atomic.AddInt64(&submitted, 1)
		switch result {
		case "success":
			atomic.AddInt64(&successful, 1)
		case "duplicate":
			atomic.AddInt64(&duplicate, 1)
		case "failed":
			atomic.AddInt64(&failed, 1)
		}

		if time.Since(lastReport) >= progressInterval {
			lastReport = time.Now()
			total := atomic.LoadInt64(&submitted)
			succ := atomic.LoadInt64(&successful)
			dup := atomic.LoadInt64(&duplicate)
			fail := atomic.LoadInt64(&failed)

			if config.Verbose {
				log.Printf("Progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
					total, len(requests), succ, dup, fail)
			} else {
				fmt.Printf("\rSubmitted: %d/%d (success: %d, duplicate: %d, failed: %d)",
					total, len(requests), succ, dup, fail)
			}
		}
	}); err != nil {
		return err
	}

	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	stats.RescoresSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RescoresSuccessful = int(atomic.LoadInt64(&successful))
	stats.RescoresDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.RescoresFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Rescore submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.RescoresSuccessful, stats.RescoresDuplicate, stats.RescoresFailed)

	return nil
}

// submitSingleRescore submits a single rescore request and returns the result
func submitSingleRescore(ctx context.Context, client *HTTPClient, url string, request RescoreRequest) string {
	resp, err := client.Post(ctx, url, request)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case statusAccepted:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Status == "accepted" {
			return "success"
		}
		return "success" // Assume success for 202 even if parsing fails
	case statusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate" // Assume duplicate for 200 even if parsing fails
	default:
		return "failed"
	}
}

// eachConcurrently fans indices [0, n) across a worker pool and waits
// for all of them to complete.
func eachConcurrently(ctx context.Context, workers, n int, fn func(int)) error {
	indexChan := make(chan int, workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					fn(index)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()
	return ctx.Err()
}
