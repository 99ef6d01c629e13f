package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spacedash/pkg/logger"
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET tagged with a fresh request id and returns the status
// and body.
func (c *HTTPClient) Get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", "probe-"+uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// sendRequests fires cfg.Requests proxy calls across cfg.Workers workers.
func sendRequests(ctx context.Context, cfg *Config, stats *Stats) {
	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/api/proxy/data"
	log := logger.Get()

	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				status, body, err := client.Get(ctx, url)
				result := ResultFailed
				if err == nil {
					result, err = Classify(status, body)
				}

				mu.Lock()
				stats.Sent++
				switch result {
				case ResultProxied:
					stats.Proxied++
				case ResultStub:
					stats.Stubbed++
				default:
					stats.Failed++
					if len(stats.Failures) < maxRecordedFailures {
						stats.Failures = append(stats.Failures, fmt.Sprintf("request %d: %v", i, err))
					}
				}
				mu.Unlock()

				if cfg.Verbose {
					log.Debug(ctx, "proxy response",
						logger.Int("request", i),
						logger.Int("status", status),
						logger.String("result", string(result)),
					)
				}
			}
		}()
	}

dispatch:
	for i := 0; i < cfg.Requests; i++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}
