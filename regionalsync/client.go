package regionalsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// FetchError means the feed could not be read this pass: network
// failure, timeout, non-2xx status or a malformed top-level payload.
// The pass aborts with zero mutations and retries on the next trigger.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("regional feed %s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("regional feed %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type feedClient struct {
	endpoint string
	http     *http.Client
}

func newFeedClient(endpoint string, timeout time.Duration) *feedClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &feedClient{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

func newFeedClientFromEnv() *feedClient {
	timeout := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("REGIONAL_FEED_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	return newFeedClient(os.Getenv("POLICE_REGIONALS_URL"), timeout)
}

// fetchRegionals performs one bounded GET and decodes the body as a
// JSON array of loosely-typed objects. Record-level validation is the
// normalizer's job; anything wrong with the payload as a whole is a
// FetchError.
func (c *feedClient) fetchRegionals(ctx context.Context) ([]map[string]interface{}, error) {
	if c.endpoint == "" {
		return nil, &FetchError{Endpoint: "(unset)", Err: fmt.Errorf("POLICE_REGIONALS_URL is not configured")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Endpoint: c.endpoint, Status: resp.StatusCode}
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{Endpoint: c.endpoint, Err: err}
	}
	return parsed, nil
}
