package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetries      = 2
	defaultRetryBackoff = 500 * time.Millisecond
	maxResponseBytes    = 4 << 20
)

// endpoint posts JSON to one provider API, retrying rate limits and server
// errors with exponential backoff.
type endpoint struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
	retries uint64
	backoff time.Duration
}

func newEndpoint(name, url string, headers map[string]string) endpoint {
	return endpoint{
		name:    name,
		url:     url,
		headers: headers,
		client:  &http.Client{},
		retries: defaultRetries,
		backoff: defaultRetryBackoff,
	}
}

func (e *endpoint) post(ctx context.Context, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", e.name, err)
	}
	backoff := e.backoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	b := retry.WithMaxRetries(e.retries, retry.NewExponential(backoff))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%s: create request: %w", e.name, err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range e.headers {
			req.Header.Set(k, v)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			err = fmt.Errorf("%s: request failed: %w", e.name, err)
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("%s: read response: %w", e.name, err)
		}
		if resp.StatusCode != http.StatusOK {
			se := &StatusError{Provider: e.name, Code: resp.StatusCode, Body: string(data)}
			if se.Temporary() {
				return retry.RetryableError(se)
			}
			return se
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: parse response: %w", e.name, err)
		}
		return nil
	})
}
