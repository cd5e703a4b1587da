package desec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// maxAttempts bounds how often one request is sent while deSEC answers 429.
const maxAttempts = 3

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// response is a fully read HTTP response together with the request that
// produced it, so error messages can reproduce the exchange.
type response struct {
	status   int
	header   http.Header
	body     []byte
	method   string
	url      string
	reqBody  []byte
	attempts int
}

// transport sends authenticated JSON requests and retries rate-limited ones.
type transport struct {
	baseURL string
	token   string
	client  *http.Client
	sleep   Sleeper
	log     logr.Logger
}

// do sends the request, waiting out 429 responses that carry a numeric
// Retry-After header. The last response is returned unchecked.
func (t *transport) do(ctx context.Context, method, path string, body interface{}) (*response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("desec: marshal request body: %w", err)
		}
		payload = data
	}

	url := t.baseURL + strings.TrimLeft(path, "/")
	for attempt := 1; ; attempt++ {
		resp, err := t.roundTrip(ctx, method, url, payload)
		if err != nil {
			return nil, err
		}
		resp.attempts = attempt

		if resp.status != http.StatusTooManyRequests || attempt >= maxAttempts {
			return resp, nil
		}
		wait, ok := retryAfter(resp.header)
		if !ok {
			return resp, nil
		}

		t.log.Info("rate limited by deSEC, waiting before retry", "method", method, "url", url, "attempt", attempt, "wait", wait)
		if err := t.sleep(ctx, wait); err != nil {
			return nil, transportError(method, url, payload, err)
		}
	}
}

// roundTrip performs one HTTP exchange and releases the connection before returning.
func (t *transport) roundTrip(ctx context.Context, method, url string, payload []byte) (*response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, transportError(method, url, payload, err)
	}
	req.Header.Set("Authorization", "Token "+t.token)
	req.Header.Set("Content-Type", "application/json")

	t.log.V(1).Info("sending request", "method", method, "url", url)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, transportError(method, url, payload, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(method, url, payload, err)
	}
	t.log.V(1).Info("received response", "method", method, "url", url, "status", resp.StatusCode)

	return &response{
		status:  resp.StatusCode,
		header:  resp.Header,
		body:    data,
		method:  method,
		url:     url,
		reqBody: payload,
	}, nil
}

// retryAfter parses a Retry-After header given in whole seconds.
func retryAfter(h http.Header) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
