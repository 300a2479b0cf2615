// Package client holds HTTP clients for the kitchen, order and payment
// services. Transport failures are reported as
// interfaces.ErrServiceUnavailable; error responses are mapped back onto
// the domain errors the server started from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httpAdapter "github.com/YelzhanWeb/kitchenline/internal/adapter/http"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response. It unwraps to the matching domain error
// when the server sent a known code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return httpAdapter.ErrorForCode(e.Code)
}

type base struct {
	url  string
	http *http.Client
}

func newBase(baseURL string, hc *http.Client) base {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return base{url: strings.TrimRight(baseURL, "/"), http: hc}
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). It returns the status code so callers can branch on 204.
func (b base) do(ctx context.Context, method, path string, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.url+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return 0, fmt.Errorf("%s %s: %w: %v", method, path, interfaces.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp httpAdapter.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Error
		}
		return resp.StatusCode, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// Ping checks /health.
func (b base) Ping(ctx context.Context) error {
	_, err := b.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("health check: %w: %v", interfaces.ErrServiceUnavailable, apiErr)
		}
		return err
	}
	return nil
}
