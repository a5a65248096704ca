package outbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stridefit/backend/internal/middleware"
)

// Submitter delivers a single action to the server.
type Submitter interface {
	Submit(ctx context.Context, action Action) error
}

// HTTPSubmitter posts actions to the backend API.
type HTTPSubmitter struct {
	baseURL    string
	appSecret  string
	httpClient *http.Client
}

func NewHTTPSubmitter(baseURL, appSecret string) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL:   baseURL,
		appSecret: appSecret,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, action Action) error {
	req, err := http.NewRequestWithContext(
		ctx, action.Method,
		s.baseURL+action.Target,
		bytes.NewReader(action.Payload),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "StrideFitAgent/1.0")
	req.Header.Set(middleware.AppSecretHeader, s.appSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
