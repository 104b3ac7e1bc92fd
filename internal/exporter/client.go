package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// statusError is a non-2xx response from the backend. Rate limiting and
// server errors are worth retrying; any other client error means the
// payload will never be accepted.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.code)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// post performs one network write of a serialized batch.
func (e *exporter) post(ctx context.Context, payload []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	request.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if e.cfg.AuthToken != "" {
		request.Header.Set("Authorization", "Bearer "+e.cfg.AuthToken)
	}

	response, err := e.client.Do(request)
	if err != nil {
		return fmt.Errorf("posting batch: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &statusError{code: response.StatusCode}
	}

	return nil
}
