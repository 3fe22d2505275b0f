package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Retriever downloads attachment bytes from the message transport. Media
// URLs only accept the transport account's own credentials.
type Retriever struct {
	httpClient *http.Client
	username   string
	password   string
	maxBytes   int64
	logger     *zap.Logger
}

func NewRetriever(username, password string, maxBytes int64, logger *zap.Logger) *Retriever {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &Retriever{
		httpClient: &http.Client{},
		username:   username,
		password:   password,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Fetch performs a single GET bounded only by ctx. Any failure wraps
// ErrRetrieval.
func (r *Retriever) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrRetrieval, err)
	}
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrRetrieval, resp.StatusCode)
	}

	// read one byte past the limit to detect oversized bodies
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrRetrieval, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", ErrRetrieval, r.maxBytes)
	}

	r.logger.Debug("Attachment downloaded", zap.Int("bytes", len(data)))
	return data, nil
}
