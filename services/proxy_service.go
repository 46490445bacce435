package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxProxyBody = 10 << 20

// ProxyResponse is an upstream reply. Body is the upstream JSON; when the
// upstream answered with a non-JSON error it is nil.
type ProxyResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports a 2xx upstream status
func (r *ProxyResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ProxyService forwards requests to a fixed upstream
type ProxyService struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewProxyService(baseURL string, httpClient *http.Client, logger *zap.Logger) *ProxyService {
	return &ProxyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.Named("proxy"),
	}
}

// Forward sends method path?query upstream with the given headers and body.
// Transport failures are returned as errors; HTTP failures come back in the
// response.
func (s *ProxyService) Forward(ctx context.Context, method, path, rawQuery string, headers http.Header, body []byte) (*ProxyResponse, error) {
	url := s.baseURL + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	out := &ProxyResponse{StatusCode: resp.StatusCode}
	if json.Valid(raw) {
		out.Body = raw
	} else if out.OK() {
		return nil, fmt.Errorf("upstream returned non-JSON body for %s %s", method, path)
	}

	s.logger.Debug("proxied request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))
	return out, nil
}
