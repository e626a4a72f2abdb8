// Package transport carries the relay's webhook traffic. It exposes a
// single HTTP adapter behind the core.TransportAdapter contract so the
// discord client never builds net/http requests itself.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-commit-relay/core"
)

const defaultClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 1 << 20 // webhook replies are tiny; cap defensively misbehaving endpoints

// Doer executes one prepared HTTP request. Injectable so tests run against
// canned responses.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPAdapter turns TransportRequests into HTTP calls. All webhook verbs the
// relay uses (POST execute, PATCH modify, GET probe) flow through Do.
type HTTPAdapter struct {
	Client          Doer
	DefaultHeaders  map[string]string
	MaxResponseBody int64
}

func NewHTTPAdapter(client Doer) *HTTPAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &HTTPAdapter{
		Client:          client,
		MaxResponseBody: defaultResponseBodyLimit,
	}
}

func (a *HTTPAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, requestError("transport: adapter requires an http client")
	}
	targetURL := strings.TrimSpace(req.URL)
	if targetURL == "" {
		return core.TransportResponse{}, requestError("transport: request url is required")
	}
	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		return core.TransportResponse{}, requestError("transport: request method is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var payload io.Reader
	if len(req.Body) > 0 {
		payload = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, targetURL, payload)
	if err != nil {
		return core.TransportResponse{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "transport: build http request").
			WithCode(http.StatusBadRequest).
			WithTextCode(core.RelayErrorBadInput).
			WithMetadata(map[string]any{"method": method, "url": targetURL})
	}
	setHeaders(httpReq, a.DefaultHeaders)
	setHeaders(httpReq, req.Headers)

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, upstreamError(err, "transport: execute http request", method, targetURL)
	}
	defer httpRes.Body.Close()

	limit := a.MaxResponseBody
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.TransportResponse{}, upstreamError(err, "transport: read response body", method, targetURL)
	}
	if int64(len(body)) > limit {
		return core.TransportResponse{}, upstreamError(
			fmt.Errorf("response body exceeds %d bytes", limit),
			"transport: response too large", method, targetURL,
		)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    responseHeaders(httpRes.Header),
		Body:       body,
	}, nil
}

func setHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		req.Header.Set(key, strings.TrimSpace(value))
	}
}

func responseHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key := range header {
		out[key] = header.Get(key)
	}
	return out
}

func requestError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.RelayErrorBadInput)
}

// upstreamError tags connection-level failures as delivery failures: the
// only traffic this adapter carries is webhook traffic.
func upstreamError(source error, message string, method string, url string) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(core.RelayErrorDeliveryFailed).
		WithMetadata(map[string]any{"method": method, "url": url})
}

var _ core.TransportAdapter = (*HTTPAdapter)(nil)
