// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const defaultTimeout = 30 * time.Second

// newHTTPClient creates an HTTP client with disabled connection reuse, so
// that no connection outlives the call that opened it.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
		},
	}
}

// drainAndClose reads what is left of a response body before closing it,
// so an unread error page does not cut the connection short.
// See: https://github.com/golang/go/issues/46071
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// parseBaseURL validates the admin server address and strips any trailing
// slash so request paths can be appended to it.
func parseBaseURL(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q: scheme must be http or https", addr)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q: missing host", addr)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("base url %q: must not have a query or fragment", addr)
	}
	return strings.TrimRight(addr, "/"), nil
}

// httpPoster is shared by the HTTP based transports.
type httpPoster struct {
	base    string
	client  *http.Client
	headers http.Header
	owned   bool
}

func newHTTPPoster(addr string, o *dialOptions) (*httpPoster, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	p := &httpPoster{
		base:    base,
		client:  o.httpClient,
		headers: o.headers.Clone(),
	}
	if p.client == nil {
		p.client = newHTTPClient(o.timeout)
		p.owned = true
	}
	return p, nil
}

// post sends body to path and returns the response body of a 2xx reply,
// or nil for 204 No Content. Any other outcome is a *StatusError.
func (p *httpPoster) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.base+path,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, &StatusError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	for k, v := range p.headers {
		request.Header[k] = append([]string(nil), v...)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))

	resp, err := p.client.Do(request)
	if err != nil {
		return nil, &StatusError{Err: fmt.Errorf("failed to issue request: %w", err)}
	}
	defer drainAndClose(resp.Body)

	// Return an error for any non successful status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Code: resp.StatusCode,
			Err:  fmt.Errorf("received status code: %d", resp.StatusCode),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StatusError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return data, nil
}

func (p *httpPoster) Close() error {
	if p.owned {
		p.client.CloseIdleConnections()
	}
	return nil
}

// httpTransport posts the encoded arguments as they are to the proxy path.
type httpTransport struct {
	*httpPoster
}

func dialHTTP(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	p, err := newHTTPPoster(addr, o)
	if err != nil {
		return nil, err
	}
	return &httpTransport{httpPoster: p}, nil
}

// Prepare sends the codec output as is, provided it is JSON text.
func (t *httpTransport) Prepare(_ Request, payload []byte) ([]byte, error) {
	if !json.Valid(payload) {
		return nil, errors.New("codec output is not JSON")
	}
	return payload, nil
}

func (t *httpTransport) RoundTrip(ctx context.Context, req Request, body []byte) ([]byte, error) {
	return t.post(ctx, req.Path(), body)
}
