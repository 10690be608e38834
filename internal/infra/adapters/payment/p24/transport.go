package p24

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is a single exchange handed to a Transport.
type Request struct {
	Method   string
	URL      string
	Body     []byte
	User     string
	Password string
	Header   http.Header
}

// Response is the raw outcome of an exchange. Non-2xx statuses are not errors
// at this layer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport sends a request and returns the raw response. Connection handling,
// TLS and retries are its own business.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// maxResponseBody bounds what is read from the gateway.
const maxResponseBody = 4 << 20

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns a pooled transport. A nil client gets the default pool.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Do(ctx context.Context, r Request) (Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.SetBasicAuth(r.User, r.Password)

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: b}, nil
}
