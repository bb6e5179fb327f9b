package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxBodySize caps the size of a downloaded asset.
const maxBodySize = 8 << 20

// Response is the outcome of a completed HTTP request.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Download issues a GET request and reads the response body.
// A non-nil error means the request did not complete (transport failure, cancellation
// or unreadable body); HTTP error statuses are reported through Response.Status.
func Download(ctx context.Context, client *http.Client, uri, userAgent string) (*Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", uri, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download %s: %w", uri, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	return &Response{Status: res.StatusCode, Body: data}, nil
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}
