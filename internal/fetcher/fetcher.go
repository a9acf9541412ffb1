// Package fetcher downloads IRS bulk archives and opens the XML documents
// inside them.
package fetcher

import (
	"context"
	"io"
)

// Response is the outcome of a conditional archive request.
type Response struct {
	// Body is nil when NotModified is set. The caller closes it.
	Body io.ReadCloser
	// ETag is the validator to send on the next request for the same URL.
	ETag        string
	NotModified bool
}

// Fetcher requests remote archives.
type Fetcher interface {
	// Fetch issues a GET for url, sending etag as If-None-Match when it is
	// non-empty. A final non-200, non-304 response is a *StatusError.
	Fetch(ctx context.Context, url, etag string) (*Response, error)
}
